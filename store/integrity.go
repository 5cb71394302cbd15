package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/registry"
	"go.uber.org/zap"
)

// IntegrityReport lists every break of the identity/child pairing found by
// a read-only scan. Nothing is repaired.
type IntegrityReport struct {
	CheckedAt time.Time `json:"checkedAt"`
	// Identity rows whose tag's table holds no row with that id, including
	// rows carrying a tag outside the enumeration.
	OrphanIdentities []int64 `json:"orphanIdentities"`
	// Child rows without any identity row.
	MissingIdentities map[registry.Tag][]int64 `json:"missingIdentities"`
	// Child rows whose identity row names another variant.
	TagMismatches map[registry.Tag][]int64 `json:"tagMismatches"`
}

// Healthy reports whether the scan found nothing.
func (r *IntegrityReport) Healthy() bool {
	return len(r.OrphanIdentities) == 0 && len(r.MissingIdentities) == 0 && len(r.TagMismatches) == 0
}

// Integrity scans the identity table against every child table.
func (s *EntityStore) Integrity(ctx context.Context) (*IntegrityReport, error) {
	db := s.db.WithContext(ctx)
	q := db.Statement.Quote
	identity := q(model.IdentityTable)

	report := &IntegrityReport{
		CheckedAt:         time.Now().UTC(),
		OrphanIdentities:  []int64{},
		MissingIdentities: map[registry.Tag][]int64{},
		TagMismatches:     map[registry.Tag][]int64{},
	}

	tags := registry.Tags()
	known := make([]string, len(tags))
	for i, tag := range tags {
		known[i] = string(tag)
	}

	var unknown []int64
	if err := db.Raw(fmt.Sprintf(
		"SELECT i.item_id FROM %s i WHERE i.item_type NOT IN ? ORDER BY i.item_id", identity),
		known).Scan(&unknown).Error; err != nil {
		return nil, s.integrityErr(err)
	}
	report.OrphanIdentities = append(report.OrphanIdentities, unknown...)

	for _, tag := range tags {
		schema, err := registry.Lookup(tag)
		if err != nil {
			return nil, err
		}
		child := q(schema.Table)

		var orphans []int64
		if err := db.Raw(fmt.Sprintf(
			"SELECT i.item_id FROM %s i WHERE i.item_type = ? AND NOT EXISTS "+
				"(SELECT 1 FROM %s c WHERE c.item_id = i.item_id) ORDER BY i.item_id", identity, child),
			string(tag)).Scan(&orphans).Error; err != nil {
			return nil, s.integrityErr(err)
		}
		report.OrphanIdentities = append(report.OrphanIdentities, orphans...)

		var missing []int64
		if err := db.Raw(fmt.Sprintf(
			"SELECT c.item_id FROM %s c LEFT JOIN %s i ON i.item_id = c.item_id "+
				"WHERE i.item_id IS NULL ORDER BY c.item_id", child, identity)).Scan(&missing).Error; err != nil {
			return nil, s.integrityErr(err)
		}
		if len(missing) > 0 {
			report.MissingIdentities[tag] = missing
		}

		var mismatched []int64
		if err := db.Raw(fmt.Sprintf(
			"SELECT c.item_id FROM %s c JOIN %s i ON i.item_id = c.item_id "+
				"WHERE i.item_type <> ? ORDER BY c.item_id", child, identity),
			string(tag)).Scan(&mismatched).Error; err != nil {
			return nil, s.integrityErr(err)
		}
		if len(mismatched) > 0 {
			report.TagMismatches[tag] = mismatched
		}
	}
	return report, nil
}

func (s *EntityStore) integrityErr(err error) error {
	err = fmt.Errorf("%w: integrity scan: %w", ErrStorageUnavailable, err)
	s.logger.Error("integrity scan failed", zap.Error(err))
	return err
}

// IntegritySweep returns a scheduler task that scans the store and logs what
// it finds. Each run is bounded by timeout, 30s when unset.
func IntegritySweep(es *EntityStore, timeout time.Duration, logger *zap.Logger) func() {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		report, err := es.Integrity(ctx)
		if err != nil {
			return
		}
		if report.Healthy() {
			logger.Debug("integrity sweep clean")
			return
		}
		logger.Warn("integrity sweep found inconsistencies",
			zap.Int64s("orphan_identities", report.OrphanIdentities),
			zap.Any("missing_identities", report.MissingIdentities),
			zap.Any("tag_mismatches", report.TagMismatches))
	}
}
