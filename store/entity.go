package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kasuganosora/itemvault/cache"
	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/registry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultItemTTL = 10 * time.Minute

// Result is the outcome of a mutating item operation.
type Result struct {
	ItemID  int64  `json:"itemID"`
	Message string `json:"message"`
}

// EntityStore is the generic CRUD surface over every item variant. Each call
// is dispatched through the registry by type tag; the identity row and the
// child row are always written or removed together.
type EntityStore struct {
	db     *gorm.DB
	alloc  IdentityAllocator
	cache  cache.Cache // optional
	ttl    time.Duration
	logger *zap.Logger
}

// NewEntityStore creates an EntityStore. c may be nil to disable the read
// cache; ttl <= 0 selects the default.
func NewEntityStore(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *EntityStore {
	if ttl <= 0 {
		ttl = defaultItemTTL
	}
	return &EntityStore{db: db, cache: c, ttl: ttl, logger: logger}
}

// Cached records live under a per-item version. Writes bump the version
// after commit, so a read that loaded the row before the commit can only
// store it under a version no later reader asks for.
func versionKey(tag registry.Tag, id int64) string {
	return fmt.Sprintf("itemver:%s:%d", tag, id)
}

func itemKey(tag registry.Tag, id, version int64) string {
	return fmt.Sprintf("item:%s:%d:v%d", tag, id, version)
}

// Create validates payload against the variant, allocates a shared id and
// inserts the child row, all in one transaction. Nothing touches storage when
// the tag or the payload is rejected.
func (s *EntityStore) Create(ctx context.Context, tag registry.Tag, payload map[string]any) (*Result, error) {
	schema, err := registry.Lookup(tag)
	if err != nil {
		return nil, err
	}
	values, err := schema.Validate(payload)
	if err != nil {
		return nil, err
	}

	var id int64
	err = inTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if id, err = s.alloc.Allocate(tx, tag); err != nil {
			return err
		}
		values["item_id"] = id
		return tx.Model(schema.New()).Create(values).Error
	})
	if err != nil {
		s.logFailure("item create failed", tag, 0, err)
		return nil, err
	}
	return &Result{ItemID: id, Message: schema.Table + " item created."}, nil
}

// Get loads the record of the given variant. It only consults that
// variant's table: an id belonging to another variant is ErrNotFound.
func (s *EntityStore) Get(ctx context.Context, tag registry.Tag, id int64) (model.Item, error) {
	schema, err := registry.Lookup(tag)
	if err != nil {
		return nil, err
	}
	key, cached := s.cacheKey(ctx, tag, id)
	if cached {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			if rec, derr := schema.Decode([]byte(data)); derr == nil {
				return rec, nil
			}
			s.evict(ctx, key)
		case !cache.IsMiss(err):
			s.logger.Warn("item cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	rec, err := schema.Find(s.db.WithContext(ctx), id)
	if err != nil {
		err = readErr(err, fmt.Sprintf("%s item %d", tag, id))
		s.logFailure("item get failed", tag, id, err)
		return nil, err
	}
	if cached {
		if data, merr := json.Marshal(rec); merr == nil {
			if serr := s.cache.Set(ctx, key, string(data), s.ttl); serr != nil {
				s.logger.Warn("item cache write failed", zap.String("key", key), zap.Error(serr))
			}
		}
	}
	return rec, nil
}

// Update merges partial into the record. Fields outside the variant are
// ignored; itemID is never written.
func (s *EntityStore) Update(ctx context.Context, tag registry.Tag, id int64, partial map[string]any) (*Result, error) {
	schema, err := registry.Lookup(tag)
	if err != nil {
		return nil, err
	}
	values, err := schema.Mask(partial)
	if err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := schema.Find(tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s item %d: %w", tag, id, ErrNotFound)
			}
			return err
		}
		if len(values) == 0 {
			return nil
		}
		return tx.Model(schema.New()).Where("item_id = ?", id).Updates(values).Error
	})
	if err != nil {
		s.logFailure("item update failed", tag, id, err)
		return nil, err
	}
	s.invalidate(ctx, tag, id)
	return &Result{ItemID: id, Message: fmt.Sprintf("%s item updated successfully", tag)}, nil
}

// Delete removes the child row and its identity row in one transaction.
// Inventory rows referencing the item go with the identity row.
func (s *EntityStore) Delete(ctx context.Context, tag registry.Tag, id int64) (*Result, error) {
	schema, err := registry.Lookup(tag)
	if err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, func(tx *gorm.DB) error {
		res := tx.Where("item_id = ?", id).Delete(schema.New())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s item %d: %w", tag, id, ErrNotFound)
		}
		res = tx.Where("item_id = ? AND item_type = ?", id, string(tag)).Delete(&model.ItemIdentity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			s.logger.Warn("child row had no identity row",
				zap.String("tag", string(tag)), zap.Int64("item_id", id))
		}
		return nil
	})
	if err != nil {
		s.logFailure("item delete failed", tag, id, err)
		return nil, err
	}
	s.invalidate(ctx, tag, id)
	return &Result{ItemID: id, Message: fmt.Sprintf("%s item with ID %d deleted successfully.", tag, id)}, nil
}

// ListAll returns every record of every variant, keyed by collection name
// and ordered by id within each collection.
func (s *EntityStore) ListAll(ctx context.Context) (map[string]any, error) {
	db := s.db.WithContext(ctx)
	out := make(map[string]any, len(registry.Tags()))
	for _, tag := range registry.Tags() {
		schema, err := registry.Lookup(tag)
		if err != nil {
			return nil, err
		}
		rows, err := schema.FindAll(db)
		if err != nil {
			err = fmt.Errorf("%w: list %s: %w", ErrStorageUnavailable, schema.Table, err)
			s.logFailure("item list failed", tag, 0, err)
			return nil, err
		}
		out[schema.Collection] = rows
	}
	return out, nil
}

// cacheKey returns the entry key for the item's current version. It reports
// false when there is no cache or the version cannot be read, in which case
// the cache is bypassed.
func (s *EntityStore) cacheKey(ctx context.Context, tag registry.Tag, id int64) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	var version int64
	v, err := s.cache.Get(ctx, versionKey(tag, id))
	switch {
	case err == nil:
		if version, err = strconv.ParseInt(v, 10, 64); err != nil {
			s.logger.Warn("item cache version corrupt", zap.String("key", versionKey(tag, id)), zap.String("value", v))
			return "", false
		}
	case !cache.IsMiss(err):
		s.logger.Warn("item cache version read failed", zap.String("key", versionKey(tag, id)), zap.Error(err))
		return "", false
	}
	return itemKey(tag, id, version), true
}

// invalidate retires the cached record once a write has committed.
func (s *EntityStore) invalidate(ctx context.Context, tag registry.Tag, id int64) {
	if s.cache == nil {
		return
	}
	version, err := s.cache.Incr(ctx, versionKey(tag, id))
	if err != nil {
		s.logger.Warn("item cache version bump failed", zap.String("key", versionKey(tag, id)), zap.Error(err))
		return
	}
	s.evict(ctx, itemKey(tag, id, version-1))
}

func (s *EntityStore) evict(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		s.logger.Warn("item cache evict failed", zap.String("key", key), zap.Error(err))
	}
}

// logFailure records storage-side failures. Rejections caused by the caller
// are not logged.
func (s *EntityStore) logFailure(msg string, tag registry.Tag, id int64, err error) {
	if isCallerError(err) {
		return
	}
	s.logger.Error(msg, zap.String("tag", string(tag)), zap.Int64("item_id", id), zap.Error(err))
}

func isCallerError(err error) bool {
	return errors.Is(err, ErrUnknownTypeTag) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrNotFound)
}
