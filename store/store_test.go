package store

import (
	"context"
	"testing"

	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/registry"
	"github.com/kasuganosora/itemvault/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newNop() *zap.Logger { return zap.NewNop() }

func newEntityStore(t *testing.T) (*EntityStore, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewEntityStore(db, nil, 0, newNop()), db
}

func weaponPayload(name string) map[string]any {
	return map[string]any{"name": name, "damage": 10, "ranged": false, "weight": 5}
}

func countRows(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func identityOf(t *testing.T, db *gorm.DB, id int64) *model.ItemIdentity {
	t.Helper()
	var row model.ItemIdentity
	if err := db.Where("item_id = ?", id).Take(&row).Error; err != nil {
		return nil
	}
	return &row
}

func mustCreate(t *testing.T, es *EntityStore, tag registry.Tag, payload map[string]any) int64 {
	t.Helper()
	res, err := es.Create(context.Background(), tag, payload)
	require.NoError(t, err)
	return res.ItemID
}
