package store

import (
	"context"
	"testing"

	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()

	u, err := f.users.Create(ctx, map[string]any{
		"username": "hal", "health": 100, "armour": 5, "mana": 30, "weight": 70,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.UserID)

	got, err := f.users.Get(ctx, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "hal", got.Username)
	assert.Equal(t, 5, got.Armour)

	upd, err := f.users.Update(ctx, u.UserID, map[string]any{"mana": 45, "userID": 9, "level": 3})
	require.NoError(t, err)
	assert.Equal(t, u.UserID, upd.UserID)
	assert.Equal(t, 45, upd.Mana)
	assert.Equal(t, 100, upd.Health)

	list, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.users.Delete(ctx, u.UserID))
	_, err = f.users.Get(ctx, u.UserID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.users.Delete(ctx, u.UserID), ErrNotFound)
}

func TestUserCreate_Invalid(t *testing.T) {
	f := newInventoryFixture(t)
	_, err := f.users.Create(context.Background(), map[string]any{
		"username": "a-username-over-twenty-chars", "health": 1, "armour": 1, "mana": 1,
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Zero(t, countRows(t, f.db, &model.User{}))
}

func TestUserUpdate_NotFound(t *testing.T) {
	f := newInventoryFixture(t)
	_, err := f.users.Update(context.Background(), 42, map[string]any{"mana": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDelete_RemovesInventoryRows(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()
	uid := f.user(t, "ivy")
	iid := mustCreate(t, f.items, registry.Weapon, weaponPayload("Sword"))
	_, err := f.inv.UpsertUpdate(ctx, uid, iid, map[string]any{"quantity": 2})
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, uid))
	assert.Zero(t, countRows(t, f.db, &model.UserInventory{}))
	_, err = f.items.Get(ctx, registry.Weapon, iid)
	assert.NoError(t, err)
}
