package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/registry"
	"github.com/kasuganosora/itemvault/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeaponLifecycle(t *testing.T) {
	es, db := newEntityStore(t)
	ctx := context.Background()

	res, err := es.Create(ctx, registry.Weapon, weaponPayload("Sword"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ItemID)
	assert.Equal(t, "Weapon item created.", res.Message)

	row := identityOf(t, db, 1)
	require.NotNil(t, row)
	assert.Equal(t, "WEAPON", row.ItemType)

	rec, err := es.Get(ctx, registry.Weapon, 1)
	require.NoError(t, err)
	w := rec.(*model.Weapon)
	assert.Equal(t, "Sword", w.Name)
	assert.Equal(t, 10, w.Damage)
	assert.False(t, w.Ranged)
	assert.Equal(t, 5, w.Weight)
	assert.Nil(t, w.Note)

	upd, err := es.Update(ctx, registry.Weapon, 1, map[string]any{"damage": 15, "foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, "WEAPON item updated successfully", upd.Message)

	rec, err = es.Get(ctx, registry.Weapon, 1)
	require.NoError(t, err)
	w = rec.(*model.Weapon)
	assert.Equal(t, 15, w.Damage)
	assert.Equal(t, "Sword", w.Name)

	del, err := es.Delete(ctx, registry.Weapon, 1)
	require.NoError(t, err)
	assert.Equal(t, "WEAPON item with ID 1 deleted successfully.", del.Message)

	_, err = es.Get(ctx, registry.Weapon, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, identityOf(t, db, 1))
	assert.Zero(t, countRows(t, db, &model.Weapon{}))
}

func TestCrossTypeIsolation(t *testing.T) {
	es, _ := newEntityStore(t)
	ctx := context.Background()

	w := mustCreate(t, es, registry.Weapon, weaponPayload("Axe"))
	a := mustCreate(t, es, registry.Armor, map[string]any{"name": "Plate", "armourValue": 8, "weight": 20})
	assert.Equal(t, int64(1), w)
	assert.Equal(t, int64(2), a)

	_, err := es.Get(ctx, registry.Armor, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = es.Get(ctx, registry.Weapon, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = es.Update(ctx, registry.Armor, 1, map[string]any{"weight": 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = es.Delete(ctx, registry.Armor, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	// the weapon is untouched by the failed armour delete
	_, err = es.Get(ctx, registry.Weapon, 1)
	assert.NoError(t, err)
}

func TestCreate_EveryVariant(t *testing.T) {
	es, db := newEntityStore(t)
	payloads := map[registry.Tag]map[string]any{
		registry.Weapon:           weaponPayload("Sword"),
		registry.Armor:            {"name": "Helm", "armourValue": 3, "weight": 2},
		registry.QuestItem:        {"name": "Key", "weight": 0, "note": "opens the gate"},
		registry.Spell:            {"name": "Fire", "damage": 20, "manaCost": 5, "weight": 0},
		registry.HealthConsumable: {"name": "Potion", "healthRestore": 25, "weight": 1},
		registry.ManaConsumable:   {"name": "Ether", "manaRegen": 10, "weight": 1},
	}
	for _, tag := range registry.Tags() {
		id := mustCreate(t, es, tag, payloads[tag])
		row := identityOf(t, db, id)
		require.NotNil(t, row, tag)
		assert.Equal(t, string(tag), row.ItemType)

		rec, err := es.Get(context.Background(), tag, id)
		require.NoError(t, err, tag)
		assert.Equal(t, id, rec.ID())
	}
	assert.Equal(t, int64(6), countRows(t, db, &model.ItemIdentity{}))
}

func TestCreate_RejectedBeforeStorage(t *testing.T) {
	es, db := newEntityStore(t)
	ctx := context.Background()

	_, err := es.Create(ctx, registry.Tag("SHIELD"), weaponPayload("x"))
	assert.ErrorIs(t, err, ErrUnknownTypeTag)

	_, err = es.Create(ctx, registry.Weapon, map[string]any{"name": "Sword", "damage": 10})
	assert.ErrorIs(t, err, ErrInvalidPayload)
	var perr *registry.PayloadError
	require.True(t, errors.As(err, &perr))
	assert.ElementsMatch(t, []string{"ranged", "weight"}, perr.Missing)

	_, err = es.Create(ctx, registry.Weapon, map[string]any{
		"name": "Sword", "damage": 10, "ranged": false, "weight": 5, "itemID": 42,
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	assert.Zero(t, countRows(t, db, &model.ItemIdentity{}))
	assert.Zero(t, countRows(t, db, &model.Weapon{}))
}

func TestCreate_ChildFailureRollsBackIdentity(t *testing.T) {
	es, db := newEntityStore(t)
	require.NoError(t, db.Migrator().DropTable(&model.Spell{}))

	_, err := es.Create(context.Background(), registry.Spell,
		map[string]any{"name": "Fire", "damage": 1, "manaCost": 1, "weight": 0})
	assert.ErrorIs(t, err, ErrTransactionAborted)
	assert.Zero(t, countRows(t, db, &model.ItemIdentity{}))
}

func TestGet_Idempotent(t *testing.T) {
	es, _ := newEntityStore(t)
	ctx := context.Background()
	id := mustCreate(t, es, registry.QuestItem, map[string]any{"name": "Map", "weight": 1, "note": "old"})

	first, err := es.Get(ctx, registry.QuestItem, id)
	require.NoError(t, err)
	second, err := es.Get(ctx, registry.QuestItem, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpdate_PartialMerge(t *testing.T) {
	es, _ := newEntityStore(t)
	ctx := context.Background()
	id := mustCreate(t, es, registry.Spell, map[string]any{
		"name": "Bolt", "damage": 12, "manaCost": 4, "weight": 0, "note": "zap",
	})

	_, err := es.Update(ctx, registry.Spell, id, map[string]any{"manaCost": 6, "note": nil, "itemID": 99})
	require.NoError(t, err)

	rec, err := es.Get(ctx, registry.Spell, id)
	require.NoError(t, err)
	s := rec.(*model.Spell)
	assert.Equal(t, id, s.ItemID)
	assert.Equal(t, "Bolt", s.Name)
	assert.Equal(t, 12, s.Damage)
	assert.Equal(t, 6, s.ManaCost)
	assert.Nil(t, s.Note)
}

func TestUpdate_OnlyUnknownFieldsIsNoop(t *testing.T) {
	es, _ := newEntityStore(t)
	ctx := context.Background()
	id := mustCreate(t, es, registry.Weapon, weaponPayload("Dagger"))

	_, err := es.Update(ctx, registry.Weapon, id, map[string]any{"colour": "red"})
	require.NoError(t, err)

	rec, err := es.Get(ctx, registry.Weapon, id)
	require.NoError(t, err)
	assert.Equal(t, "Dagger", rec.(*model.Weapon).Name)
}

func TestUpdate_WrongKind(t *testing.T) {
	es, _ := newEntityStore(t)
	id := mustCreate(t, es, registry.Weapon, weaponPayload("Dagger"))

	_, err := es.Update(context.Background(), registry.Weapon, id, map[string]any{"damage": "high"})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDelete_RemovesInventoryRows(t *testing.T) {
	es, db := newEntityStore(t)
	ctx := context.Background()
	id := mustCreate(t, es, registry.Weapon, weaponPayload("Mace"))
	u := &model.User{Username: "ann", Health: 10, Armour: 1, Mana: 5, Weight: 50}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&model.UserInventory{UserID: u.UserID, ItemID: id, Quantity: 2}).Error)

	_, err := es.Delete(ctx, registry.Weapon, id)
	require.NoError(t, err)
	assert.Zero(t, countRows(t, db, &model.UserInventory{}))
	assert.Equal(t, int64(1), countRows(t, db, &model.User{}))
}

func TestListAll(t *testing.T) {
	es, _ := newEntityStore(t)
	mustCreate(t, es, registry.Weapon, weaponPayload("B"))
	mustCreate(t, es, registry.Armor, map[string]any{"name": "Helm", "armourValue": 3, "weight": 2})
	mustCreate(t, es, registry.Weapon, weaponPayload("A"))

	all, err := es.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 6)

	weapons := all["weapons"].([]model.Weapon)
	require.Len(t, weapons, 2)
	assert.Equal(t, int64(1), weapons[0].ItemID)
	assert.Equal(t, int64(3), weapons[1].ItemID)
	assert.Len(t, all["armours"].([]model.Armour), 1)
	assert.Empty(t, all["spells"].([]model.Spell))

	// empty collections marshal as [] rather than null
	data, err := json.Marshal(all)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mana_consumables":[]`)
}

func TestGet_ReadThroughCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	es := NewEntityStore(db, c, 0, newNop())
	ctx := context.Background()
	id := mustCreate(t, es, registry.Weapon, weaponPayload("Spear"))

	_, err := es.Get(ctx, registry.Weapon, id)
	require.NoError(t, err)
	ok, err := c.Exists(ctx, itemKey(registry.Weapon, id, 0))
	require.NoError(t, err)
	assert.True(t, ok)

	// a write behind the store's back is not seen until the entry goes
	require.NoError(t, db.Model(&model.Weapon{}).Where("item_id = ?", id).Update("name", "Pike").Error)
	rec, err := es.Get(ctx, registry.Weapon, id)
	require.NoError(t, err)
	assert.Equal(t, "Spear", rec.(*model.Weapon).Name)

	_, err = es.Update(ctx, registry.Weapon, id, map[string]any{"damage": 11})
	require.NoError(t, err)
	rec, err = es.Get(ctx, registry.Weapon, id)
	require.NoError(t, err)
	assert.Equal(t, "Pike", rec.(*model.Weapon).Name)
	assert.Equal(t, 11, rec.(*model.Weapon).Damage)

	_, err = es.Delete(ctx, registry.Weapon, id)
	require.NoError(t, err)
	_, err = es.Get(ctx, registry.Weapon, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_CorruptCacheEntryFallsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	es := NewEntityStore(db, c, 0, newNop())
	ctx := context.Background()
	id := mustCreate(t, es, registry.Weapon, weaponPayload("Club"))

	require.NoError(t, c.Set(ctx, itemKey(registry.Weapon, id, 0), "{not json", 0))
	rec, err := es.Get(ctx, registry.Weapon, id)
	require.NoError(t, err)
	assert.Equal(t, "Club", rec.(*model.Weapon).Name)
}

func TestGet_LateCacheFillAfterUpdateIsNotServed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	es := NewEntityStore(db, c, 0, newNop())
	ctx := context.Background()
	id := mustCreate(t, es, registry.Weapon, weaponPayload("Spear"))

	// A reader resolves its key and loads the old row...
	staleKey := itemKey(registry.Weapon, id, 0)
	stale, err := json.Marshal(&model.Weapon{ItemID: id, Name: "Spear", Damage: 10, Weight: 5})
	require.NoError(t, err)

	// ...a writer commits in between...
	_, err = es.Update(ctx, registry.Weapon, id, map[string]any{"damage": 30})
	require.NoError(t, err)

	// ...and the reader's fill lands afterwards.
	require.NoError(t, c.Set(ctx, staleKey, string(stale), time.Hour))

	rec, err := es.Get(ctx, registry.Weapon, id)
	require.NoError(t, err)
	assert.Equal(t, 30, rec.(*model.Weapon).Damage)
}

func TestInvalidate_BumpsVersionAndDropsOldEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	es := NewEntityStore(db, c, 0, newNop())
	ctx := context.Background()
	id := mustCreate(t, es, registry.Spell, map[string]any{"name": "Fire", "damage": 4, "manaCost": 2, "weight": 0})

	_, err := es.Get(ctx, registry.Spell, id)
	require.NoError(t, err)
	_, err = es.Update(ctx, registry.Spell, id, map[string]any{"manaCost": 3})
	require.NoError(t, err)

	v, err := c.Get(ctx, versionKey(registry.Spell, id))
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	ok, err := c.Exists(ctx, itemKey(registry.Spell, id, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = es.Get(ctx, registry.Spell, id)
	require.NoError(t, err)
	ok, err = c.Exists(ctx, itemKey(registry.Spell, id, 1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSharedIdsAcrossVariants(t *testing.T) {
	es, db := newEntityStore(t)
	ctx := context.Background()

	sword, err := es.Create(ctx, registry.Weapon, map[string]any{
		"name": "Sword", "damage": 10, "ranged": false, "weight": 5, "note": "test",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sword.ItemID)
	assert.Equal(t, "Weapon item created.", sword.Message)

	plate, err := es.Create(ctx, registry.Armor, map[string]any{"name": "Plate", "armourValue": 8, "weight": 12})
	require.NoError(t, err)
	assert.Equal(t, int64(2), plate.ItemID)

	_, err = es.Get(ctx, registry.Armor, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	rec, err := es.Get(ctx, registry.Weapon, 1)
	require.NoError(t, err)
	w := rec.(*model.Weapon)
	assert.Equal(t, "Sword", w.Name)
	assert.Equal(t, 10, w.Damage)
	assert.False(t, w.Ranged)
	assert.Equal(t, 5, w.Weight)
	require.NotNil(t, w.Note)
	assert.Equal(t, "test", *w.Note)

	_, err = es.Delete(ctx, registry.Weapon, 1)
	require.NoError(t, err)
	_, err = es.Delete(ctx, registry.Armor, 2)
	require.NoError(t, err)

	assert.Zero(t, countRows(t, db, &model.ItemIdentity{}))
	assert.Zero(t, countRows(t, db, &model.Weapon{}))
	assert.Zero(t, countRows(t, db, &model.Armour{}))
}
