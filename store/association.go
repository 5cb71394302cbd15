package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/registry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// quantity is the only writable association field.
var inventoryFields = registry.FieldSet{
	{Name: "quantity", Column: "quantity", Kind: registry.KindInt, Required: true, NonNegative: true},
}

// Upserted is the row left by UpsertUpdate and whether it was inserted.
type Upserted struct {
	Record  *model.UserInventory `json:"record"`
	Created bool                 `json:"created"`
}

// AssociationStore manages user inventory rows keyed by (userID, itemID).
type AssociationStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAssociationStore creates an AssociationStore.
func NewAssociationStore(db *gorm.DB, logger *zap.Logger) *AssociationStore {
	return &AssociationStore{db: db, logger: logger}
}

// Get returns the single row for the pair.
func (s *AssociationStore) Get(ctx context.Context, userID, itemID int64) (*model.UserInventory, error) {
	var rec model.UserInventory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Take(&rec).Error
	if err != nil {
		return nil, readErr(err, fmt.Sprintf("inventory (%d, %d)", userID, itemID))
	}
	return &rec, nil
}

// List returns every association ordered by (userID, itemID).
func (s *AssociationStore) List(ctx context.Context) ([]model.UserInventory, error) {
	return s.list(ctx, "inventory", nil)
}

// ListByUser returns every item held by userID. An unknown user yields an
// empty list.
func (s *AssociationStore) ListByUser(ctx context.Context, userID int64) ([]model.UserInventory, error) {
	return s.list(ctx, fmt.Sprintf("inventory of user %d", userID), func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	})
}

// ListByItem returns every holder of itemID.
func (s *AssociationStore) ListByItem(ctx context.Context, itemID int64) ([]model.UserInventory, error) {
	return s.list(ctx, fmt.Sprintf("holders of item %d", itemID), func(db *gorm.DB) *gorm.DB {
		return db.Where("item_id = ?", itemID)
	})
}

func (s *AssociationStore) list(ctx context.Context, what string, scope func(*gorm.DB) *gorm.DB) ([]model.UserInventory, error) {
	db := s.db.WithContext(ctx)
	if scope != nil {
		db = scope(db)
	}
	rows := make([]model.UserInventory, 0)
	if err := db.Order("user_id, item_id").Find(&rows).Error; err != nil {
		err = readErr(err, what)
		s.logger.Error("inventory list failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

// UpsertUpdate makes sure the pair exists (inserted with quantity 0 if not)
// and then merges partial into it, all in one transaction. When the user or
// the item does not exist the result is a *ForeignKeyError and no row is
// left behind.
func (s *AssociationStore) UpsertUpdate(ctx context.Context, userID, itemID int64, partial map[string]any) (*Upserted, error) {
	values, err := inventoryFields.Mask(partial)
	if err != nil {
		return nil, err
	}

	out := &Upserted{}
	err = inTx(ctx, s.db, func(tx *gorm.DB) error {
		var rec model.UserInventory
		err := tx.Where("user_id = ? AND item_id = ?", userID, itemID).Take(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = model.UserInventory{UserID: userID, ItemID: itemID, Quantity: 0}
			if err := tx.Create(&rec).Error; err != nil {
				if isForeignKeyViolation(err) {
					return &ForeignKeyError{UserID: userID, ItemID: itemID, Err: err}
				}
				return err
			}
			out.Created = true
		case err != nil:
			return err
		}

		if len(values) > 0 {
			if err := tx.Model(&model.UserInventory{}).
				Where("user_id = ? AND item_id = ?", userID, itemID).
				Updates(values).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? AND item_id = ?", userID, itemID).Take(&rec).Error; err != nil {
			return err
		}
		out.Record = &rec
		return nil
	})
	if err != nil {
		if !isCallerError(err) {
			s.logger.Error("inventory upsert failed",
				zap.Int64("user_id", userID), zap.Int64("item_id", itemID), zap.Error(err))
		}
		return nil, err
	}
	return out, nil
}

// Delete removes the pair.
func (s *AssociationStore) Delete(ctx context.Context, userID, itemID int64) error {
	return inTx(ctx, s.db, func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND item_id = ?", userID, itemID).Delete(&model.UserInventory{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("inventory (%d, %d): %w", userID, itemID, ErrNotFound)
		}
		return nil
	})
}
