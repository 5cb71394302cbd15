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

var userFields = registry.FieldSet{
	{Name: "username", Column: "username", Kind: registry.KindString, Required: true, MaxLen: 20},
	{Name: "health", Column: "health", Kind: registry.KindInt, Required: true},
	{Name: "armour", Column: "armour", Kind: registry.KindInt, Required: true},
	{Name: "mana", Column: "mana", Kind: registry.KindInt, Required: true},
	{Name: "weight", Column: "weight", Kind: registry.KindInt, Required: true},
}

// UserStore is flat CRUD over users.
type UserStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserStore creates a UserStore.
func NewUserStore(db *gorm.DB, logger *zap.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

// Create inserts a user; the id is chosen by the storage engine.
func (s *UserStore) Create(ctx context.Context, payload map[string]any) (*model.User, error) {
	values, err := userFields.Validate(payload)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username: values["username"].(string),
		Health:   int(values["health"].(int64)),
		Armour:   int(values["armour"].(int64)),
		Mana:     int(values["mana"].(int64)),
		Weight:   int(values["weight"].(int64)),
	}
	if err := inTx(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Create(u).Error
	}); err != nil {
		s.logger.Error("user create failed", zap.Error(err))
		return nil, err
	}
	return u, nil
}

// Get loads one user.
func (s *UserStore) Get(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).Take(&u).Error; err != nil {
		return nil, readErr(err, fmt.Sprintf("user %d", id))
	}
	return &u, nil
}

// List returns every user ordered by id.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	if err := s.db.WithContext(ctx).Order("user_id").Find(&users).Error; err != nil {
		return nil, readErr(err, "users")
	}
	return users, nil
}

// Update merges partial into the user. Unknown fields are ignored.
func (s *UserStore) Update(ctx context.Context, id int64, partial map[string]any) (*model.User, error) {
	values, err := userFields.Mask(partial)
	if err != nil {
		return nil, err
	}
	var u model.User
	err = inTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Take(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", id, ErrNotFound)
			}
			return err
		}
		if len(values) == 0 {
			return nil
		}
		if err := tx.Model(&model.User{}).Where("user_id = ?", id).Updates(values).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", id).Take(&u).Error
	})
	if err != nil {
		if !isCallerError(err) {
			s.logger.Error("user update failed", zap.Int64("user_id", id), zap.Error(err))
		}
		return nil, err
	}
	return &u, nil
}

// Delete removes the user together with its inventory rows.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	err := inTx(ctx, s.db, func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil && !isCallerError(err) {
		s.logger.Error("user delete failed", zap.Int64("user_id", id), zap.Error(err))
	}
	return err
}
