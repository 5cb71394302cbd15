package store

import (
	"fmt"

	"github.com/kasuganosora/itemvault/model"
	"github.com/kasuganosora/itemvault/registry"
	"gorm.io/gorm"
)

// IdentityAllocator hands out item ids from the shared identity table.
type IdentityAllocator struct{}

// Allocate inserts one identity row for tag inside the caller's transaction
// and returns the id chosen by the storage engine. The row disappears if the
// transaction rolls back.
func (IdentityAllocator) Allocate(tx *gorm.DB, tag registry.Tag) (int64, error) {
	if !tag.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTypeTag, string(tag))
	}
	row := &model.ItemIdentity{ItemType: string(tag)}
	if err := tx.Create(row).Error; err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	if row.ItemID == 0 {
		return 0, fmt.Errorf("%w: engine returned no id", ErrAllocationFailed)
	}
	return row.ItemID, nil
}
