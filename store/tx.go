package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// inTx runs fn in one transaction on a context-bound session. gorm rolls back
// whenever fn returns an error. Storage failures are wrapped with
// ErrTransactionAborted; already classified errors pass through unchanged.
func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil || isDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
}
