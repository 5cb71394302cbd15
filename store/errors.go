package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/itemvault/registry"
	"gorm.io/gorm"
)

var (
	ErrUnknownTypeTag      = registry.ErrUnknownTypeTag
	ErrInvalidPayload      = registry.ErrInvalidPayload
	ErrNotFound            = errors.New("not found")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrAllocationFailed    = errors.New("item id allocation failed")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrTransactionAborted  = errors.New("transaction aborted")
)

// ForeignKeyError reports an association that references a missing user or
// item. It matches both ErrForeignKeyViolation and ErrNotFound.
type ForeignKeyError struct {
	UserID int64
	ItemID int64
	Err    error
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("user %d or item %d does not exist", e.UserID, e.ItemID)
}

func (e *ForeignKeyError) Is(target error) bool {
	return target == ErrForeignKeyViolation || target == ErrNotFound
}

func (e *ForeignKeyError) Unwrap() error { return e.Err }

// isForeignKeyViolation recognises FK failures whether or not the dialect
// translated them into gorm.ErrForeignKeyViolated.
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key")
}

// isDomain reports whether err already carries a caller-facing classification.
func isDomain(err error) bool {
	for _, target := range []error{
		ErrUnknownTypeTag, ErrInvalidPayload, ErrNotFound,
		ErrForeignKeyViolation, ErrAllocationFailed, ErrTransactionAborted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// readErr classifies the failure of a single-statement read.
func readErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, what, err)
}
