package repository

import (
	"context"

	"bdo-market-watch/internal/model"
)

// ItemRepository defines tracked-item data access methods.
// Every mutating call is write-through: the record set is durable before the
// call returns. Implementations must be safe for concurrent use; the watcher
// and the HTTP/bot surfaces share one instance.
type ItemRepository interface {
	// List returns every tracked item. Iteration order is not defined.
	List(ctx context.Context) ([]model.TrackedItem, error)

	// Get returns the record for (itemID, sid), or ErrNotTracked.
	Get(ctx context.Context, itemID, sid int) (*model.TrackedItem, error)

	// Add inserts a new record. Returns ErrAlreadyTracked if the pair exists;
	// the existing record is left unmodified.
	Add(ctx context.Context, item model.TrackedItem) error

	// Update applies a partial patch to an existing record and returns the
	// updated record. Returns ErrNotTracked if the pair has no record.
	Update(ctx context.Context, itemID, sid int, patch model.ItemPatch) (*model.TrackedItem, error)

	// Remove deletes the exact pair when sid is non-nil, or every variant of
	// itemID when sid is nil. Reports whether anything was removed.
	Remove(ctx context.Context, itemID int, sid *int) (bool, error)

	// Close releases the underlying connection or file handle.
	Close() error
}
