package driven

import (
	"context"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

// SecureStore is the driven port onto a platform credential store. Its three
// calls mirror the native item API: add, delete and copy-matching. Every
// failure is reported as a *model.StatusError carrying the store's status
// code and, when the store has one, its own message.
type SecureStore interface {
	// Add inserts one item described by attrs. Returns StatusDuplicateItem if
	// an item with the same primary attributes already exists.
	Add(ctx context.Context, attrs model.Dictionary) error

	// Delete removes every item matching query. Returns StatusItemNotFound if
	// nothing matched.
	Delete(ctx context.Context, query model.Dictionary) error

	// CopyMatching returns the items matching query, shaped by its return keys
	// and match limit. Returns StatusItemNotFound if nothing matched.
	CopyMatching(ctx context.Context, query model.Dictionary) ([]model.Dictionary, error)
}
