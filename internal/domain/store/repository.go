package store

import (
	"context"

	"github.com/invora/invora/internal/types"
)

// Repository defines the interface for store data access
type Repository interface {
	Create(ctx context.Context, store *Store) error
	Get(ctx context.Context, id string) (*Store, error)
	// GetDefault returns the tenant's store profile
	GetDefault(ctx context.Context) (*Store, error)
	List(ctx context.Context, filter *types.StoreFilter) ([]*Store, error)
	Count(ctx context.Context, filter *types.StoreFilter) (int, error)
	Update(ctx context.Context, store *Store) error
	Delete(ctx context.Context, id string) error
	// NextInvoiceSequence atomically increments and returns the store's
	// invoice sequence for the given year
	NextInvoiceSequence(ctx context.Context, storeID string, year int) (int64, error)
}
