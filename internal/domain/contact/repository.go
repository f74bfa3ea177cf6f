package contact

import (
	"context"

	"github.com/invora/invora/internal/types"
)

// Repository defines the interface for store contact data access
type Repository interface {
	Create(ctx context.Context, contact *Contact) error
	Get(ctx context.Context, id string) (*Contact, error)
	List(ctx context.Context, filter *types.ContactFilter) ([]*Contact, error)
	Count(ctx context.Context, filter *types.ContactFilter) (int, error)
	Update(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, id string) error
	// GetPrimary returns the store's primary contact or a not found error
	GetPrimary(ctx context.Context, storeID string) (*Contact, error)
	// ClearPrimary demotes any primary contact of the store
	ClearPrimary(ctx context.Context, storeID string) error
}
