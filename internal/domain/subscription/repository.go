package subscription

import (
	"context"

	"github.com/invora/invora/internal/types"
)

// Repository defines the interface for subscription data access
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	// GetCurrent returns the tenant's latest subscription or a not found error
	GetCurrent(ctx context.Context) (*Subscription, error)
	// GetByProviderSubscriptionID resolves a webhook event to a subscription
	// across tenants
	GetByProviderSubscriptionID(ctx context.Context, providerSubID string) (*Subscription, error)
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)
	Update(ctx context.Context, sub *Subscription) error
}
