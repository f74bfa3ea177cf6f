package testutil

import (
	"context"
	"time"

	"github.com/invora/invora/internal/domain/subscription"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	cp := *sub
	return &cp
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || sub.Status == types.StatusDeleted {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetCurrent(ctx context.Context) (*subscription.Subscription, error) {
	filterFn := func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.TenantID == types.GetTenantID(ctx) && sub.Status != types.StatusDeleted
	}
	sortFn := func(i, j *subscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	}

	subs, err := s.InMemoryStore.List(ctx, nil, filterFn, sortFn)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHint("The tenant has no subscription").
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(subs[0]), nil
}

func (s *InMemorySubscriptionStore) GetByProviderSubscriptionID(ctx context.Context, providerSubID string) (*subscription.Subscription, error) {
	filterFn := func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.ProviderSubscriptionID == providerSubID && sub.Status != types.StatusDeleted
	}

	subs, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHintf("No subscription for provider subscription %s", providerSubID).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(subs[0]), nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	items, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), nil
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub))
}

// subscriptionFilterFn implements filtering logic for subscription listings.
// An empty filter tenant ID means admin cross tenant listing.
func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if sub.Status == types.StatusDeleted {
		return false
	}
	f, ok := filter.(*types.SubscriptionFilter)
	if !ok {
		return true
	}
	if f.TenantID != "" && sub.TenantID != f.TenantID {
		return false
	}
	if f.PlanID != "" && sub.PlanID != f.PlanID {
		return false
	}
	if f.SubscriptionStatus != "" && sub.SubscriptionStatus != f.SubscriptionStatus {
		return false
	}
	return true
}

func subscriptionSortFn(i, j *subscription.Subscription) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
