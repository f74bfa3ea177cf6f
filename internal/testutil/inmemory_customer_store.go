package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/invora/invora/internal/domain/customer"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]
}

// NewInMemoryCustomerStore creates a new in-memory customer store
func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
	}
}

func copyCustomer(c *customer.Customer) *customer.Customer {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Metadata = lo.Assign(map[string]string{}, c.Metadata)
	return &cp
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	// mirror the unique (tenant_id, external_id) constraint
	if c.ExternalID != "" {
		if existing, err := s.GetByExternalID(ctx, c.ExternalID); err == nil && existing != nil {
			return ierr.NewError("customer already exists").
				WithHint("A customer with this external ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || c.TenantID != types.GetTenantID(ctx) || c.Status == types.StatusDeleted {
		return nil, ierr.NewError("customer not found").
			WithHintf("Customer with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyCustomer(c), nil
}

func (s *InMemoryCustomerStore) GetByExternalID(ctx context.Context, externalID string) (*customer.Customer, error) {
	filterFn := func(ctx context.Context, c *customer.Customer, _ interface{}) bool {
		return c.ExternalID == externalID &&
			c.TenantID == types.GetTenantID(ctx) &&
			c.Status != types.StatusDeleted
	}

	customers, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, ierr.NewError("customer not found").
			WithHintf("Customer with external ID %s was not found", externalID).
			Mark(ierr.ErrNotFound)
	}
	return copyCustomer(customers[0]), nil
}

func (s *InMemoryCustomerStore) List(ctx context.Context, filter *types.CustomerFilter) ([]*customer.Customer, error) {
	items, err := s.InMemoryStore.List(ctx, filter, customerFilterFn, customerSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(c *customer.Customer, _ int) *customer.Customer {
		return copyCustomer(c)
	}), nil
}

func (s *InMemoryCustomerStore) Count(ctx context.Context, filter *types.CustomerFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, customerFilterFn)
}

func (s *InMemoryCustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	stored, err := s.InMemoryStore.Get(ctx, c.ID)
	if err != nil || stored.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("customer not found").
			WithHintf("Customer with ID %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	if stored.Version != c.Version {
		return ierr.NewError("customer was modified concurrently").
			WithHint("The customer was changed by another request, retry with fresh data").
			Mark(ierr.ErrVersionConflict)
	}

	c.UpdatedAt = time.Now().UTC()
	c.Version++
	return s.InMemoryStore.Update(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Status = types.StatusDeleted
	c.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, c)
}

// customerFilterFn implements filtering logic for customers
func customerFilterFn(ctx context.Context, c *customer.Customer, filter interface{}) bool {
	if c.TenantID != types.GetTenantID(ctx) || c.Status == types.StatusDeleted {
		return false
	}
	f, ok := filter.(*types.CustomerFilter)
	if !ok {
		return true
	}
	if f.StoreID != "" && c.StoreID != f.StoreID {
		return false
	}
	if f.ExternalID != "" && c.ExternalID != f.ExternalID {
		return false
	}
	if f.Email != "" && c.Email != f.Email {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) {
			return false
		}
	}
	return true
}

func customerSortFn(i, j *customer.Customer) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
