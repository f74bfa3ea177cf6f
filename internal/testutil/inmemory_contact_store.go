package testutil

import (
	"context"
	"time"

	"github.com/invora/invora/internal/domain/contact"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// InMemoryContactStore implements contact.Repository
type InMemoryContactStore struct {
	*InMemoryStore[*contact.Contact]
}

// NewInMemoryContactStore creates a new in-memory contact store
func NewInMemoryContactStore() *InMemoryContactStore {
	return &InMemoryContactStore{
		InMemoryStore: NewInMemoryStore[*contact.Contact](),
	}
}

func copyContact(c *contact.Contact) *contact.Contact {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func (s *InMemoryContactStore) Create(ctx context.Context, c *contact.Contact) error {
	return s.InMemoryStore.Create(ctx, c.ID, copyContact(c))
}

func (s *InMemoryContactStore) Get(ctx context.Context, id string) (*contact.Contact, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || c.TenantID != types.GetTenantID(ctx) || c.Status == types.StatusDeleted {
		return nil, ierr.NewError("contact not found").
			WithHintf("Contact with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyContact(c), nil
}

func (s *InMemoryContactStore) List(ctx context.Context, filter *types.ContactFilter) ([]*contact.Contact, error) {
	items, err := s.InMemoryStore.List(ctx, filter, contactFilterFn, contactSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(c *contact.Contact, _ int) *contact.Contact {
		return copyContact(c)
	}), nil
}

func (s *InMemoryContactStore) Count(ctx context.Context, filter *types.ContactFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, contactFilterFn)
}

func (s *InMemoryContactStore) Update(ctx context.Context, c *contact.Contact) error {
	c.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, c.ID, copyContact(c))
}

func (s *InMemoryContactStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Status = types.StatusDeleted
	c.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, c)
}

func (s *InMemoryContactStore) GetPrimary(ctx context.Context, storeID string) (*contact.Contact, error) {
	filterFn := func(ctx context.Context, c *contact.Contact, _ interface{}) bool {
		return c.TenantID == types.GetTenantID(ctx) &&
			c.StoreID == storeID &&
			c.IsPrimary &&
			c.Status != types.StatusDeleted
	}

	contacts, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, ierr.NewError("primary contact not found").
			WithHintf("Store %s has no primary contact", storeID).
			Mark(ierr.ErrNotFound)
	}
	return copyContact(contacts[0]), nil
}

func (s *InMemoryContactStore) ClearPrimary(ctx context.Context, storeID string) error {
	filterFn := func(ctx context.Context, c *contact.Contact, _ interface{}) bool {
		return c.TenantID == types.GetTenantID(ctx) &&
			c.StoreID == storeID &&
			c.IsPrimary &&
			c.Status != types.StatusDeleted
	}

	contacts, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return err
	}
	for _, c := range contacts {
		cp := copyContact(c)
		cp.IsPrimary = false
		cp.UpdatedAt = time.Now().UTC()
		if err := s.InMemoryStore.Update(ctx, cp.ID, cp); err != nil {
			return err
		}
	}
	return nil
}

// contactFilterFn implements filtering logic for contacts
func contactFilterFn(ctx context.Context, c *contact.Contact, filter interface{}) bool {
	if c.TenantID != types.GetTenantID(ctx) || c.Status == types.StatusDeleted {
		return false
	}
	f, ok := filter.(*types.ContactFilter)
	if !ok {
		return true
	}
	if f.StoreID != "" && c.StoreID != f.StoreID {
		return false
	}
	return true
}

func contactSortFn(i, j *contact.Contact) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
