package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/invora/invora/internal/domain/store"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// InMemoryStoreStore implements store.Repository
type InMemoryStoreStore struct {
	*InMemoryStore[*store.Store]

	mu        sync.Mutex
	sequences map[string]int64
}

// NewInMemoryStoreStore creates a new in-memory store profile store
func NewInMemoryStoreStore() *InMemoryStoreStore {
	return &InMemoryStoreStore{
		InMemoryStore: NewInMemoryStore[*store.Store](),
		sequences:     make(map[string]int64),
	}
}

func copyStore(s *store.Store) *store.Store {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Metadata = lo.Assign(map[string]string{}, s.Metadata)
	return &cp
}

func (s *InMemoryStoreStore) Create(ctx context.Context, st *store.Store) error {
	return s.InMemoryStore.Create(ctx, st.ID, copyStore(st))
}

func (s *InMemoryStoreStore) Get(ctx context.Context, id string) (*store.Store, error) {
	st, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || st.TenantID != types.GetTenantID(ctx) || st.Status == types.StatusDeleted {
		return nil, ierr.NewError("store not found").
			WithHintf("Store with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyStore(st), nil
}

func (s *InMemoryStoreStore) GetDefault(ctx context.Context) (*store.Store, error) {
	filterFn := func(ctx context.Context, st *store.Store, _ interface{}) bool {
		return st.TenantID == types.GetTenantID(ctx) && st.Status == types.StatusPublished
	}
	sortFn := func(i, j *store.Store) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	}

	stores, err := s.InMemoryStore.List(ctx, nil, filterFn, sortFn)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, ierr.NewError("store profile not found").
			WithHint("Create a store profile before issuing invoices").
			Mark(ierr.ErrNotFound)
	}
	return copyStore(stores[0]), nil
}

func (s *InMemoryStoreStore) List(ctx context.Context, filter *types.StoreFilter) ([]*store.Store, error) {
	items, err := s.InMemoryStore.List(ctx, filter, storeFilterFn, storeSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(st *store.Store, _ int) *store.Store {
		return copyStore(st)
	}), nil
}

func (s *InMemoryStoreStore) Count(ctx context.Context, filter *types.StoreFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, storeFilterFn)
}

func (s *InMemoryStoreStore) Update(ctx context.Context, st *store.Store) error {
	st.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, st.ID, copyStore(st))
}

func (s *InMemoryStoreStore) Delete(ctx context.Context, id string) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	st.Status = types.StatusDeleted
	st.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, st)
}

func (s *InMemoryStoreStore) NextInvoiceSequence(ctx context.Context, storeID string, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s:%d", storeID, year)
	s.sequences[key]++
	return s.sequences[key], nil
}

func (s *InMemoryStoreStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	s.sequences = make(map[string]int64)
	s.mu.Unlock()
}

// storeFilterFn implements filtering logic for store listings.
// An empty filter tenant ID means admin cross tenant listing.
func storeFilterFn(ctx context.Context, st *store.Store, filter interface{}) bool {
	f, ok := filter.(*types.StoreFilter)
	if !ok {
		return true
	}
	if st.Status == types.StatusDeleted {
		return false
	}
	if f.TenantID != "" && st.TenantID != f.TenantID {
		return false
	}
	return true
}

func storeSortFn(i, j *store.Store) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
