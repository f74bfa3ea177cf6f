package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/invora/invora/internal/domain/invoice"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	cp := *inv
	cp.Metadata = lo.Assign(map[string]string{}, inv.Metadata)
	cp.LineItems = lo.Map(inv.LineItems, func(item *invoice.LineItem, _ int) *invoice.LineItem {
		itemCopy := *item
		return &itemCopy
	})
	return &cp
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || inv.TenantID != types.GetTenantID(ctx) || inv.Status == types.StatusDeleted {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	filterFn := func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.IdempotencyKey != nil && *inv.IdempotencyKey == key &&
			inv.TenantID == types.GetTenantID(ctx) &&
			inv.Status != types.StatusDeleted
	}

	invoices, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, ierr.NewError("invoice not found").
			WithHintf("No invoice recorded for idempotency key %s", key).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(invoices[0]), nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	items, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(inv)
	}), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	stored, err := s.InMemoryStore.Get(ctx, inv.ID)
	if err != nil || stored.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	if stored.Version != inv.Version {
		return ierr.NewError("invoice was modified concurrently").
			WithHint("The invoice was changed by another request, retry with fresh data").
			Mark(ierr.ErrVersionConflict)
	}

	inv.UpdatedAt = time.Now().UTC()
	inv.Version++
	return s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	inv.Status = types.StatusDeleted
	inv.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, inv)
}

func (s *InMemoryInvoiceStore) CountCreatedInPeriod(ctx context.Context, start, end time.Time) (int, error) {
	filterFn := func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.TenantID == types.GetTenantID(ctx) &&
			inv.Status != types.StatusDeleted &&
			!inv.CreatedAt.Before(start) &&
			inv.CreatedAt.Before(end)
	}
	return s.InMemoryStore.Count(ctx, nil, filterFn)
}

func (s *InMemoryInvoiceStore) ArchiveBeyondRetention(ctx context.Context, keep int) (int, error) {
	filterFn := func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.TenantID == types.GetTenantID(ctx) &&
			inv.Status == types.StatusPublished
	}

	invoices, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return 0, err
	}

	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})

	archived := 0
	for i := keep; i < len(invoices); i++ {
		inv := copyInvoice(invoices[i])
		inv.Status = types.StatusArchived
		inv.UpdatedAt = time.Now().UTC()
		if err := s.InMemoryStore.Update(ctx, inv.ID, inv); err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}

// invoiceFilterFn implements filtering logic for invoices
func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	if inv.TenantID != types.GetTenantID(ctx) || inv.Status == types.StatusDeleted {
		return false
	}
	f, ok := filter.(*types.InvoiceFilter)
	if !ok {
		return true
	}
	if !f.IncludeArchived && inv.Status == types.StatusArchived {
		return false
	}
	if f.StoreID != "" && inv.StoreID != f.StoreID {
		return false
	}
	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if f.InvoiceStatus != "" && inv.InvoiceStatus != f.InvoiceStatus {
		return false
	}
	if f.PeriodStart != nil && inv.IssueDate.Before(*f.PeriodStart) {
		return false
	}
	if f.PeriodEnd != nil && !inv.IssueDate.Before(*f.PeriodEnd) {
		return false
	}
	return true
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
