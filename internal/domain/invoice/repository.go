package invoice

import (
	"context"
	"time"

	"github.com/invora/invora/internal/types"
)

// Repository defines the interface for invoice data access
type Repository interface {
	// Create persists the invoice together with its line items
	Create(ctx context.Context, invoice *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	// GetByIdempotencyKey returns the invoice a retried create already
	// persisted, or a not found error
	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
	// Update persists invoice fields and replaces the line items. It fails
	// with a version conflict when the stored version differs.
	Update(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, id string) error

	// CountCreatedInPeriod counts invoices created for the tenant in the
	// given window, used for monthly plan limit checks
	CountCreatedInPeriod(ctx context.Context, start, end time.Time) (int, error)

	// ArchiveBeyondRetention marks all but the newest keep invoices archived
	// and returns how many rows changed. Used for free-plan history caps.
	ArchiveBeyondRetention(ctx context.Context, keep int) (int, error)
}
