package invoice

import (
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem represents a single line item in an invoice
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Currency    string          `db:"currency" json:"currency"`
	// SortOrder keeps the client's line ordering stable across syncs
	SortOrder int `db:"sort_order" json:"sort_order"`

	types.BaseModel
}

// Validate validates the invoice line item
func (li *LineItem) Validate() error {
	if li.Description == "" {
		return ierr.NewError("line item description is required").
			WithHint("Line item description cannot be empty").
			Mark(ierr.ErrValidation)
	}

	if li.Quantity.IsNegative() {
		return ierr.NewError("line item quantity must be non negative").
			WithHint("Quantity cannot be negative").
			Mark(ierr.ErrValidation)
	}

	if li.UnitPrice.IsNegative() {
		return ierr.NewError("line item unit price must be non negative").
			WithHint("Unit price cannot be negative").
			Mark(ierr.ErrValidation)
	}

	if li.Amount.IsNegative() {
		return ierr.NewError("line item amount must be non negative").
			WithHint("Amount cannot be negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}
