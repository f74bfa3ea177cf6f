package invoice

import (
	"time"

	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model
type Invoice struct {
	ID              string              `db:"id" json:"id"`
	StoreID         string              `db:"store_id" json:"store_id"`
	CustomerID      string              `db:"customer_id" json:"customer_id"`
	InvoiceNumber   *string             `db:"invoice_number" json:"invoice_number"`
	InvoiceStatus   types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	Currency        string              `db:"currency" json:"currency"`
	IssueDate       time.Time           `db:"issue_date" json:"issue_date"`
	DueDate         *time.Time          `db:"due_date" json:"due_date,omitempty"`
	Subtotal        decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TaxPercent      decimal.Decimal     `db:"tax_percent" json:"tax_percent"`
	TaxAmount       decimal.Decimal     `db:"tax_amount" json:"tax_amount"`
	Total           decimal.Decimal     `db:"total" json:"total"`
	AmountPaid      decimal.Decimal     `db:"amount_paid" json:"amount_paid"`
	AmountRemaining decimal.Decimal     `db:"amount_remaining" json:"amount_remaining"`
	Notes           string              `db:"notes" json:"notes,omitempty"`
	PaidAt          *time.Time          `db:"paid_at" json:"paid_at,omitempty"`
	VoidedAt        *time.Time          `db:"voided_at" json:"voided_at,omitempty"`
	FinalizedAt     *time.Time          `db:"finalized_at" json:"finalized_at,omitempty"`
	PDFURL          *string             `db:"pdf_url" json:"pdf_url,omitempty"`
	IdempotencyKey  *string             `db:"idempotency_key" json:"idempotency_key,omitempty"`
	Metadata        types.Metadata      `db:"metadata" json:"metadata,omitempty"`
	LineItems       []*LineItem         `db:"-" json:"line_items,omitempty"`

	// Version increments on every update, used for optimistic locking and
	// sync conflict detection
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// Recalculate derives subtotal, tax and totals from the line items.
// amount_remaining is kept consistent with amount_paid.
func (i *Invoice) Recalculate() {
	subtotal := decimal.Zero
	for _, item := range i.LineItems {
		item.Amount = item.Quantity.Mul(item.UnitPrice).Round(2)
		subtotal = subtotal.Add(item.Amount)
	}
	i.Subtotal = subtotal
	i.TaxAmount = subtotal.Mul(i.TaxPercent).Div(decimal.NewFromInt(100)).Round(2)
	i.Total = i.Subtotal.Add(i.TaxAmount)
	i.AmountRemaining = i.Total.Sub(i.AmountPaid)
}

// GetRemainingAmount returns total minus what has been paid
func (i *Invoice) GetRemainingAmount() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

// IsEditable reports whether invoice contents may still change
func (i *Invoice) IsEditable() bool {
	return i.InvoiceStatus == types.InvoiceStatusDraft
}

func (i *Invoice) Validate() error {
	if i.CustomerID == "" {
		return ierr.NewError("customer id is required").
			WithHint("Invoice must reference a customer").
			Mark(ierr.ErrValidation)
	}

	if len(i.Currency) != 3 {
		return ierr.NewError("invalid currency code").
			WithHint("Currency must be a 3 letter ISO 4217 code").
			Mark(ierr.ErrValidation)
	}

	if i.TaxPercent.IsNegative() || i.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("invalid tax percent").
			WithHint("Tax percent must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}

	if i.Total.IsNegative() {
		return ierr.NewError("total must be non negative").
			WithHint("Invoice total cannot be negative").
			Mark(ierr.ErrValidation)
	}

	if i.AmountPaid.IsNegative() {
		return ierr.NewError("amount_paid must be non negative").
			WithHint("Amount paid cannot be negative").
			Mark(ierr.ErrValidation)
	}

	if i.AmountPaid.GreaterThan(i.Total) {
		return ierr.NewError("amount_paid exceeds total").
			WithHint("Amount paid must be less than or equal to the invoice total").
			Mark(ierr.ErrValidation)
	}

	if !i.AmountPaid.Add(i.AmountRemaining).Equal(i.Total) {
		return ierr.NewError("inconsistent amounts").
			WithHint("Amount remaining must equal total minus amount paid").
			Mark(ierr.ErrValidation)
	}

	if i.DueDate != nil && i.DueDate.Before(i.IssueDate) {
		return ierr.NewError("due date before issue date").
			WithHint("Due date must not be before the issue date").
			Mark(ierr.ErrValidation)
	}

	for _, item := range i.LineItems {
		if item.Currency != i.Currency {
			return ierr.NewError("line item currency mismatch").
				WithHint("All line items must use the invoice currency").
				Mark(ierr.ErrValidation)
		}
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}
