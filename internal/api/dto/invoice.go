package dto

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invora/invora/internal/domain/invoice"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
)

type CreateInvoiceLineItemRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	SortOrder   int             `json:"sort_order"`
}

type CreateInvoiceRequest struct {
	StoreID    string                         `json:"store_id" validate:"required"`
	CustomerID string                         `json:"customer_id" validate:"required"`
	Currency   string                         `json:"currency" validate:"required,len=3"`
	IssueDate  *time.Time                     `json:"issue_date"`
	DueDate    *time.Time                     `json:"due_date"`
	TaxPercent decimal.Decimal                `json:"tax_percent"`
	Notes      string                         `json:"notes" validate:"omitempty,max=2000"`
	LineItems  []CreateInvoiceLineItemRequest `json:"line_items" validate:"required,min=1,dive"`

	// IdempotencyKey makes retried creates safe, offline clients send one
	// per locally created invoice
	IdempotencyKey *string `json:"idempotency_key"`
}

type UpdateInvoiceRequest struct {
	CustomerID *string                        `json:"customer_id"`
	IssueDate  *time.Time                     `json:"issue_date"`
	DueDate    *time.Time                     `json:"due_date"`
	TaxPercent *decimal.Decimal               `json:"tax_percent"`
	Notes      *string                        `json:"notes" validate:"omitempty,max=2000"`
	LineItems  []CreateInvoiceLineItemRequest `json:"line_items" validate:"omitempty,min=1,dive"`

	// Version is the entity version the client last saw
	Version *int `json:"version"`
}

// MarkInvoicePaidRequest records a payment against a finalized invoice
type MarkInvoicePaidRequest struct {
	// Amount paid, the full remaining amount when omitted
	Amount *decimal.Decimal `json:"amount"`
	PaidAt *time.Time       `json:"paid_at"`
}

type InvoiceResponse struct {
	*invoice.Invoice
}

// ListInvoicesResponse represents the response for listing invoices
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]

// ExportInvoiceResponse carries a rendered invoice document
type ExportInvoiceResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return err
	}

	for _, item := range r.LineItems {
		if item.Quantity.IsNegative() {
			return ierr.NewError("quantity must be non negative").
				WithHint("Line item quantity cannot be negative").
				Mark(ierr.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return ierr.NewError("unit price must be non negative").
				WithHint("Line item unit price cannot be negative").
				Mark(ierr.ErrValidation)
		}
	}

	if r.TaxPercent.IsNegative() || r.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("invalid tax percent").
			WithHint("Tax percent must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context) *invoice.Invoice {
	issueDate := time.Now().UTC()
	if r.IssueDate != nil {
		issueDate = r.IssueDate.UTC()
	}

	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		StoreID:        r.StoreID,
		CustomerID:     r.CustomerID,
		InvoiceStatus:  types.InvoiceStatusDraft,
		Currency:       r.Currency,
		IssueDate:      issueDate,
		DueDate:        r.DueDate,
		TaxPercent:     r.TaxPercent,
		AmountPaid:     decimal.Zero,
		Notes:          r.Notes,
		IdempotencyKey: r.IdempotencyKey,
		Version:        1,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	items := make([]*invoice.LineItem, 0, len(r.LineItems))
	for i, itemReq := range r.LineItems {
		sortOrder := itemReq.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		items = append(items, &invoice.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
			InvoiceID:   inv.ID,
			Description: itemReq.Description,
			Quantity:    itemReq.Quantity,
			UnitPrice:   itemReq.UnitPrice,
			Currency:    r.Currency,
			SortOrder:   sortOrder,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
	}
	inv.LineItems = items
	inv.Recalculate()

	return inv
}

func (r *UpdateInvoiceRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return err
	}
	if r.TaxPercent != nil &&
		(r.TaxPercent.IsNegative() || r.TaxPercent.GreaterThan(decimal.NewFromInt(100))) {
		return ierr.NewError("invalid tax percent").
			WithHint("Tax percent must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *MarkInvoicePaidRequest) Validate() error {
	if r.Amount != nil && !r.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Payment amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}
