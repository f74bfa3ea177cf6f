package types

import (
	ierr "github.com/invora/invora/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus tracks the lifecycle of an invoice.
// Allowed transitions: draft -> finalized -> (paid | voided)
type InvoiceStatus string

const (
	// InvoiceStatusDraft is an editable invoice that has not been issued yet
	InvoiceStatusDraft InvoiceStatus = "draft"
	// InvoiceStatusFinalized is an issued invoice with an assigned invoice number
	InvoiceStatusFinalized InvoiceStatus = "finalized"
	// InvoiceStatusPaid is a finalized invoice that has been fully paid
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusVoided is a finalized invoice cancelled after issuing
	InvoiceStatusVoided InvoiceStatus = "voided"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusFinalized,
		InvoiceStatusPaid,
		InvoiceStatusVoided,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanTransitionTo reports whether the status transition is allowed
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusFinalized
	case InvoiceStatusFinalized:
		return target == InvoiceStatusPaid || target == InvoiceStatusVoided
	default:
		return false
	}
}

// ExportFormat is the rendering target for invoice exports
type ExportFormat string

const (
	ExportFormatPDF ExportFormat = "pdf"
	// ExportFormatJPEG renders the invoice as a raster image, premium gated
	ExportFormatJPEG ExportFormat = "jpeg"
)

func (f ExportFormat) String() string {
	return string(f)
}

func (f ExportFormat) Validate() error {
	allowed := []ExportFormat{ExportFormatPDF, ExportFormatJPEG}
	if !lo.Contains(allowed, f) {
		return ierr.NewError("invalid export format").
			WithHint("Please provide a valid export format").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
