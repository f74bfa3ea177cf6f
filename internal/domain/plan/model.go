package plan

import (
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
)

// Plan represents a subscription tier and its entitlements
type Plan struct {
	// ID is the unique identifier for the plan
	ID string `db:"id" json:"id"`

	// LookupKey identifies the tier, e.g. free or premium
	LookupKey types.PlanLookupKey `db:"lookup_key" json:"lookup_key"`

	// DisplayName is the tier name shown to users
	DisplayName string `db:"display_name" json:"display_name"`

	// MonthlyInvoiceLimit caps invoice creation per calendar month,
	// 0 means unlimited
	MonthlyInvoiceLimit int `db:"monthly_invoice_limit" json:"monthly_invoice_limit"`

	// HistoryRetentionLimit caps visible invoice history length,
	// 0 means unlimited
	HistoryRetentionLimit int `db:"history_retention_limit" json:"history_retention_limit"`

	// Feature flags
	JPEGExport       bool `db:"jpeg_export" json:"jpeg_export"`
	CustomBranding   bool `db:"custom_branding" json:"custom_branding"`
	MultipleContacts bool `db:"multiple_contacts" json:"multiple_contacts"`

	// MonthlyPrice is the plan's price used on the pricing page
	MonthlyPrice decimal.Decimal `db:"monthly_price" json:"monthly_price"`

	// Currency of MonthlyPrice
	Currency string `db:"currency" json:"currency"`

	// ProviderPriceID is the payment provider's price identifier used at checkout
	ProviderPriceID string `db:"provider_price_id" json:"provider_price_id"`

	types.BaseModel
}

// HasFeature reports whether the plan grants the given feature
func (p *Plan) HasFeature(key types.FeatureKey) bool {
	switch key {
	case types.FeatureJPEGExport:
		return p.JPEGExport
	case types.FeatureCustomBranding:
		return p.CustomBranding
	case types.FeatureMultipleContacts:
		return p.MultipleContacts
	default:
		return false
	}
}

func (p *Plan) Validate() error {
	if p.LookupKey == "" {
		return ierr.NewError("plan lookup key is required").
			WithHint("Plan lookup key cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if p.MonthlyInvoiceLimit < 0 {
		return ierr.NewError("invalid monthly invoice limit").
			WithHint("Monthly invoice limit cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if p.HistoryRetentionLimit < 0 {
		return ierr.NewError("invalid history retention limit").
			WithHint("History retention limit cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if p.MonthlyPrice.IsNegative() {
		return ierr.NewError("invalid monthly price").
			WithHint("Monthly price cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
