package dto

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/invora/invora/internal/domain/preferences"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
)

type UpdatePreferencesRequest struct {
	Locale            *string          `json:"locale" validate:"omitempty,bcp47_language_tag"`
	DateFormat        *string          `json:"date_format" validate:"omitempty,max=32"`
	DefaultCurrency   *string          `json:"default_currency" validate:"omitempty,len=3"`
	DefaultTaxPercent *decimal.Decimal `json:"default_tax_percent"`
	DefaultDueInDays  *int             `json:"default_due_in_days" validate:"omitempty,min=0"`
	InvoiceFooter     *string          `json:"invoice_footer" validate:"omitempty,max=1000"`
	Theme             *string          `json:"theme" validate:"omitempty,oneof=light dark"`
}

type PreferencesResponse struct {
	*preferences.Preferences
}

func (r *UpdatePreferencesRequest) Validate() error {
	return validator.New().Struct(r)
}

// ToPreferences merges the request onto current, which may be the
// defaults when the user never saved preferences
func (r *UpdatePreferencesRequest) ToPreferences(ctx context.Context, current *preferences.Preferences) *preferences.Preferences {
	prefs := *current
	if prefs.ID == "" {
		prefs.ID = types.GenerateUUID()
		prefs.BaseModel = types.GetDefaultBaseModel(ctx)
	}

	if r.Locale != nil {
		prefs.Locale = *r.Locale
	}
	if r.DateFormat != nil {
		prefs.DateFormat = *r.DateFormat
	}
	if r.DefaultCurrency != nil {
		prefs.DefaultCurrency = *r.DefaultCurrency
	}
	if r.DefaultTaxPercent != nil {
		prefs.DefaultTaxPercent = *r.DefaultTaxPercent
	}
	if r.DefaultDueInDays != nil {
		prefs.DefaultDueInDays = *r.DefaultDueInDays
	}
	if r.InvoiceFooter != nil {
		prefs.InvoiceFooter = *r.InvoiceFooter
	}
	if r.Theme != nil {
		prefs.Theme = *r.Theme
	}

	return &prefs
}
