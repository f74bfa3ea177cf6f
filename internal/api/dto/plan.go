package dto

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/invora/invora/internal/domain/plan"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	LookupKey             types.PlanLookupKey `json:"lookup_key" validate:"required"`
	DisplayName           string              `json:"display_name" validate:"required,max=255"`
	MonthlyInvoiceLimit   int                 `json:"monthly_invoice_limit" validate:"min=0"`
	HistoryRetentionLimit int                 `json:"history_retention_limit" validate:"min=0"`
	JPEGExport            bool                `json:"jpeg_export"`
	CustomBranding        bool                `json:"custom_branding"`
	MultipleContacts      bool                `json:"multiple_contacts"`
	MonthlyPrice          decimal.Decimal     `json:"monthly_price"`
	Currency              string              `json:"currency" validate:"omitempty,len=3"`
	ProviderPriceID       string              `json:"provider_price_id"`
}

type UpdatePlanRequest struct {
	DisplayName           *string          `json:"display_name" validate:"omitempty,max=255"`
	MonthlyInvoiceLimit   *int             `json:"monthly_invoice_limit" validate:"omitempty,min=0"`
	HistoryRetentionLimit *int             `json:"history_retention_limit" validate:"omitempty,min=0"`
	JPEGExport            *bool            `json:"jpeg_export"`
	CustomBranding        *bool            `json:"custom_branding"`
	MultipleContacts      *bool            `json:"multiple_contacts"`
	MonthlyPrice          *decimal.Decimal `json:"monthly_price"`
	Currency              *string          `json:"currency" validate:"omitempty,len=3"`
	ProviderPriceID       *string          `json:"provider_price_id"`
}

type PlanResponse struct {
	*plan.Plan
}

// ListPlansResponse represents the response for listing plans
type ListPlansResponse = types.ListResponse[*PlanResponse]

func (r *CreatePlanRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return err
	}
	return r.LookupKey.Validate()
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	return &plan.Plan{
		ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		LookupKey:             r.LookupKey,
		DisplayName:           r.DisplayName,
		MonthlyInvoiceLimit:   r.MonthlyInvoiceLimit,
		HistoryRetentionLimit: r.HistoryRetentionLimit,
		JPEGExport:            r.JPEGExport,
		CustomBranding:        r.CustomBranding,
		MultipleContacts:      r.MultipleContacts,
		MonthlyPrice:          r.MonthlyPrice,
		Currency:              r.Currency,
		ProviderPriceID:       r.ProviderPriceID,
		BaseModel:             types.GetDefaultBaseModel(ctx),
	}
}

func (r *UpdatePlanRequest) Validate() error {
	return validator.New().Struct(r)
}

// Apply copies the set fields onto the plan
func (r *UpdatePlanRequest) Apply(p *plan.Plan) {
	if r.DisplayName != nil {
		p.DisplayName = *r.DisplayName
	}
	if r.MonthlyInvoiceLimit != nil {
		p.MonthlyInvoiceLimit = *r.MonthlyInvoiceLimit
	}
	if r.HistoryRetentionLimit != nil {
		p.HistoryRetentionLimit = *r.HistoryRetentionLimit
	}
	if r.JPEGExport != nil {
		p.JPEGExport = *r.JPEGExport
	}
	if r.CustomBranding != nil {
		p.CustomBranding = *r.CustomBranding
	}
	if r.MultipleContacts != nil {
		p.MultipleContacts = *r.MultipleContacts
	}
	if r.MonthlyPrice != nil {
		p.MonthlyPrice = *r.MonthlyPrice
	}
	if r.Currency != nil {
		p.Currency = *r.Currency
	}
	if r.ProviderPriceID != nil {
		p.ProviderPriceID = *r.ProviderPriceID
	}
}
