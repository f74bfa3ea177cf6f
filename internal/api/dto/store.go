package dto

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/invora/invora/internal/domain/store"
	"github.com/invora/invora/internal/types"
)

type CreateStoreRequest struct {
	Name                string            `json:"name" validate:"required,max=255"`
	LegalName           string            `json:"legal_name" validate:"omitempty,max=255"`
	Email               string            `json:"email" validate:"omitempty,email"`
	Phone               string            `json:"phone" validate:"omitempty,max=32"`
	Website             string            `json:"website" validate:"omitempty,url"`
	LogoURL             string            `json:"logo_url" validate:"omitempty,url"`
	TaxNumber           string            `json:"tax_number" validate:"omitempty,max=64"`
	Currency            string            `json:"currency" validate:"omitempty,len=3"`
	InvoicePrefix       string            `json:"invoice_prefix" validate:"omitempty,max=8"`
	AddressLine1        string            `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2        string            `json:"address_line2" validate:"omitempty,max=255"`
	AddressCity         string            `json:"address_city" validate:"omitempty,max=100"`
	AddressState        string            `json:"address_state" validate:"omitempty,max=100"`
	AddressPostalCode   string            `json:"address_postal_code" validate:"omitempty,max=20"`
	AddressCountry      string            `json:"address_country" validate:"omitempty,len=2,iso3166_1_alpha2"`
	PaymentInstructions string            `json:"payment_instructions" validate:"omitempty,max=2000"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

type UpdateStoreRequest struct {
	Name                *string           `json:"name" validate:"omitempty,max=255"`
	LegalName           *string           `json:"legal_name" validate:"omitempty,max=255"`
	Email               *string           `json:"email" validate:"omitempty,email"`
	Phone               *string           `json:"phone" validate:"omitempty,max=32"`
	Website             *string           `json:"website" validate:"omitempty,url"`
	LogoURL             *string           `json:"logo_url" validate:"omitempty,url"`
	TaxNumber           *string           `json:"tax_number" validate:"omitempty,max=64"`
	Currency            *string           `json:"currency" validate:"omitempty,len=3"`
	InvoicePrefix       *string           `json:"invoice_prefix" validate:"omitempty,max=8"`
	AddressLine1        *string           `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2        *string           `json:"address_line2" validate:"omitempty,max=255"`
	AddressCity         *string           `json:"address_city" validate:"omitempty,max=100"`
	AddressState        *string           `json:"address_state" validate:"omitempty,max=100"`
	AddressPostalCode   *string           `json:"address_postal_code" validate:"omitempty,max=20"`
	AddressCountry      *string           `json:"address_country" validate:"omitempty,len=2,iso3166_1_alpha2"`
	PaymentInstructions *string           `json:"payment_instructions" validate:"omitempty,max=2000"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

type StoreResponse struct {
	*store.Store
}

// ListStoresResponse represents the response for listing stores
type ListStoresResponse = types.ListResponse[*StoreResponse]

func (r *CreateStoreRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *CreateStoreRequest) ToStore(ctx context.Context) *store.Store {
	return &store.Store{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STORE),
		Name:                r.Name,
		LegalName:           r.LegalName,
		Email:               r.Email,
		Phone:               r.Phone,
		Website:             r.Website,
		LogoURL:             r.LogoURL,
		TaxNumber:           r.TaxNumber,
		Currency:            r.Currency,
		InvoicePrefix:       r.InvoicePrefix,
		AddressLine1:        r.AddressLine1,
		AddressLine2:        r.AddressLine2,
		AddressCity:         r.AddressCity,
		AddressState:        r.AddressState,
		AddressPostalCode:   r.AddressPostalCode,
		AddressCountry:      r.AddressCountry,
		PaymentInstructions: r.PaymentInstructions,
		Metadata:            r.Metadata,
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
}

func (r *UpdateStoreRequest) Validate() error {
	return validator.New().Struct(r)
}

// Apply copies the set fields onto the store
func (r *UpdateStoreRequest) Apply(s *store.Store) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.LegalName != nil {
		s.LegalName = *r.LegalName
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Phone != nil {
		s.Phone = *r.Phone
	}
	if r.Website != nil {
		s.Website = *r.Website
	}
	if r.LogoURL != nil {
		s.LogoURL = *r.LogoURL
	}
	if r.TaxNumber != nil {
		s.TaxNumber = *r.TaxNumber
	}
	if r.Currency != nil {
		s.Currency = *r.Currency
	}
	if r.InvoicePrefix != nil {
		s.InvoicePrefix = *r.InvoicePrefix
	}
	if r.AddressLine1 != nil {
		s.AddressLine1 = *r.AddressLine1
	}
	if r.AddressLine2 != nil {
		s.AddressLine2 = *r.AddressLine2
	}
	if r.AddressCity != nil {
		s.AddressCity = *r.AddressCity
	}
	if r.AddressState != nil {
		s.AddressState = *r.AddressState
	}
	if r.AddressPostalCode != nil {
		s.AddressPostalCode = *r.AddressPostalCode
	}
	if r.AddressCountry != nil {
		s.AddressCountry = *r.AddressCountry
	}
	if r.PaymentInstructions != nil {
		s.PaymentInstructions = *r.PaymentInstructions
	}
	if r.Metadata != nil {
		s.Metadata = r.Metadata
	}
}
