package dto

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/invora/invora/internal/domain/customer"
	"github.com/invora/invora/internal/types"
)

type CreateCustomerRequest struct {
	StoreID           string            `json:"store_id" validate:"required"`
	ExternalID        string            `json:"external_id" validate:"omitempty,max=255"`
	Name              string            `json:"name" validate:"required,max=255"`
	Email             string            `json:"email" validate:"omitempty,email"`
	Phone             string            `json:"phone" validate:"omitempty,max=32"`
	TaxNumber         string            `json:"tax_number" validate:"omitempty,max=64"`
	AddressLine1      string            `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2      string            `json:"address_line2" validate:"omitempty,max=255"`
	AddressCity       string            `json:"address_city" validate:"omitempty,max=100"`
	AddressState      string            `json:"address_state" validate:"omitempty,max=100"`
	AddressPostalCode string            `json:"address_postal_code" validate:"omitempty,max=20"`
	AddressCountry    string            `json:"address_country" validate:"omitempty,len=2,iso3166_1_alpha2"`
	Notes             string            `json:"notes" validate:"omitempty,max=2000"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type UpdateCustomerRequest struct {
	Name              *string           `json:"name" validate:"omitempty,max=255"`
	Email             *string           `json:"email" validate:"omitempty,email"`
	Phone             *string           `json:"phone" validate:"omitempty,max=32"`
	TaxNumber         *string           `json:"tax_number" validate:"omitempty,max=64"`
	AddressLine1      *string           `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2      *string           `json:"address_line2" validate:"omitempty,max=255"`
	AddressCity       *string           `json:"address_city" validate:"omitempty,max=100"`
	AddressState      *string           `json:"address_state" validate:"omitempty,max=100"`
	AddressPostalCode *string           `json:"address_postal_code" validate:"omitempty,max=20"`
	AddressCountry    *string           `json:"address_country" validate:"omitempty,len=2,iso3166_1_alpha2"`
	Notes             *string           `json:"notes" validate:"omitempty,max=2000"`
	Metadata          map[string]string `json:"metadata,omitempty"`

	// Version is the entity version the client last saw. When set, the
	// update fails with a conflict if the server moved past it.
	Version *int `json:"version"`
}

type CustomerResponse struct {
	*customer.Customer
}

// ListCustomersResponse represents the response for listing customers
type ListCustomersResponse = types.ListResponse[*CustomerResponse]

func (r *CreateCustomerRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *CreateCustomerRequest) ToCustomer(ctx context.Context) *customer.Customer {
	return &customer.Customer{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		StoreID:           r.StoreID,
		ExternalID:        r.ExternalID,
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		TaxNumber:         r.TaxNumber,
		AddressLine1:      r.AddressLine1,
		AddressLine2:      r.AddressLine2,
		AddressCity:       r.AddressCity,
		AddressState:      r.AddressState,
		AddressPostalCode: r.AddressPostalCode,
		AddressCountry:    r.AddressCountry,
		Notes:             r.Notes,
		Metadata:          r.Metadata,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

func (r *UpdateCustomerRequest) Validate() error {
	return validator.New().Struct(r)
}

// Apply copies the set fields onto the customer
func (r *UpdateCustomerRequest) Apply(c *customer.Customer) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.TaxNumber != nil {
		c.TaxNumber = *r.TaxNumber
	}
	if r.AddressLine1 != nil {
		c.AddressLine1 = *r.AddressLine1
	}
	if r.AddressLine2 != nil {
		c.AddressLine2 = *r.AddressLine2
	}
	if r.AddressCity != nil {
		c.AddressCity = *r.AddressCity
	}
	if r.AddressState != nil {
		c.AddressState = *r.AddressState
	}
	if r.AddressPostalCode != nil {
		c.AddressPostalCode = *r.AddressPostalCode
	}
	if r.AddressCountry != nil {
		c.AddressCountry = *r.AddressCountry
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.Metadata != nil {
		c.Metadata = r.Metadata
	}
}
