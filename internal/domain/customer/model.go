package customer

import (
	"fmt"

	pdfgen "github.com/invora/invora/internal/domain/pdfgen"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// Customer represents a customer in the system
type Customer struct {
	// ID is the unique identifier for the customer
	ID string `db:"id" json:"id"`

	// StoreID is the store this customer belongs to
	StoreID string `db:"store_id" json:"store_id"`

	// ExternalID is the client-side identifier for the customer, used by
	// offline devices to reference customers created before first sync
	ExternalID string `db:"external_id" json:"external_id"`

	// Name is the name of the customer
	Name string `db:"name" json:"name"`

	// Email is the email of the customer
	Email string `db:"email" json:"email"`

	// Phone is the phone number of the customer
	Phone string `db:"phone" json:"phone"`

	// TaxNumber is the customer's VAT / GST number printed on invoices
	TaxNumber string `db:"tax_number" json:"tax_number"`

	// AddressLine1 is the first line of the customer's address
	AddressLine1 string `db:"address_line1" json:"address_line1"`

	// AddressLine2 is the second line of the customer's address
	AddressLine2 string `db:"address_line2" json:"address_line2"`

	// AddressCity is the city of the customer's address
	AddressCity string `db:"address_city" json:"address_city"`

	// AddressState is the state of the customer's address
	AddressState string `db:"address_state" json:"address_state"`

	// AddressPostalCode is the postal code of the customer's address
	AddressPostalCode string `db:"address_postal_code" json:"address_postal_code"`

	// AddressCountry is the country of the customer's address (ISO 3166-1 alpha-2)
	AddressCountry string `db:"address_country" json:"address_country"`

	// Notes is free text shown only in the back office
	Notes string `db:"notes" json:"notes"`

	// Metadata
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	// Version increments on every update, used for sync conflict detection
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// ValidateAddressCountry validates the country code format
func ValidateAddressCountry(country string) bool {
	if country == "" {
		return true
	}
	return len(country) == 2
}

// ValidateAddressPostalCode validates the postal code format
func ValidateAddressPostalCode(postalCode string, country string) bool {
	if postalCode == "" {
		return true
	}
	return len(postalCode) <= 20
}

// ValidateAddress validates all address fields
func ValidateAddress(c *Customer) error {
	if !ValidateAddressCountry(c.AddressCountry) {
		return ierr.NewError("invalid country code format").
			WithHint("Country code must be 2 characters").
			Mark(ierr.ErrValidation)
	}
	if !ValidateAddressPostalCode(c.AddressPostalCode, c.AddressCountry) {
		return ierr.NewError("invalid postal code format").
			WithHint("Postal code must be less than 20 characters").
			Mark(ierr.ErrValidation)
	}
	if len(c.AddressLine1) > 255 {
		return ierr.NewError("address line 1 too long").
			WithHint("Address line 1 must be less than 255 characters").
			Mark(ierr.ErrValidation)
	}
	if len(c.AddressLine2) > 255 {
		return ierr.NewError("address line 2 too long").
			WithHint("Address line 2 must be less than 255 characters").
			Mark(ierr.ErrValidation)
	}
	if len(c.AddressCity) > 100 {
		return ierr.NewError("city name too long").
			WithHint("City name must be less than 100 characters").
			Mark(ierr.ErrValidation)
	}
	if len(c.AddressState) > 100 {
		return ierr.NewError("state name too long").
			WithHint("State name must be less than 100 characters").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (c *Customer) Validate() error {
	if c.Name == "" {
		return ierr.NewError("customer name is required").
			WithHint("Customer name cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if len(c.Name) > 255 {
		return ierr.NewError("customer name too long").
			WithHint("Customer name must be less than 255 characters").
			Mark(ierr.ErrValidation)
	}
	return ValidateAddress(c)
}

// ToPdfgenRecipientInfo maps a customer to the PDF recipient block
func (c *Customer) ToPdfgenRecipientInfo() *pdfgen.RecipientInfo {
	if c == nil {
		return nil
	}

	name := fmt.Sprintf("Customer %s", c.ID)
	if c.Name != "" {
		name = c.Name
	}

	result := &pdfgen.RecipientInfo{
		Name:  name,
		Email: c.Email,
		Address: pdfgen.AddressInfo{
			Street:     "--",
			City:       "--",
			PostalCode: "--",
		},
	}

	if c.AddressLine1 != "" {
		result.Address.Street = c.AddressLine1
	}
	if c.AddressLine2 != "" {
		result.Address.Street += "\n" + c.AddressLine2
	}
	if c.AddressCity != "" {
		result.Address.City = c.AddressCity
	}
	if c.AddressState != "" {
		result.Address.State = c.AddressState
	}
	if c.AddressPostalCode != "" {
		result.Address.PostalCode = c.AddressPostalCode
	}
	if c.AddressCountry != "" {
		result.Address.Country = c.AddressCountry
	}

	return result
}
