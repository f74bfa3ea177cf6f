package store

import (
	pdfgen "github.com/invora/invora/internal/domain/pdfgen"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// Store represents a tenant's business profile used on issued invoices
type Store struct {
	// ID is the unique identifier for the store
	ID string `db:"id" json:"id"`

	// Name is the display name of the business
	Name string `db:"name" json:"name"`

	// LegalName is the registered legal name, falls back to Name on invoices
	LegalName string `db:"legal_name" json:"legal_name"`

	// Email is the business contact email printed on invoices
	Email string `db:"email" json:"email"`

	// Phone is the business contact phone
	Phone string `db:"phone" json:"phone"`

	// Website is the business website URL
	Website string `db:"website" json:"website"`

	// LogoURL points to the uploaded logo used for branding
	LogoURL string `db:"logo_url" json:"logo_url"`

	// TaxNumber is the VAT / GST registration number
	TaxNumber string `db:"tax_number" json:"tax_number"`

	// Currency is the default ISO 4217 currency for new invoices
	Currency string `db:"currency" json:"currency"`

	// InvoicePrefix prefixes generated invoice numbers, e.g. INV
	InvoicePrefix string `db:"invoice_prefix" json:"invoice_prefix"`

	// Address fields
	AddressLine1      string `db:"address_line1" json:"address_line1"`
	AddressLine2      string `db:"address_line2" json:"address_line2"`
	AddressCity       string `db:"address_city" json:"address_city"`
	AddressState      string `db:"address_state" json:"address_state"`
	AddressPostalCode string `db:"address_postal_code" json:"address_postal_code"`
	AddressCountry    string `db:"address_country" json:"address_country"`

	// PaymentInstructions is free text printed in the invoice footer
	PaymentInstructions string `db:"payment_instructions" json:"payment_instructions"`

	// Metadata
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// Validate checks field level constraints of the store profile
func (s *Store) Validate() error {
	if s.Name == "" {
		return ierr.NewError("store name is required").
			WithHint("Store name cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if s.Currency != "" && len(s.Currency) != 3 {
		return ierr.NewError("invalid currency code").
			WithHint("Currency must be a 3 letter ISO 4217 code").
			Mark(ierr.ErrValidation)
	}
	if s.AddressCountry != "" && len(s.AddressCountry) != 2 {
		return ierr.NewError("invalid country code format").
			WithHint("Country code must be 2 characters").
			Mark(ierr.ErrValidation)
	}
	if len(s.InvoicePrefix) > 8 {
		return ierr.NewError("invoice prefix too long").
			WithHint("Invoice prefix must be at most 8 characters").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToPdfgenBillerInfo maps the store profile to the PDF biller block
func (s *Store) ToPdfgenBillerInfo() *pdfgen.BillerInfo {
	if s == nil {
		return nil
	}

	name := s.LegalName
	if name == "" {
		name = s.Name
	}

	result := &pdfgen.BillerInfo{
		Name:                name,
		Email:               s.Email,
		Website:             s.Website,
		PaymentInstructions: s.PaymentInstructions,
		Address: pdfgen.AddressInfo{
			Street:     "--",
			City:       "--",
			PostalCode: "--",
		},
	}

	if s.AddressLine1 != "" {
		result.Address.Street = s.AddressLine1
	}
	if s.AddressLine2 != "" {
		result.Address.Street += "\n" + s.AddressLine2
	}
	if s.AddressCity != "" {
		result.Address.City = s.AddressCity
	}
	if s.AddressState != "" {
		result.Address.State = s.AddressState
	}
	if s.AddressPostalCode != "" {
		result.Address.PostalCode = s.AddressPostalCode
	}
	if s.AddressCountry != "" {
		result.Address.Country = s.AddressCountry
	}

	return result
}
