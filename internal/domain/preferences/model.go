package preferences

import (
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
)

// Preferences holds a user's invoice defaults and UI settings
type Preferences struct {
	// ID is the unique identifier for the preferences row
	ID string `db:"id" json:"id"`

	// UserID is the owner of these preferences
	UserID string `db:"user_id" json:"user_id"`

	// Locale is a BCP 47 tag, e.g. en-US
	Locale string `db:"locale" json:"locale"`

	// DateFormat is the display format for dates, e.g. 02/01/2006
	DateFormat string `db:"date_format" json:"date_format"`

	// DefaultCurrency pre-fills new invoices
	DefaultCurrency string `db:"default_currency" json:"default_currency"`

	// DefaultTaxPercent pre-fills new invoices
	DefaultTaxPercent decimal.Decimal `db:"default_tax_percent" json:"default_tax_percent"`

	// DefaultDueInDays sets the due date offset for new invoices
	DefaultDueInDays int `db:"default_due_in_days" json:"default_due_in_days"`

	// InvoiceFooter is free text printed at the bottom of invoices
	InvoiceFooter string `db:"invoice_footer" json:"invoice_footer"`

	// Theme is the UI theme, light or dark
	Theme string `db:"theme" json:"theme"`

	// Version increments on every update, used for sync conflict detection
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// Default returns the preferences used when a user never saved any
func Default(userID string) *Preferences {
	return &Preferences{
		UserID:            userID,
		Locale:            "en-US",
		DateFormat:        "01/02/2006",
		DefaultCurrency:   "USD",
		DefaultTaxPercent: decimal.Zero,
		DefaultDueInDays:  30,
		Theme:             "light",
	}
}

func (p *Preferences) Validate() error {
	if p.UserID == "" {
		return ierr.NewError("user id is required").
			WithHint("Preferences must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if p.DefaultCurrency != "" && len(p.DefaultCurrency) != 3 {
		return ierr.NewError("invalid currency code").
			WithHint("Currency must be a 3 letter ISO 4217 code").
			Mark(ierr.ErrValidation)
	}
	if p.DefaultTaxPercent.IsNegative() || p.DefaultTaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("invalid default tax percent").
			WithHint("Tax percent must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}
	if p.DefaultDueInDays < 0 {
		return ierr.NewError("invalid due in days").
			WithHint("Due in days cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if p.Theme != "" && p.Theme != "light" && p.Theme != "dark" {
		return ierr.NewError("invalid theme").
			WithHint("Theme must be light or dark").
			Mark(ierr.ErrValidation)
	}
	return nil
}
