package contact

import (
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// Contact represents a person attached to a store profile
type Contact struct {
	// ID is the unique identifier for the contact
	ID string `db:"id" json:"id"`

	// StoreID is the store this contact belongs to
	StoreID string `db:"store_id" json:"store_id"`

	// Name is the contact's full name
	Name string `db:"name" json:"name"`

	// Email is the contact's email
	Email string `db:"email" json:"email"`

	// Phone is the contact's phone number
	Phone string `db:"phone" json:"phone"`

	// Role is a free-form label, e.g. "Accounting"
	Role string `db:"role" json:"role"`

	// IsPrimary marks the store's single primary contact
	IsPrimary bool `db:"is_primary" json:"is_primary"`

	types.BaseModel
}

func (c *Contact) Validate() error {
	if c.StoreID == "" {
		return ierr.NewError("store id is required").
			WithHint("Contact must belong to a store").
			Mark(ierr.ErrValidation)
	}
	if c.Name == "" {
		return ierr.NewError("contact name is required").
			WithHint("Contact name cannot be empty").
			Mark(ierr.ErrValidation)
	}
	return nil
}
