package dto

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/invora/invora/internal/domain/contact"
	"github.com/invora/invora/internal/types"
)

type CreateContactRequest struct {
	StoreID   string `json:"store_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=255"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Role      string `json:"role" validate:"omitempty,max=100"`
	IsPrimary bool   `json:"is_primary"`
}

type UpdateContactRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Role      *string `json:"role" validate:"omitempty,max=100"`
	IsPrimary *bool   `json:"is_primary"`
}

type ContactResponse struct {
	*contact.Contact
}

// ListContactsResponse represents the response for listing store contacts
type ListContactsResponse = types.ListResponse[*ContactResponse]

func (r *CreateContactRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *CreateContactRequest) ToContact(ctx context.Context) *contact.Contact {
	return &contact.Contact{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTACT),
		StoreID:   r.StoreID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Role:      r.Role,
		IsPrimary: r.IsPrimary,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

func (r *UpdateContactRequest) Validate() error {
	return validator.New().Struct(r)
}

// Apply copies the set fields onto the contact
func (r *UpdateContactRequest) Apply(c *contact.Contact) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Role != nil {
		c.Role = *r.Role
	}
	if r.IsPrimary != nil {
		c.IsPrimary = *r.IsPrimary
	}
}
