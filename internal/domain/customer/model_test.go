package customer

import (
	"strings"
	"testing"

	ierr "github.com/invora/invora/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestCustomerValidate(t *testing.T) {
	tests := []struct {
		name     string
		customer *Customer
		wantErr  bool
	}{
		{
			name: "valid customer",
			customer: &Customer{
				Name:           "Jamie Wong",
				AddressCountry: "US",
			},
		},
		{
			name:     "missing name",
			customer: &Customer{},
			wantErr:  true,
		},
		{
			name: "name too long",
			customer: &Customer{
				Name: strings.Repeat("a", 256),
			},
			wantErr: true,
		},
		{
			name: "country code must be two characters",
			customer: &Customer{
				Name:           "Jamie Wong",
				AddressCountry: "USA",
			},
			wantErr: true,
		},
		{
			name: "empty country is allowed",
			customer: &Customer{
				Name: "Jamie Wong",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.customer.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
