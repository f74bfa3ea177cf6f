package service

import (
	"testing"

	"github.com/invora/invora/internal/api/dto"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/testutil"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type StoreServiceSuite struct {
	testutil.BaseServiceTestSuite
	service StoreService
}

func TestStoreService(t *testing.T) {
	suite.Run(t, new(StoreServiceSuite))
}

func (s *StoreServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewStoreService(testServiceParams(&s.BaseServiceTestSuite))
}

func (s *StoreServiceSuite) TestCreateStore() {
	tests := []struct {
		name    string
		req     dto.CreateStoreRequest
		wantErr bool
	}{
		{
			name: "valid store",
			req: dto.CreateStoreRequest{
				Name:          "Acme Studio",
				Email:         "billing@acme.example",
				Currency:      "USD",
				InvoicePrefix: "ACME",
			},
		},
		{
			name:    "missing name",
			req:     dto.CreateStoreRequest{Currency: "USD"},
			wantErr: true,
		},
		{
			name: "bad currency code",
			req: dto.CreateStoreRequest{
				Name:     "Acme Studio",
				Currency: "DOLLARS",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.CreateStore(s.GetContext(), tt.req)
			if tt.wantErr {
				s.Error(err)
				return
			}
			s.NoError(err)
			s.NotEmpty(resp.ID)
			s.Equal(tt.req.Name, resp.Name)
		})
	}
}

func (s *StoreServiceSuite) TestGetDefaultStore() {
	_, err := s.service.GetDefaultStore(s.GetContext())
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	first, err := s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{Name: "First"})
	s.NoError(err)
	_, err = s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{Name: "Second"})
	s.NoError(err)

	// the oldest store is the default biller profile
	got, err := s.service.GetDefaultStore(s.GetContext())
	s.NoError(err)
	s.Equal(first.ID, got.ID)
}

func (s *StoreServiceSuite) TestListStoresIsTenantScoped() {
	_, err := s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{Name: "Mine"})
	s.NoError(err)

	otherCtx := types.SetTenantID(s.GetContext(), types.GenerateUUID())
	_, err = s.service.CreateStore(otherCtx, dto.CreateStoreRequest{Name: "Theirs"})
	s.NoError(err)

	resp, err := s.service.ListStores(s.GetContext(), &types.StoreFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
	})
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)
	s.Equal("Mine", resp.Items[0].Name)
}

func (s *StoreServiceSuite) TestUpdateStore() {
	created, err := s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{Name: "Acme Studio"})
	s.NoError(err)

	updated, err := s.service.UpdateStore(s.GetContext(), created.ID, dto.UpdateStoreRequest{
		Name:          lo.ToPtr("Acme Studio LLC"),
		InvoicePrefix: lo.ToPtr("ACM"),
	})
	s.NoError(err)
	s.Equal("Acme Studio LLC", updated.Name)
	s.Equal("ACM", updated.InvoicePrefix)
}

func (s *StoreServiceSuite) TestDeleteStore() {
	only, err := s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{Name: "Only"})
	s.NoError(err)

	// the last remaining store cannot go away
	err = s.service.DeleteStore(s.GetContext(), only.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	second, err := s.service.CreateStore(s.GetContext(), dto.CreateStoreRequest{Name: "Second"})
	s.NoError(err)

	s.NoError(s.service.DeleteStore(s.GetContext(), second.ID))

	_, err = s.service.GetStore(s.GetContext(), second.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
