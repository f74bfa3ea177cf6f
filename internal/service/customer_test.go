package service

import (
	"testing"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/store"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/testutil"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type CustomerServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  CustomerService
	testData struct {
		store *store.Store
	}
}

func TestCustomerService(t *testing.T) {
	suite.Run(t, new(CustomerServiceSuite))
}

func (s *CustomerServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewCustomerService(testServiceParams(&s.BaseServiceTestSuite))
	s.setupTestData()
}

func (s *CustomerServiceSuite) setupTestData() {
	s.testData.store = &store.Store{
		ID:        "store_123",
		Name:      "Acme Studio",
		Currency:  "USD",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StoreRepo.Create(s.GetContext(), s.testData.store))
}

func (s *CustomerServiceSuite) TestCreateCustomer() {
	tests := []struct {
		name    string
		req     dto.CreateCustomerRequest
		wantErr bool
		errType func(error) bool
	}{
		{
			name: "valid customer",
			req: dto.CreateCustomerRequest{
				StoreID:    s.testData.store.ID,
				ExternalID: "ext_1",
				Name:       "Jamie Wong",
				Email:      "jamie@example.com",
			},
		},
		{
			name: "missing name",
			req: dto.CreateCustomerRequest{
				StoreID: s.testData.store.ID,
			},
			wantErr: true,
		},
		{
			name: "unknown store",
			req: dto.CreateCustomerRequest{
				StoreID: "store_missing",
				Name:    "Jamie Wong",
			},
			wantErr: true,
			errType: ierr.IsNotFound,
		},
		{
			name: "duplicate external id",
			req: dto.CreateCustomerRequest{
				StoreID:    s.testData.store.ID,
				ExternalID: "ext_dup",
				Name:       "First",
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.CreateCustomer(s.GetContext(), tt.req)
			if tt.wantErr {
				s.Error(err)
				if tt.errType != nil {
					s.True(tt.errType(err))
				}
				return
			}
			s.NoError(err)
			s.NotEmpty(resp.ID)
			s.Equal(tt.req.Name, resp.Name)
		})
	}

	// re-using a taken external ID is rejected
	_, err := s.service.CreateCustomer(s.GetContext(), dto.CreateCustomerRequest{
		StoreID:    s.testData.store.ID,
		ExternalID: "ext_dup",
		Name:       "Second",
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *CustomerServiceSuite) TestCreateCustomerPublishesWebhook() {
	_, err := s.service.CreateCustomer(s.GetContext(), dto.CreateCustomerRequest{
		StoreID: s.testData.store.ID,
		Name:    "Jamie Wong",
	})
	s.NoError(err)

	messages := s.GetPubSub().GetMessages(types.WebhookTopic)
	s.Len(messages, 1)
}

func (s *CustomerServiceSuite) TestGetCustomerByExternalID() {
	created, err := s.service.CreateCustomer(s.GetContext(), dto.CreateCustomerRequest{
		StoreID:    s.testData.store.ID,
		ExternalID: "ext_42",
		Name:       "Jamie Wong",
	})
	s.NoError(err)

	got, err := s.service.GetCustomerByExternalID(s.GetContext(), "ext_42")
	s.NoError(err)
	s.Equal(created.ID, got.ID)

	_, err = s.service.GetCustomerByExternalID(s.GetContext(), "ext_unknown")
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetCustomerByExternalID(s.GetContext(), "")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CustomerServiceSuite) TestUpdateCustomer() {
	created, err := s.service.CreateCustomer(s.GetContext(), dto.CreateCustomerRequest{
		StoreID: s.testData.store.ID,
		Name:    "Jamie Wong",
	})
	s.NoError(err)

	// a stale client version is rejected with a conflict
	_, err = s.service.UpdateCustomer(s.GetContext(), created.ID, dto.UpdateCustomerRequest{
		Name:    lo.ToPtr("Renamed"),
		Version: lo.ToPtr(created.Version + 5),
	})
	s.Error(err)
	s.True(ierr.IsVersionConflict(err))

	updated, err := s.service.UpdateCustomer(s.GetContext(), created.ID, dto.UpdateCustomerRequest{
		Name:    lo.ToPtr("Renamed"),
		Email:   lo.ToPtr("renamed@example.com"),
		Version: lo.ToPtr(created.Version),
	})
	s.NoError(err)
	s.Equal("Renamed", updated.Name)
	s.Equal("renamed@example.com", updated.Email)
	s.Equal(created.Version+1, updated.Version)
}

func (s *CustomerServiceSuite) TestDeleteCustomer() {
	created, err := s.service.CreateCustomer(s.GetContext(), dto.CreateCustomerRequest{
		StoreID: s.testData.store.ID,
		Name:    "Jamie Wong",
	})
	s.NoError(err)

	s.NoError(s.service.DeleteCustomer(s.GetContext(), created.ID))

	_, err = s.service.GetCustomer(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	err = s.service.DeleteCustomer(s.GetContext(), "cust_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CustomerServiceSuite) TestListCustomers() {
	names := []struct {
		name  string
		email string
	}{
		{"Alice Cooper", "alice@example.com"},
		{"Bob Stone", "bob@example.com"},
		{"Alicia Keys", "alicia@example.com"},
	}
	for _, n := range names {
		_, err := s.service.CreateCustomer(s.GetContext(), dto.CreateCustomerRequest{
			StoreID: s.testData.store.ID,
			Name:    n.name,
			Email:   n.email,
		})
		s.NoError(err)
	}

	resp, err := s.service.ListCustomers(s.GetContext(), &types.CustomerFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
	})
	s.NoError(err)
	s.Equal(3, resp.Pagination.Total)

	resp, err = s.service.ListCustomers(s.GetContext(), &types.CustomerFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		Search:      "alic",
	})
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)
}
