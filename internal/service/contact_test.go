package service

import (
	"testing"
	"time"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/plan"
	"github.com/invora/invora/internal/domain/store"
	"github.com/invora/invora/internal/domain/subscription"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/testutil"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ContactServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    ContactService
	subService SubscriptionService
	testData   struct {
		store *store.Store
	}
}

func TestContactService(t *testing.T) {
	suite.Run(t, new(ContactServiceSuite))
}

func (s *ContactServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.service = NewContactService(params)
	s.subService = NewSubscriptionService(params)
	s.setupTestData()
}

func (s *ContactServiceSuite) setupTestData() {
	s.testData.store = &store.Store{
		ID:        "store_123",
		Name:      "Acme Studio",
		Currency:  "USD",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StoreRepo.Create(s.GetContext(), s.testData.store))

	plans := []*plan.Plan{
		{
			ID:           "plan_free",
			LookupKey:    types.PlanLookupKeyFree,
			DisplayName:  "Free",
			MonthlyPrice: decimal.Zero,
			Currency:     "USD",
			BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
		},
		{
			ID:               "plan_premium",
			LookupKey:        types.PlanLookupKeyPremium,
			DisplayName:      "Premium",
			JPEGExport:       true,
			CustomBranding:   true,
			MultipleContacts: true,
			MonthlyPrice:     decimal.NewFromFloat(9.99),
			Currency:         "USD",
			BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
		},
	}
	for _, p := range plans {
		s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), p))
	}
}

func (s *ContactServiceSuite) subscribeToPremium() {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:                 "sub_123",
		PlanID:             "plan_premium",
		SubscriptionStatus: types.SubscriptionStatusActive,
		CurrentPeriodStart: now.Add(-24 * time.Hour),
		CurrentPeriodEnd:   now.Add(29 * 24 * time.Hour),
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), sub))
	s.subService.InvalidateEntitlements(s.GetContext(), types.GetTenantID(s.GetContext()))
}

func (s *ContactServiceSuite) TestCreateContact() {
	resp, err := s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID:   s.testData.store.ID,
		Name:      "Dana Fields",
		Email:     "dana@example.com",
		Role:      "Accounting",
		IsPrimary: true,
	})
	s.NoError(err)
	s.NotEmpty(resp.ID)
	s.True(resp.IsPrimary)

	_, err = s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID: "store_missing",
		Name:    "Nobody",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ContactServiceSuite) TestContactLimitOnFreeTier() {
	_, err := s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID: s.testData.store.ID,
		Name:    "First Contact",
	})
	s.NoError(err)

	// the free plan allows a single contact per store
	_, err = s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID: s.testData.store.ID,
		Name:    "Second Contact",
	})
	s.Error(err)
	s.True(ierr.IsTierLimitExceeded(err))

	s.subscribeToPremium()

	_, err = s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID: s.testData.store.ID,
		Name:    "Second Contact",
	})
	s.NoError(err)
}

func (s *ContactServiceSuite) TestPrimaryContactUniqueness() {
	s.subscribeToPremium()

	first, err := s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID:   s.testData.store.ID,
		Name:      "Dana Fields",
		IsPrimary: true,
	})
	s.NoError(err)

	// creating a new primary demotes the previous one
	second, err := s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID:   s.testData.store.ID,
		Name:      "Robin Yu",
		IsPrimary: true,
	})
	s.NoError(err)
	s.True(second.IsPrimary)

	got, err := s.service.GetContact(s.GetContext(), first.ID)
	s.NoError(err)
	s.False(got.IsPrimary)

	// promoting through update demotes the current primary too
	_, err = s.service.UpdateContact(s.GetContext(), first.ID, dto.UpdateContactRequest{
		IsPrimary: lo.ToPtr(true),
	})
	s.NoError(err)

	got, err = s.service.GetContact(s.GetContext(), second.ID)
	s.NoError(err)
	s.False(got.IsPrimary)
}

func (s *ContactServiceSuite) TestListContacts() {
	s.subscribeToPremium()

	for _, name := range []string{"Dana Fields", "Robin Yu"} {
		_, err := s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
			StoreID: s.testData.store.ID,
			Name:    name,
		})
		s.NoError(err)
	}

	resp, err := s.service.ListContacts(s.GetContext(), &types.ContactFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		StoreID:     s.testData.store.ID,
	})
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)
}

func (s *ContactServiceSuite) TestDeleteContact() {
	created, err := s.service.CreateContact(s.GetContext(), dto.CreateContactRequest{
		StoreID: s.testData.store.ID,
		Name:    "Dana Fields",
	})
	s.NoError(err)

	s.NoError(s.service.DeleteContact(s.GetContext(), created.ID))

	_, err = s.service.GetContact(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
