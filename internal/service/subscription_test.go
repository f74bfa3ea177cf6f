package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/invora/invora/internal/domain/invoice"
	"github.com/invora/invora/internal/domain/plan"
	"github.com/invora/invora/internal/domain/subscription"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/testutil"
	"github.com/invora/invora/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionService
	testData struct {
		freePlan    *plan.Plan
		premiumPlan *plan.Plan
	}
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSubscriptionService(testServiceParams(&s.BaseServiceTestSuite))
	s.setupTestData()
}

func (s *SubscriptionServiceSuite) setupTestData() {
	s.testData.freePlan = &plan.Plan{
		ID:                    "plan_free",
		LookupKey:             types.PlanLookupKeyFree,
		DisplayName:           "Free",
		MonthlyInvoiceLimit:   3,
		HistoryRetentionLimit: 5,
		MonthlyPrice:          decimal.Zero,
		Currency:              "USD",
		BaseModel:             types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), s.testData.freePlan))

	s.testData.premiumPlan = &plan.Plan{
		ID:               "plan_premium",
		LookupKey:        types.PlanLookupKeyPremium,
		DisplayName:      "Premium",
		JPEGExport:       true,
		CustomBranding:   true,
		MultipleContacts: true,
		MonthlyPrice:     decimal.NewFromFloat(9.99),
		Currency:         "USD",
		ProviderPriceID:  "price_premium_monthly",
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), s.testData.premiumPlan))
}

func (s *SubscriptionServiceSuite) createSubscription(status types.SubscriptionStatus, periodEnd time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                     "sub_123",
		PlanID:                 s.testData.premiumPlan.ID,
		SubscriptionStatus:     status,
		CurrentPeriodStart:     time.Now().UTC().Add(-24 * time.Hour),
		CurrentPeriodEnd:       periodEnd,
		ProviderCustomerID:     "cus_provider_123",
		ProviderSubscriptionID: "sub_provider_123",
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *SubscriptionServiceSuite) seedInvoice(id string) {
	inv := &invoice.Invoice{
		ID:            id,
		StoreID:       "store_123",
		CustomerID:    "cust_123",
		InvoiceStatus: types.InvoiceStatusDraft,
		Currency:      "USD",
		IssueDate:     time.Now().UTC(),
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), inv))
}

func (s *SubscriptionServiceSuite) TestResolveCurrentPlan() {
	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	past := time.Now().UTC().Add(-24 * time.Hour)

	tests := []struct {
		name      string
		setupFunc func()
		expected  types.PlanLookupKey
	}{
		{
			name:     "no subscription falls back to free",
			expected: types.PlanLookupKeyFree,
		},
		{
			name: "active subscription resolves its plan",
			setupFunc: func() {
				s.createSubscription(types.SubscriptionStatusActive, future)
			},
			expected: types.PlanLookupKeyPremium,
		},
		{
			name: "trialing subscription entitles",
			setupFunc: func() {
				s.createSubscription(types.SubscriptionStatusTrialing, future)
			},
			expected: types.PlanLookupKeyPremium,
		},
		{
			name: "past due subscription falls back to free",
			setupFunc: func() {
				s.createSubscription(types.SubscriptionStatusPastDue, future)
			},
			expected: types.PlanLookupKeyFree,
		},
		{
			name: "canceled subscription falls back to free",
			setupFunc: func() {
				s.createSubscription(types.SubscriptionStatusCanceled, future)
			},
			expected: types.PlanLookupKeyFree,
		},
		{
			name: "lapsed period falls back to free",
			setupFunc: func() {
				s.createSubscription(types.SubscriptionStatusActive, past)
			},
			expected: types.PlanLookupKeyFree,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.GetStores().SubRepo.(*testutil.InMemorySubscriptionStore).Clear()
			s.service.InvalidateEntitlements(s.GetContext(), types.GetTenantID(s.GetContext()))
			if tt.setupFunc != nil {
				tt.setupFunc()
			}

			p, err := s.service.ResolveCurrentPlan(s.GetContext())
			s.NoError(err)
			s.Equal(tt.expected, p.LookupKey)
		})
	}
}

func (s *SubscriptionServiceSuite) TestResolveCurrentPlanCaching() {
	p, err := s.service.ResolveCurrentPlan(s.GetContext())
	s.NoError(err)
	s.Equal(types.PlanLookupKeyFree, p.LookupKey)

	// a new subscription is not visible until the cache is dropped
	s.createSubscription(types.SubscriptionStatusActive, time.Now().UTC().Add(30*24*time.Hour))

	p, err = s.service.ResolveCurrentPlan(s.GetContext())
	s.NoError(err)
	s.Equal(types.PlanLookupKeyFree, p.LookupKey)

	s.service.InvalidateEntitlements(s.GetContext(), types.GetTenantID(s.GetContext()))

	p, err = s.service.ResolveCurrentPlan(s.GetContext())
	s.NoError(err)
	s.Equal(types.PlanLookupKeyPremium, p.LookupKey)
}

func (s *SubscriptionServiceSuite) TestGetCurrentSubscription() {
	_, err := s.service.GetCurrentSubscription(s.GetContext())
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	created := s.createSubscription(types.SubscriptionStatusActive, time.Now().UTC().Add(30*24*time.Hour))

	resp, err := s.service.GetCurrentSubscription(s.GetContext())
	s.NoError(err)
	s.Equal(created.ID, resp.ID)
	s.Require().NotNil(resp.Plan)
	s.Equal(s.testData.premiumPlan.ID, resp.Plan.ID)
}

func (s *SubscriptionServiceSuite) TestGetEntitlements() {
	s.seedInvoice("inv_1")
	s.seedInvoice("inv_2")

	resp, err := s.service.GetEntitlements(s.GetContext())
	s.NoError(err)
	s.Equal(string(types.PlanLookupKeyFree), resp.PlanLookupKey)
	s.Equal(3, resp.MonthlyInvoiceLimit)
	s.Equal(2, resp.MonthlyInvoicesUsed)
	s.False(resp.JPEGExport)
	s.False(resp.CustomBranding)
	s.False(resp.MultipleContacts)
}

func (s *SubscriptionServiceSuite) TestHasFeature() {
	allowed, err := s.service.HasFeature(s.GetContext(), types.FeatureJPEGExport)
	s.NoError(err)
	s.False(allowed)

	s.createSubscription(types.SubscriptionStatusActive, time.Now().UTC().Add(30*24*time.Hour))
	s.service.InvalidateEntitlements(s.GetContext(), types.GetTenantID(s.GetContext()))

	allowed, err = s.service.HasFeature(s.GetContext(), types.FeatureJPEGExport)
	s.NoError(err)
	s.True(allowed)
}

func (s *SubscriptionServiceSuite) TestCheckInvoiceQuota() {
	s.NoError(s.service.CheckInvoiceQuota(s.GetContext()))

	for i := 0; i < 3; i++ {
		s.seedInvoice(fmt.Sprintf("inv_%d", i))
	}

	err := s.service.CheckInvoiceQuota(s.GetContext())
	s.Error(err)
	s.True(ierr.IsTierLimitExceeded(err))

	// a zero limit means unlimited
	s.createSubscription(types.SubscriptionStatusActive, time.Now().UTC().Add(30*24*time.Hour))
	s.service.InvalidateEntitlements(s.GetContext(), types.GetTenantID(s.GetContext()))
	s.NoError(s.service.CheckInvoiceQuota(s.GetContext()))
}

func (s *SubscriptionServiceSuite) TestCancelSubscription() {
	_, err := s.service.CancelSubscription(s.GetContext())
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	s.createSubscription(types.SubscriptionStatusActive, time.Now().UTC().Add(30*24*time.Hour))

	resp, err := s.service.CancelSubscription(s.GetContext())
	s.NoError(err)
	s.True(resp.CancelAtPeriodEnd)

	// access stays until the period closes
	p, err := s.service.ResolveCurrentPlan(s.GetContext())
	s.NoError(err)
	s.Equal(types.PlanLookupKeyPremium, p.LookupKey)
}

func (s *SubscriptionServiceSuite) TestCancelCanceledSubscription() {
	s.createSubscription(types.SubscriptionStatusCanceled, time.Now().UTC().Add(30*24*time.Hour))

	_, err := s.service.CancelSubscription(s.GetContext())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestListPlans() {
	resp, err := s.service.ListPlans(s.GetContext())
	s.NoError(err)
	s.Require().Len(resp.Items, 2)

	// cheapest first for the pricing page
	s.Equal(types.PlanLookupKeyFree, resp.Items[0].LookupKey)
	s.Equal(types.PlanLookupKeyPremium, resp.Items[1].LookupKey)
}
