package service

import (
	"encoding/hex"
	"encoding/json"
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
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    PaymentService
	subService SubscriptionService
	testData   struct {
		freePlan    *plan.Plan
		premiumPlan *plan.Plan
	}
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.GetConfig().Stripe.WebhookSecret = testWebhookSecret
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.service = NewPaymentService(params)
	s.subService = NewSubscriptionService(params)
	s.setupTestData()
}

func (s *PaymentServiceSuite) setupTestData() {
	s.testData.freePlan = &plan.Plan{
		ID:                    "plan_free",
		LookupKey:             types.PlanLookupKeyFree,
		DisplayName:           "Free",
		MonthlyInvoiceLimit:   3,
		HistoryRetentionLimit: 2,
		MonthlyPrice:          decimal.Zero,
		Currency:              "USD",
		ProviderPriceID:       "price_free_monthly",
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

// signedRequest wraps the object in a provider event envelope and signs it
// the way the provider does
func (s *PaymentServiceSuite) signedRequest(eventID, eventType string, object interface{}) ([]byte, string) {
	raw, err := json.Marshal(object)
	s.Require().NoError(err)

	payload, err := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": eventType,
		"data": map[string]interface{}{"object": json.RawMessage(raw)},
	})
	s.Require().NoError(err)

	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
	return payload, header
}

func (s *PaymentServiceSuite) seedSubscription(providerSubID string) *subscription.Subscription {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:                     "sub_123",
		PlanID:                 s.testData.premiumPlan.ID,
		SubscriptionStatus:     types.SubscriptionStatusActive,
		CurrentPeriodStart:     now.Add(-24 * time.Hour),
		CurrentPeriodEnd:       now.Add(29 * 24 * time.Hour),
		ProviderCustomerID:     "cus_provider_123",
		ProviderSubscriptionID: providerSubID,
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *PaymentServiceSuite) TestRejectsInvalidSignature() {
	payload, _ := s.signedRequest("evt_1", "checkout.session.completed", map[string]interface{}{})

	err := s.service.HandleProviderEvent(s.GetContext(), payload, "t=12345,v1=deadbeef")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestCheckoutCompleted() {
	tenantID := types.GetTenantID(s.GetContext())
	payload, header := s.signedRequest("evt_1", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_1",
		"client_reference_id": tenantID,
		"customer":            "cus_provider_1",
		"subscription":        "sub_provider_1",
		"metadata":            map[string]string{"plan_lookup_key": "premium"},
	})

	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	sub, err := s.GetStores().SubRepo.GetCurrent(s.GetContext())
	s.NoError(err)
	s.Equal(s.testData.premiumPlan.ID, sub.PlanID)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
	s.Equal("cus_provider_1", sub.ProviderCustomerID)
	s.Equal("sub_provider_1", sub.ProviderSubscriptionID)
	s.Equal(tenantID, sub.TenantID)

	// tier changes notify the tenant's webhook consumers
	messages := s.GetPubSub().GetMessages(types.WebhookTopic)
	s.Require().Len(messages, 1)
}

func (s *PaymentServiceSuite) TestCheckoutWithoutTenantReference() {
	payload, header := s.signedRequest("evt_1", "checkout.session.completed", map[string]interface{}{
		"id":           "cs_1",
		"subscription": "sub_provider_1",
	})

	err := s.service.HandleProviderEvent(s.GetContext(), payload, header)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestEventDeduplication() {
	tenantID := types.GetTenantID(s.GetContext())
	session := map[string]interface{}{
		"id":                  "cs_1",
		"client_reference_id": tenantID,
		"customer":            "cus_provider_1",
		"subscription":        "sub_provider_1",
	}

	payload, header := s.signedRequest("evt_1", "checkout.session.completed", session)
	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	// the provider retries deliveries, the same event ID is a no-op
	payload, header = s.signedRequest("evt_1", "checkout.session.completed", session)
	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	// a fresh event for an already tracked subscription is also a no-op
	payload, header = s.signedRequest("evt_2", "checkout.session.completed", session)
	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	subs, err := s.GetStores().SubRepo.List(s.GetContext(), &types.SubscriptionFilter{
		QueryFilter: *types.NewNoLimitQueryFilter(),
		TenantID:    tenantID,
	})
	s.NoError(err)
	s.Len(subs, 1)
}

func (s *PaymentServiceSuite) TestSubscriptionUpdated() {
	s.seedSubscription("sub_provider_1")

	periodStart := time.Now().UTC().Truncate(time.Second)
	periodEnd := periodStart.Add(30 * 24 * time.Hour)
	payload, header := s.signedRequest("evt_1", "customer.subscription.updated", map[string]interface{}{
		"id":                   "sub_provider_1",
		"status":               "past_due",
		"cancel_at_period_end": true,
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"current_period_start": periodStart.Unix(),
					"current_period_end":   periodEnd.Unix(),
					"price":                map[string]interface{}{"id": "price_premium_monthly"},
				},
			},
		},
	})

	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	sub, err := s.GetStores().SubRepo.GetCurrent(s.GetContext())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, sub.SubscriptionStatus)
	s.True(sub.CancelAtPeriodEnd)
	s.Equal(periodStart.Unix(), sub.CurrentPeriodStart.Unix())
	s.Equal(periodEnd.Unix(), sub.CurrentPeriodEnd.Unix())

	// a past due subscription no longer entitles
	p, err := s.subService.ResolveCurrentPlan(s.GetContext())
	s.NoError(err)
	s.Equal(types.PlanLookupKeyFree, p.LookupKey)
}

func (s *PaymentServiceSuite) TestSubscriptionUpdatedUnknownSubscription() {
	payload, header := s.signedRequest("evt_1", "customer.subscription.updated", map[string]interface{}{
		"id":     "sub_provider_unknown",
		"status": "active",
	})

	// update events can race the checkout handler, nothing to do yet
	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))
}

func (s *PaymentServiceSuite) TestSubscriptionDeleted() {
	s.seedSubscription("sub_provider_1")

	payload, header := s.signedRequest("evt_1", "customer.subscription.deleted", map[string]interface{}{
		"id":     "sub_provider_1",
		"status": "canceled",
	})

	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	sub, err := s.GetStores().SubRepo.GetCurrent(s.GetContext())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, sub.SubscriptionStatus)
	s.NotNil(sub.CanceledAt)

	p, err := s.subService.ResolveCurrentPlan(s.GetContext())
	s.NoError(err)
	s.Equal(types.PlanLookupKeyFree, p.LookupKey)
}

func (s *PaymentServiceSuite) TestPaymentFailed() {
	s.seedSubscription("sub_provider_1")

	payload, header := s.signedRequest("evt_1", "invoice.payment_failed", map[string]interface{}{
		"subscription": "sub_provider_1",
	})

	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	sub, err := s.GetStores().SubRepo.GetCurrent(s.GetContext())
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, sub.SubscriptionStatus)
}

func (s *PaymentServiceSuite) TestIgnoresUnhandledEvents() {
	payload, header := s.signedRequest("evt_1", "customer.created", map[string]interface{}{
		"id": "cus_provider_1",
	})
	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))
}

func (s *PaymentServiceSuite) TestDowngradeArchivesHistory() {
	s.seedSubscription("sub_provider_1")

	// four finalized invoices on record, spaced so ordering is stable
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		number := fmt.Sprintf("INV-2026-%05d", i+1)
		inv := &invoice.Invoice{
			ID:            fmt.Sprintf("inv_%d", i),
			StoreID:       "store_123",
			CustomerID:    "cust_123",
			InvoiceNumber: &number,
			InvoiceStatus: types.InvoiceStatusFinalized,
			Currency:      "USD",
			IssueDate:     base.Add(time.Duration(i) * time.Minute),
			Version:       1,
			BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
		}
		inv.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), inv))
	}

	// the provider reports the tenant moved to the free price
	payload, header := s.signedRequest("evt_1", "customer.subscription.updated", map[string]interface{}{
		"id":     "sub_provider_1",
		"status": "active",
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{"price": map[string]interface{}{"id": "price_free_monthly"}},
			},
		},
	})
	s.NoError(s.service.HandleProviderEvent(s.GetContext(), payload, header))

	sub, err := s.GetStores().SubRepo.GetCurrent(s.GetContext())
	s.NoError(err)
	s.Equal(s.testData.freePlan.ID, sub.PlanID)

	// only the newest invoices within the free retention stay visible
	visible, err := s.GetStores().InvoiceRepo.List(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: *types.NewNoLimitQueryFilter(),
	})
	s.NoError(err)
	s.Len(visible, 2)

	all, err := s.GetStores().InvoiceRepo.List(s.GetContext(), &types.InvoiceFilter{
		QueryFilter:     *types.NewNoLimitQueryFilter(),
		IncludeArchived: true,
	})
	s.NoError(err)
	s.Len(all, 4)
}
