package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/customer"
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

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    InvoiceService
	subService SubscriptionService
	testData   struct {
		store       *store.Store
		customer    *customer.Customer
		freePlan    *plan.Plan
		premiumPlan *plan.Plan
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.service = NewInvoiceService(params)
	s.subService = NewSubscriptionService(params)
	s.setupTestData()
}

func (s *InvoiceServiceSuite) setupTestData() {
	s.testData.store = &store.Store{
		ID:            "store_123",
		Name:          "Acme Studio",
		Currency:      "USD",
		InvoicePrefix: "ACME",
		LogoURL:       "https://cdn.example.com/acme.png",
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StoreRepo.Create(s.GetContext(), s.testData.store))

	s.testData.customer = &customer.Customer{
		ID:        "cust_123",
		StoreID:   s.testData.store.ID,
		Name:      "Jamie Wong",
		Email:     "jamie@example.com",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), s.testData.customer))

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

// subscribeToPremium puts the tenant on the premium plan and drops the
// cached entitlements so the change is visible immediately
func (s *InvoiceServiceSuite) subscribeToPremium() {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:                     "sub_123",
		PlanID:                 s.testData.premiumPlan.ID,
		SubscriptionStatus:     types.SubscriptionStatusActive,
		CurrentPeriodStart:     now.Add(-24 * time.Hour),
		CurrentPeriodEnd:       now.Add(29 * 24 * time.Hour),
		ProviderSubscriptionID: "sub_provider_123",
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), sub))
	s.subService.InvalidateEntitlements(s.GetContext(), types.GetTenantID(s.GetContext()))
}

func (s *InvoiceServiceSuite) createDraftInvoice() *dto.InvoiceResponse {
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		StoreID:    s.testData.store.ID,
		CustomerID: s.testData.customer.ID,
		Currency:   "USD",
		TaxPercent: decimal.NewFromInt(10),
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Design work", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromFloat(19.99)},
		},
	})
	s.NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp := s.createDraftInvoice()

	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Nil(resp.InvoiceNumber)
	s.True(decimal.NewFromFloat(39.98).Equal(resp.Subtotal), "subtotal mismatch: %s", resp.Subtotal)
	s.True(decimal.NewFromFloat(4.00).Equal(resp.TaxAmount), "tax mismatch: %s", resp.TaxAmount)
	s.True(decimal.NewFromFloat(43.98).Equal(resp.Total), "total mismatch: %s", resp.Total)
	s.True(resp.Total.Equal(resp.AmountRemaining))
	s.True(decimal.Zero.Equal(resp.AmountPaid))
	s.Len(resp.LineItems, 1)
	s.Equal(1, resp.Version)

	messages := s.GetPubSub().GetMessages(types.WebhookTopic)
	s.Len(messages, 1)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceValidation() {
	tests := []struct {
		name string
		req  dto.CreateInvoiceRequest
	}{
		{
			name: "no line items",
			req: dto.CreateInvoiceRequest{
				StoreID:    s.testData.store.ID,
				CustomerID: s.testData.customer.ID,
				Currency:   "USD",
			},
		},
		{
			name: "negative quantity",
			req: dto.CreateInvoiceRequest{
				StoreID:    s.testData.store.ID,
				CustomerID: s.testData.customer.ID,
				Currency:   "USD",
				LineItems: []dto.CreateInvoiceLineItemRequest{
					{Description: "Refund", Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(10)},
				},
			},
		},
		{
			name: "tax percent above 100",
			req: dto.CreateInvoiceRequest{
				StoreID:    s.testData.store.ID,
				CustomerID: s.testData.customer.ID,
				Currency:   "USD",
				TaxPercent: decimal.NewFromInt(101),
				LineItems: []dto.CreateInvoiceLineItemRequest{
					{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
				},
			},
		},
		{
			name: "unknown customer",
			req: dto.CreateInvoiceRequest{
				StoreID:    s.testData.store.ID,
				CustomerID: "cust_missing",
				Currency:   "USD",
				LineItems: []dto.CreateInvoiceLineItemRequest{
					{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
				},
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.CreateInvoice(s.GetContext(), tt.req)
			s.Error(err)
		})
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoiceIdempotency() {
	req := dto.CreateInvoiceRequest{
		StoreID:        s.testData.store.ID,
		CustomerID:     s.testData.customer.ID,
		Currency:       "USD",
		IdempotencyKey: lo.ToPtr("device-1:42"),
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		},
	}

	first, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)

	// a retried create with the same key returns the stored invoice
	second, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.Equal(first.ID, second.ID)

	list, err := s.service.ListInvoices(s.GetContext(), nil)
	s.NoError(err)
	s.Equal(1, list.Pagination.Total)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceQuota() {
	// the free plan allows three invoices per month
	for i := 0; i < 3; i++ {
		s.createDraftInvoice()
	}

	_, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		StoreID:    s.testData.store.ID,
		CustomerID: s.testData.customer.ID,
		Currency:   "USD",
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "One too many", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
		},
	})
	s.Error(err)
	s.True(ierr.IsTierLimitExceeded(err))

	// premium lifts the cap
	s.subscribeToPremium()
	_, err = s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		StoreID:    s.testData.store.ID,
		CustomerID: s.testData.customer.ID,
		Currency:   "USD",
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{Description: "Fourth", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
		},
	})
	s.NoError(err)
}

func (s *InvoiceServiceSuite) TestUpdateInvoice() {
	created := s.createDraftInvoice()

	updated, err := s.service.UpdateInvoice(s.GetContext(), created.ID, dto.UpdateInvoiceRequest{
		TaxPercent: lo.ToPtr(decimal.Zero),
		Notes:      lo.ToPtr("Net 30"),
		Version:    lo.ToPtr(created.Version),
	})
	s.NoError(err)
	s.Equal("Net 30", updated.Notes)
	s.True(updated.Subtotal.Equal(updated.Total))
	s.Equal(created.Version+1, updated.Version)

	// a stale version is rejected
	_, err = s.service.UpdateInvoice(s.GetContext(), created.ID, dto.UpdateInvoiceRequest{
		Notes:   lo.ToPtr("stale"),
		Version: lo.ToPtr(created.Version),
	})
	s.Error(err)
	s.True(ierr.IsVersionConflict(err))
}

func (s *InvoiceServiceSuite) TestFinalizeInvoice() {
	first := s.createDraftInvoice()
	second := s.createDraftInvoice()
	year := time.Now().UTC().Year()

	finalized, err := s.service.FinalizeInvoice(s.GetContext(), first.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusFinalized, finalized.InvoiceStatus)
	s.NotNil(finalized.InvoiceNumber)
	s.Equal(fmt.Sprintf("ACME-%d-00001", year), *finalized.InvoiceNumber)
	s.NotNil(finalized.FinalizedAt)

	// numbering is sequential per store and year
	finalized, err = s.service.FinalizeInvoice(s.GetContext(), second.ID)
	s.NoError(err)
	s.Equal(fmt.Sprintf("ACME-%d-00002", year), *finalized.InvoiceNumber)

	// finalizing twice is an invalid transition
	_, err = s.service.FinalizeInvoice(s.GetContext(), first.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestMarkInvoicePaid() {
	created := s.createDraftInvoice()

	// drafts are not payable
	_, err := s.service.MarkInvoicePaid(s.GetContext(), created.ID, dto.MarkInvoicePaidRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	partial, err := s.service.MarkInvoicePaid(s.GetContext(), created.ID, dto.MarkInvoicePaidRequest{
		Amount: lo.ToPtr(decimal.NewFromInt(10)),
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusFinalized, partial.InvoiceStatus)
	s.True(decimal.NewFromInt(10).Equal(partial.AmountPaid))

	// paying more than what remains is rejected
	_, err = s.service.MarkInvoicePaid(s.GetContext(), created.ID, dto.MarkInvoicePaidRequest{
		Amount: lo.ToPtr(decimal.NewFromInt(1000)),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	// omitting the amount settles the remainder
	paid, err := s.service.MarkInvoicePaid(s.GetContext(), created.ID, dto.MarkInvoicePaidRequest{})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.InvoiceStatus)
	s.True(decimal.Zero.Equal(paid.AmountRemaining))
	s.NotNil(paid.PaidAt)
}

func (s *InvoiceServiceSuite) TestVoidInvoice() {
	created := s.createDraftInvoice()

	// drafts are deleted, not voided
	_, err := s.service.VoidInvoice(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	voided, err := s.service.VoidInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoided, voided.InvoiceStatus)
	s.NotNil(voided.VoidedAt)

	_, err = s.service.VoidInvoice(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestDeleteInvoice() {
	created := s.createDraftInvoice()
	s.NoError(s.service.DeleteInvoice(s.GetContext(), created.ID))

	_, err := s.service.GetInvoice(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	finalized := s.createDraftInvoice()
	_, err = s.service.FinalizeInvoice(s.GetContext(), finalized.ID)
	s.NoError(err)

	err = s.service.DeleteInvoice(s.GetContext(), finalized.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestExportInvoicePDF() {
	created := s.createDraftInvoice()

	resp, err := s.service.ExportInvoice(s.GetContext(), created.ID, types.ExportFormatPDF)
	s.NoError(err)
	s.Equal(created.ID+".pdf", resp.FileName)
	s.Equal("application/pdf", resp.ContentType)
	s.NotEmpty(resp.Data)

	// the free tier renders with standard branding
	data := s.GetPDFGenerator().LastData
	s.Require().NotNil(data)
	s.Equal("Generated with Invora", data.Footer)
	s.Empty(data.Biller.LogoURL)
	s.Equal(s.testData.customer.Name, data.Recipient.Name)
}

func (s *InvoiceServiceSuite) TestExportInvoiceUsesInvoiceNumber() {
	created := s.createDraftInvoice()
	finalized, err := s.service.FinalizeInvoice(s.GetContext(), created.ID)
	s.NoError(err)

	resp, err := s.service.ExportInvoice(s.GetContext(), created.ID, types.ExportFormatPDF)
	s.NoError(err)
	s.Equal(*finalized.InvoiceNumber+".pdf", resp.FileName)
}

func (s *InvoiceServiceSuite) TestExportInvoiceJPEGGating() {
	created := s.createDraftInvoice()

	// JPEG export is a premium feature
	_, err := s.service.ExportInvoice(s.GetContext(), created.ID, types.ExportFormatJPEG)
	s.Error(err)
	s.True(ierr.IsTierLimitExceeded(err))

	s.subscribeToPremium()

	resp, err := s.service.ExportInvoice(s.GetContext(), created.ID, types.ExportFormatJPEG)
	s.NoError(err)
	s.Equal(created.ID+".jpg", resp.FileName)
	s.Equal("image/jpeg", resp.ContentType)

	// premium tenants get their own branding on documents
	data := s.GetPDFGenerator().LastData
	s.Require().NotNil(data)
	s.Empty(data.Footer)
	s.Equal(s.testData.store.LogoURL, data.Biller.LogoURL)
}
