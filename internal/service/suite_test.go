package service

import (
	"github.com/invora/invora/internal/testutil"
)

// testServiceParams wires a full ServiceParams from the shared test suite
func testServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		PDFGenerator:     s.GetPDFGenerator(),
		Cache:            s.GetCache(),
		StoreRepo:        stores.StoreRepo,
		ContactRepo:      stores.ContactRepo,
		CustomerRepo:     stores.CustomerRepo,
		InvoiceRepo:      stores.InvoiceRepo,
		PlanRepo:         stores.PlanRepo,
		SubRepo:          stores.SubRepo,
		PreferencesRepo:  stores.PreferencesRepo,
		SyncRepo:         stores.SyncRepo,
		PaymentEventRepo: stores.PaymentEventRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		PubSub:           s.GetPubSub(),
	}
}
