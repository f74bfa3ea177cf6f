package service

import (
	"github.com/invora/invora/internal/cache"
	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/domain/contact"
	"github.com/invora/invora/internal/domain/customer"
	"github.com/invora/invora/internal/domain/invoice"
	"github.com/invora/invora/internal/domain/payment"
	"github.com/invora/invora/internal/domain/plan"
	"github.com/invora/invora/internal/domain/preferences"
	"github.com/invora/invora/internal/domain/store"
	"github.com/invora/invora/internal/domain/subscription"
	syncdomain "github.com/invora/invora/internal/domain/sync"
	"github.com/invora/invora/internal/httpclient"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/pdf"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/pubsub"
	webhookPublisher "github.com/invora/invora/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger       *logger.Logger
	Config       *config.Configuration
	DB           postgres.IClient
	PDFGenerator pdf.Generator
	Cache        cache.Cache

	// Repositories
	StoreRepo        store.Repository
	ContactRepo      contact.Repository
	CustomerRepo     customer.Repository
	InvoiceRepo      invoice.Repository
	PlanRepo         plan.Repository
	SubRepo          subscription.Repository
	PreferencesRepo  preferences.Repository
	SyncRepo         syncdomain.Repository
	PaymentEventRepo payment.Repository

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher
	PubSub           pubsub.PubSub

	// http client
	Client httpclient.Client
}

// NewServiceParams builds the common service dependency bundle
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	pdfGenerator pdf.Generator,
	cacheClient cache.Cache,
	storeRepo store.Repository,
	contactRepo contact.Repository,
	customerRepo customer.Repository,
	invoiceRepo invoice.Repository,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	preferencesRepo preferences.Repository,
	syncRepo syncdomain.Repository,
	paymentEventRepo payment.Repository,
	webhookPub webhookPublisher.WebhookPublisher,
	pubSub pubsub.PubSub,
	client httpclient.Client,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		PDFGenerator:     pdfGenerator,
		Cache:            cacheClient,
		StoreRepo:        storeRepo,
		ContactRepo:      contactRepo,
		CustomerRepo:     customerRepo,
		InvoiceRepo:      invoiceRepo,
		PlanRepo:         planRepo,
		SubRepo:          subRepo,
		PreferencesRepo:  preferencesRepo,
		SyncRepo:         syncRepo,
		PaymentEventRepo: paymentEventRepo,
		WebhookPublisher: webhookPub,
		PubSub:           pubSub,
		Client:           client,
	}
}
