package testutil

import (
	"context"
	"time"

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
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
	webhookPublisher "github.com/invora/invora/internal/webhook/publisher"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	StoreRepo        store.Repository
	ContactRepo      contact.Repository
	CustomerRepo     customer.Repository
	InvoiceRepo      invoice.Repository
	PlanRepo         plan.Repository
	SubRepo          subscription.Repository
	PreferencesRepo  preferences.Repository
	SyncRepo         syncdomain.Repository
	PaymentEventRepo payment.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	pubsub           *InMemoryPubSub
	webhookPublisher webhookPublisher.WebhookPublisher
	db               postgres.IClient
	cache            cache.Cache
	logger           *logger.Logger
	config           *config.Configuration
	pdfGenerator     *MockPDFGenerator
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Webhook: config.WebhookConfig{
			Enabled: true,
			Topic:   types.WebhookTopic,
		},
		Cache: config.CacheConfig{
			Enabled: true,
		},
		Sync: config.SyncConfig{
			PollInterval:    time.Second,
			BatchSize:       100,
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		StoreRepo:        NewInMemoryStoreStore(),
		ContactRepo:      NewInMemoryContactStore(),
		CustomerRepo:     NewInMemoryCustomerStore(),
		InvoiceRepo:      NewInMemoryInvoiceStore(),
		PlanRepo:         NewInMemoryPlanStore(),
		SubRepo:          NewInMemorySubscriptionStore(),
		PreferencesRepo:  NewInMemoryPreferencesStore(),
		SyncRepo:         NewInMemorySyncStore(),
		PaymentEventRepo: NewInMemoryPaymentEventStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache(s.config)
	s.pdfGenerator = NewMockPDFGenerator(s.logger)
	s.pubsub = NewInMemoryPubSub()

	webhookPub, err := webhookPublisher.NewPublisher(s.pubsub, s.config, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create webhook publisher: %v", err)
	}
	s.webhookPublisher = webhookPub
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.StoreRepo.(*InMemoryStoreStore).Clear()
	s.stores.ContactRepo.(*InMemoryContactStore).Clear()
	s.stores.CustomerRepo.(*InMemoryCustomerStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.SubRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.PreferencesRepo.(*InMemoryPreferencesStore).Clear()
	s.stores.SyncRepo.(*InMemorySyncStore).Clear()
	s.stores.PaymentEventRepo.(*InMemoryPaymentEventStore).Clear()
	s.pubsub.ClearMessages()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// SetContext overrides the test context, used for admin and device scenarios
func (s *BaseServiceTestSuite) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPubSub returns the in-memory message bus
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubsub
}

// GetWebhookPublisher returns the test webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() webhookPublisher.WebhookPublisher {
	return s.webhookPublisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetPDFGenerator returns the test document generator
func (s *BaseServiceTestSuite) GetPDFGenerator() *MockPDFGenerator {
	return s.pdfGenerator
}

// GetNow returns the test start timestamp
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
