package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invora/invora/internal/api"
	v1 "github.com/invora/invora/internal/api/v1"
	"github.com/invora/invora/internal/cache"
	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/httpclient"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/pdf"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/pubsub"
	pubsubRouter "github.com/invora/invora/internal/pubsub/router"
	"github.com/invora/invora/internal/repository"
	"github.com/invora/invora/internal/service"
	"github.com/invora/invora/internal/types"
	"github.com/invora/invora/internal/typst"
	"github.com/invora/invora/internal/webhook"
	webhookHandler "github.com/invora/invora/internal/webhook/handler"
	"go.uber.org/fx"
)

// @title Invora API
// @version 1.0
// @description Invoice generation API service
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			provideLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			provideDBClient,

			// Document rendering
			provideTypstCompiler,
			pdf.NewGenerator,

			// HTTP client
			httpclient.NewDefaultClient,

			// Repositories
			repository.NewStoreRepository,
			repository.NewContactRepository,
			repository.NewCustomerRepository,
			repository.NewInvoiceRepository,
			repository.NewPlanRepository,
			repository.NewSubscriptionRepository,
			repository.NewPreferencesRepository,
			repository.NewSyncRepository,
			repository.NewPaymentEventRepository,

			// PubSub router
			pubsubRouter.NewRouter,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewStoreService,
			service.NewContactService,
			service.NewCustomerService,
			service.NewInvoiceService,
			service.NewSubscriptionService,
			service.NewPreferencesService,
			service.NewPaymentService,
			service.NewSyncService,
			service.NewAdminService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideLogger(cfg *config.Configuration) (*logger.Logger, error) {
	return logger.NewLogger(cfg.Logging.Level)
}

func provideDBClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideTypstCompiler(cfg *config.Configuration, log *logger.Logger) typst.Compiler {
	return typst.NewCompiler(
		log,
		cfg.PDF.TypstBinary,
		cfg.PDF.FontDir,
		cfg.PDF.TemplateDir,
		cfg.PDF.OutputDir,
	)
}

func provideHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	pubSub pubsub.PubSub,
	storeService service.StoreService,
	contactService service.ContactService,
	customerService service.CustomerService,
	invoiceService service.InvoiceService,
	subscriptionService service.SubscriptionService,
	preferencesService service.PreferencesService,
	paymentService service.PaymentService,
	syncService service.SyncService,
	adminService service.AdminService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(log),
		Store:        v1.NewStoreHandler(storeService, log),
		Contact:      v1.NewContactHandler(contactService, log),
		Customer:     v1.NewCustomerHandler(customerService, log),
		Invoice:      v1.NewInvoiceHandler(invoiceService, log),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, log),
		Preferences:  v1.NewPreferencesHandler(preferencesService, log),
		Sync:         v1.NewSyncHandler(syncService, pubSub, log),
		Webhook:      v1.NewWebhookHandler(paymentService, log),
		Admin:        v1.NewAdminHandler(adminService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	deliveryHandler webhookHandler.Handler,
	syncService service.SyncService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, deliveryHandler, log)
		startSyncWorker(lc, cfg, syncService, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, deliveryHandler, log)
	case types.ModeSyncWorker:
		startMessageRouter(lc, router, deliveryHandler, log)
		startSyncWorker(lc, cfg, syncService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	deliveryHandler webhookHandler.Handler,
	log *logger.Logger,
) {
	// Register handlers before starting the router
	deliveryHandler.RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting message router")
			go func() {
				if err := router.Run(); err != nil {
					log.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping message router")
			return router.Close()
		},
	})
}

// startSyncWorker replays queued offline mutations on a fixed poll interval
func startSyncWorker(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	syncService service.SyncService,
	log *logger.Logger,
) {
	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting sync worker", "poll_interval", cfg.Sync.PollInterval)
			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.Sync.PollInterval)
				defer ticker.Stop()
				for {
					select {
					case <-workerCtx.Done():
						return
					case <-ticker.C:
						if err := syncService.ProcessPending(workerCtx); err != nil {
							log.Errorw("sync replay pass failed", "error", err)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping sync worker")
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
