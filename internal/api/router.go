package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/invora/invora/internal/api/v1"
	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/rest/middleware"
	"github.com/invora/invora/internal/types"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Store        *v1.StoreHandler
	Contact      *v1.ContactHandler
	Customer     *v1.CustomerHandler
	Invoice      *v1.InvoiceHandler
	Subscription *v1.SubscriptionHandler
	Preferences  *v1.PreferencesHandler
	Sync         *v1.SyncHandler
	Webhook      *v1.WebhookHandler
	Admin        *v1.AdminHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	router := gin.Default()

	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// provider webhooks authenticate by signature, not by caller identity
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/payment", handlers.Webhook.HandlePaymentWebhook)
	}

	v1Group := router.Group("/v1")
	if cfg.Deployment.Mode == types.ModeLocal {
		v1Group.Use(middleware.GuestAuthenticateMiddleware)
	} else {
		v1Group.Use(middleware.AuthenticateMiddleware(cfg, log))
	}
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Store routes
	stores := router.Group("/stores")
	{
		stores.POST("", handlers.Store.CreateStore)
		stores.GET("", handlers.Store.GetStores)
		stores.GET("/default", handlers.Store.GetDefaultStore)
		stores.GET("/:id", handlers.Store.GetStore)
		stores.PUT("/:id", handlers.Store.UpdateStore)
		stores.DELETE("/:id", handlers.Store.DeleteStore)
	}

	// Contact routes
	contacts := router.Group("/contacts")
	{
		contacts.POST("", handlers.Contact.CreateContact)
		contacts.GET("", handlers.Contact.GetContacts)
		contacts.GET("/:id", handlers.Contact.GetContact)
		contacts.PUT("/:id", handlers.Contact.UpdateContact)
		contacts.DELETE("/:id", handlers.Contact.DeleteContact)
	}

	// Customer routes
	customers := router.Group("/customers")
	{
		customers.POST("", handlers.Customer.CreateCustomer)
		customers.GET("", handlers.Customer.GetCustomers)
		customers.GET("/external/:external_id", handlers.Customer.GetCustomerByExternalID)
		customers.GET("/:id", handlers.Customer.GetCustomer)
		customers.PUT("/:id", handlers.Customer.UpdateCustomer)
		customers.DELETE("/:id", handlers.Customer.DeleteCustomer)
	}

	// Invoice routes
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.GetInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id", handlers.Invoice.UpdateInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)
		invoices.POST("/:id/finalize", handlers.Invoice.FinalizeInvoice)
		invoices.POST("/:id/payments", handlers.Invoice.MarkInvoicePaid)
		invoices.POST("/:id/void", handlers.Invoice.VoidInvoice)
		invoices.GET("/:id/pdf", handlers.Invoice.GetInvoicePDF)
		invoices.GET("/:id/image", handlers.Invoice.GetInvoiceImage)
	}

	// Subscription routes
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("/current", handlers.Subscription.GetCurrentSubscription)
		subscriptions.POST("/current/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.GET("/entitlements", handlers.Subscription.GetEntitlements)
	}
	router.GET("/plans", handlers.Subscription.GetPlans)

	// Preferences routes
	preferences := router.Group("/preferences")
	{
		preferences.GET("", handlers.Preferences.GetPreferences)
		preferences.PUT("", handlers.Preferences.UpdatePreferences)
	}

	// Sync routes
	sync := router.Group("/sync")
	{
		sync.POST("/batch", handlers.Sync.EnqueueBatch)
		sync.GET("/status", handlers.Sync.GetSyncStatus)
		sync.GET("/operations", handlers.Sync.GetSyncOperations)
		sync.GET("/changes", handlers.Sync.GetChanges)
	}

	// Back office routes
	admin := router.Group("/admin", middleware.AdminOnlyMiddleware)
	{
		admin.GET("/stores", handlers.Admin.GetAllStores)
		admin.GET("/subscriptions", handlers.Admin.GetAllSubscriptions)
		admin.GET("/sync/queue", handlers.Admin.GetSyncQueueDepth)
		admin.POST("/plans", handlers.Admin.CreatePlan)
		admin.PUT("/plans/:id", handlers.Admin.UpdatePlan)
	}
}
