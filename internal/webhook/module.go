package webhook

import (
	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/pubsub"
	"github.com/invora/invora/internal/pubsub/memory"
	"github.com/invora/invora/internal/service"
	"github.com/invora/invora/internal/webhook/handler"
	"github.com/invora/invora/internal/webhook/payload"
	"github.com/invora/invora/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		// PubSub bus carrying webhook and sync change events
		providePubSub,

		// Publisher for producing webhook events
		publisher.NewPublisher,

		// Handler delivering webhook events to tenant endpoints
		handler.NewHandler,

		// Payload builder factory and services
		providePayloadBuilderFactory,
	),
)

// providePayloadBuilderFactory creates a new payload builder factory with all required services
func providePayloadBuilderFactory(
	customerService service.CustomerService,
	invoiceService service.InvoiceService,
	subscriptionService service.SubscriptionService,
) payload.PayloadBuilderFactory {
	services := payload.NewServices(
		customerService,
		invoiceService,
		subscriptionService,
	)
	return payload.NewPayloadBuilderFactory(services)
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	return memory.NewPubSub(cfg, logger)
}
