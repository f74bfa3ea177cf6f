package handler

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/httpclient"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/pubsub"
	pubsubRouter "github.com/invora/invora/internal/pubsub/router"
	"github.com/invora/invora/internal/types"
	"github.com/invora/invora/internal/webhook/payload"
)

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub  pubsub.PubSub
	config  *config.WebhookConfig
	factory payload.PayloadBuilderFactory
	client  httpclient.Client
	logger  *logger.Logger
}

// NewHandler creates a new webhook delivery handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	factory payload.PayloadBuilderFactory,
	client httpclient.Client,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub:  pubSub,
		config:  &cfg.Webhook,
		factory: factory,
		client:  client,
		logger:  logger,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage delivers a single webhook message to the tenant's endpoint
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		// malformed messages never become valid, don't retry
		return nil
	}

	ctx = types.SetTenantID(ctx, event.TenantID)
	ctx = types.SetUserID(ctx, event.UserID)

	tenantCfg, ok := h.config.Tenants[event.TenantID]
	if !ok {
		h.logger.Debugw("no webhook endpoint configured for tenant",
			"tenant_id", event.TenantID,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	if !tenantCfg.Enabled {
		h.logger.Debugw("webhooks disabled for tenant",
			"tenant_id", event.TenantID,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	for _, excludedEvent := range tenantCfg.ExcludedEvents {
		if excludedEvent == event.EventName {
			h.logger.Debugw("event excluded for tenant",
				"tenant_id", event.TenantID,
				"event", event.EventName,
			)
			return nil
		}
	}

	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		h.logger.Warnw("no payload builder for event",
			"event", event.EventName,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	webHookPayload, err := builder.BuildPayload(ctx, event.EventName, event.Payload)
	if err != nil {
		return err
	}

	return h.deliver(ctx, &event, tenantCfg, webHookPayload, msg.UUID)
}

func (h *handler) deliver(ctx context.Context, event *types.WebhookEvent, tenantCfg config.TenantWebhookConfig, body json.RawMessage, messageUUID string) error {
	req := &httpclient.Request{
		Method:  "POST",
		URL:     tenantCfg.Endpoint,
		Headers: tenantCfg.Headers,
		Body:    body,
	}

	resp, err := h.client.Send(ctx, req)
	if err != nil {
		h.logger.Errorw("failed to send webhook",
			"error", err,
			"message_uuid", messageUUID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook sent successfully",
		"message_uuid", messageUUID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
		"status_code", resp.StatusCode,
	)

	return nil
}
