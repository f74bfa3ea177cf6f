package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/invora/invora/internal/errors"
	webhookDto "github.com/invora/invora/internal/webhook/dto"
)

type SubscriptionPayloadBuilder struct {
	services *Services
}

func NewSubscriptionPayloadBuilder(services *Services) PayloadBuilder {
	return &SubscriptionPayloadBuilder{services: services}
}

func (b *SubscriptionPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalSubscriptionEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal subscription event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	if parsedPayload.SubscriptionID == "" || parsedPayload.TenantID == "" {
		return nil, ierr.NewError("invalid subscription event").
			WithHint("Subscription events must carry a subscription ID and tenant ID").
			Mark(ierr.ErrInvalidOperation)
	}

	// the event context already carries the tenant, the current
	// subscription is the one the event reported
	subscription, err := b.services.SubscriptionService.GetCurrentSubscription(ctx)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewSubscriptionWebhookPayload(subscription, eventType)

	return json.Marshal(payload)
}
