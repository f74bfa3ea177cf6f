package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	webhookDto "github.com/invora/invora/internal/webhook/dto"
)

type CustomerPayloadBuilder struct {
	services *Services
}

func NewCustomerPayloadBuilder(services *Services) PayloadBuilder {
	return &CustomerPayloadBuilder{services: services}
}

func (b *CustomerPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalCustomerEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal customer event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	if parsedPayload.CustomerID == "" || parsedPayload.TenantID == "" {
		return nil, ierr.NewError("invalid customer event").
			WithHint("Customer events must carry a customer ID and tenant ID").
			Mark(ierr.ErrInvalidOperation)
	}

	// deleted customers are soft deleted, the lookup fails and the
	// payload carries just the IDs
	if eventType == string(types.WebhookEventCustomerDeleted) {
		payload := webhookDto.NewCustomerWebhookPayload(nil, eventType)
		payload.CustomerID = parsedPayload.CustomerID
		return json.Marshal(payload)
	}

	customer, err := b.services.CustomerService.GetCustomer(ctx, parsedPayload.CustomerID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewCustomerWebhookPayload(customer, eventType)

	return json.Marshal(payload)
}
