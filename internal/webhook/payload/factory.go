package payload

import (
	"fmt"

	"github.com/invora/invora/internal/types"
)

// PayloadBuilderFactory interface for getting event-specific payload builders
type PayloadBuilderFactory interface {
	GetBuilder(eventType string) (PayloadBuilder, error)
}

type payloadBuilderFactory struct {
	builders map[string]func() PayloadBuilder
	services *Services
}

// NewPayloadBuilderFactory creates a new factory with registered builders
func NewPayloadBuilderFactory(services *Services) PayloadBuilderFactory {
	f := &payloadBuilderFactory{
		builders: make(map[string]func() PayloadBuilder),
		services: services,
	}

	invoiceEvents := []types.WebhookEventType{
		types.WebhookEventInvoiceCreated,
		types.WebhookEventInvoiceFinalized,
		types.WebhookEventInvoicePaid,
		types.WebhookEventInvoiceVoided,
	}
	for _, event := range invoiceEvents {
		f.builders[string(event)] = func() PayloadBuilder {
			return NewInvoicePayloadBuilder(f.services)
		}
	}

	customerEvents := []types.WebhookEventType{
		types.WebhookEventCustomerCreated,
		types.WebhookEventCustomerUpdated,
		types.WebhookEventCustomerDeleted,
	}
	for _, event := range customerEvents {
		f.builders[string(event)] = func() PayloadBuilder {
			return NewCustomerPayloadBuilder(f.services)
		}
	}

	f.builders[string(types.WebhookEventSubscriptionChanged)] = func() PayloadBuilder {
		return NewSubscriptionPayloadBuilder(f.services)
	}

	return f
}

// GetBuilder returns a payload builder for the given event type
func (f *payloadBuilderFactory) GetBuilder(eventType string) (PayloadBuilder, error) {
	builderFn, ok := f.builders[eventType]
	if !ok {
		return nil, fmt.Errorf("no builder registered for event type: %s", eventType)
	}

	return builderFn(), nil
}
