package webhookDto

import "github.com/invora/invora/internal/api/dto"

type InternalCustomerEvent struct {
	CustomerID string `json:"customer_id"`
	TenantID   string `json:"tenant_id"`
}

type CustomerWebhookPayload struct {
	EventType string `json:"event_type"`
	// CustomerID is set on delete events where the customer body is gone
	CustomerID string                `json:"customer_id,omitempty"`
	Customer   *dto.CustomerResponse `json:"customer,omitempty"`
}

func NewCustomerWebhookPayload(customer *dto.CustomerResponse, eventType string) *CustomerWebhookPayload {
	return &CustomerWebhookPayload{EventType: eventType, Customer: customer}
}
