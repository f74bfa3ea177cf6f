package webhookDto

import "github.com/invora/invora/internal/api/dto"

type InternalSubscriptionEvent struct {
	SubscriptionID string `json:"subscription_id"`
	TenantID       string `json:"tenant_id"`
}

type SubscriptionWebhookPayload struct {
	EventType    string                    `json:"event_type"`
	Subscription *dto.SubscriptionResponse `json:"subscription"`
}

func NewSubscriptionWebhookPayload(sub *dto.SubscriptionResponse, eventType string) *SubscriptionWebhookPayload {
	return &SubscriptionWebhookPayload{EventType: eventType, Subscription: sub}
}
