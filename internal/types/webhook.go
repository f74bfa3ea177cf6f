package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the envelope carried over the internal message bus
// before delivery to a tenant's endpoint
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Header names used across middleware and handlers
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderDeviceID      = "X-Device-ID"
)

// Topics on the internal message bus
const (
	// WebhookTopic carries outbound webhook events to the delivery handler
	WebhookTopic = "webhook_events"
	// SyncChangesTopic fans applied sync mutations out to connected devices
	SyncChangesTopic = "sync_changes"
)

// WebhookEventType is the type of an outbound webhook event
type WebhookEventType string

const (
	WebhookEventInvoiceCreated      WebhookEventType = "invoice.created"
	WebhookEventInvoiceFinalized    WebhookEventType = "invoice.finalized"
	WebhookEventInvoicePaid         WebhookEventType = "invoice.paid"
	WebhookEventInvoiceVoided       WebhookEventType = "invoice.voided"
	WebhookEventCustomerCreated     WebhookEventType = "customer.created"
	WebhookEventCustomerUpdated     WebhookEventType = "customer.updated"
	WebhookEventCustomerDeleted     WebhookEventType = "customer.deleted"
	WebhookEventSubscriptionChanged WebhookEventType = "subscription.changed"
)

// Inbound Stripe event types this service reacts to
const (
	StripeEventCheckoutSessionCompleted = "checkout.session.completed"
	StripeEventSubscriptionUpdated      = "customer.subscription.updated"
	StripeEventSubscriptionDeleted      = "customer.subscription.deleted"
	StripeEventInvoicePaymentFailed     = "invoice.payment_failed"
)
