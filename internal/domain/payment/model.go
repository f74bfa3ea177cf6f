package payment

import "time"

// ProcessedEvent records a payment provider event that was already
// handled, so webhook retries do not apply twice
type ProcessedEvent struct {
	// EventID is the provider's event identifier
	EventID string `db:"event_id" json:"event_id"`

	// EventType is the provider's event type string
	EventType string `db:"event_type" json:"event_type"`

	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`
}
