package payload

import (
	"context"
	"encoding/json"
)

// PayloadBuilder builds the outbound payload for one event family from the
// internal event carried on the bus
type PayloadBuilder interface {
	BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error)
}
