package payment

import "context"

// Repository defines the interface for processed event bookkeeping
type Repository interface {
	// MarkProcessed records the event. It returns false when the event
	// was already recorded, which means the caller must skip it.
	MarkProcessed(ctx context.Context, event *ProcessedEvent) (bool, error)
}
