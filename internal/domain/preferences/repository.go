package preferences

import "context"

// Repository defines the interface for user preferences data access
type Repository interface {
	// GetByUserID returns the user's saved preferences or a not found error
	GetByUserID(ctx context.Context, userID string) (*Preferences, error)
	// Upsert creates or replaces the user's preferences
	Upsert(ctx context.Context, prefs *Preferences) error
}
