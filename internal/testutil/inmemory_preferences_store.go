package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/invora/invora/internal/domain/preferences"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// InMemoryPreferencesStore implements preferences.Repository
type InMemoryPreferencesStore struct {
	*InMemoryStore[*preferences.Preferences]
}

// NewInMemoryPreferencesStore creates a new in-memory preferences store
func NewInMemoryPreferencesStore() *InMemoryPreferencesStore {
	return &InMemoryPreferencesStore{
		InMemoryStore: NewInMemoryStore[*preferences.Preferences](),
	}
}

func copyPreferences(p *preferences.Preferences) *preferences.Preferences {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func prefsKey(tenantID, userID string) string {
	return fmt.Sprintf("%s:%s", tenantID, userID)
}

func (s *InMemoryPreferencesStore) GetByUserID(ctx context.Context, userID string) (*preferences.Preferences, error) {
	p, err := s.InMemoryStore.Get(ctx, prefsKey(types.GetTenantID(ctx), userID))
	if err != nil {
		return nil, ierr.NewError("preferences not found").
			WithHintf("User %s has no saved preferences", userID).
			Mark(ierr.ErrNotFound)
	}
	return copyPreferences(p), nil
}

func (s *InMemoryPreferencesStore) Upsert(ctx context.Context, prefs *preferences.Preferences) error {
	key := prefsKey(types.GetTenantID(ctx), prefs.UserID)
	prefs.UpdatedAt = time.Now().UTC()

	stored, err := s.InMemoryStore.Get(ctx, key)
	if err != nil {
		prefs.Version = 1
		return s.InMemoryStore.Create(ctx, key, copyPreferences(prefs))
	}
	prefs.Version = stored.Version + 1
	return s.InMemoryStore.Update(ctx, key, copyPreferences(prefs))
}
