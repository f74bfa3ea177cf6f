package types

import (
	"testing"
)

func TestPlanLookupKeyValidate(t *testing.T) {
	for _, key := range []PlanLookupKey{PlanLookupKeyFree, PlanLookupKeyPremium} {
		if err := key.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", key, err)
		}
	}

	for _, key := range []PlanLookupKey{"", "enterprise", "Free"} {
		if err := key.Validate(); err == nil {
			t.Errorf("Validate(%q) = nil, want error", key)
		}
	}
}

func TestSubscriptionStatusIsEntitling(t *testing.T) {
	tests := []struct {
		status SubscriptionStatus
		want   bool
	}{
		{SubscriptionStatusActive, true},
		{SubscriptionStatusTrialing, true},
		{SubscriptionStatusPastDue, false},
		{SubscriptionStatusCanceled, false},
	}

	for _, tt := range tests {
		if got := tt.status.IsEntitling(); got != tt.want {
			t.Errorf("IsEntitling(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
