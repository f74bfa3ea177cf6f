package types

import (
	ierr "github.com/invora/invora/internal/errors"
	"github.com/samber/lo"
)

// PlanLookupKey identifies a subscription tier
type PlanLookupKey string

const (
	PlanLookupKeyFree    PlanLookupKey = "free"
	PlanLookupKeyPremium PlanLookupKey = "premium"
)

func (k PlanLookupKey) String() string {
	return string(k)
}

func (k PlanLookupKey) Validate() error {
	allowed := []PlanLookupKey{PlanLookupKeyFree, PlanLookupKeyPremium}
	if !lo.Contains(allowed, k) {
		return ierr.NewError("invalid plan lookup key").
			WithHint("Please provide a valid plan lookup key").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionStatus tracks the lifecycle of a tenant subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Please provide a valid subscription status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsEntitling reports whether the subscription grants its plan's features.
// Past-due subscriptions fall back to the free tier until the provider
// reports a successful payment again.
func (s SubscriptionStatus) IsEntitling() bool {
	return s == SubscriptionStatusActive ||
		s == SubscriptionStatusTrialing
}

// FeatureKey identifies a gated feature on a plan
type FeatureKey string

const (
	FeatureJPEGExport       FeatureKey = "jpeg_export"
	FeatureCustomBranding   FeatureKey = "custom_branding"
	FeatureMultipleContacts FeatureKey = "multiple_contacts"
)
