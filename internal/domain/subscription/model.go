package subscription

import (
	"time"

	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// Subscription tracks a tenant's paid tier with the payment provider
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// PlanID references the subscribed plan
	PlanID string `db:"plan_id" json:"plan_id"`

	// SubscriptionStatus is the provider-reported lifecycle state
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// CurrentPeriodStart / End mirror the provider's billing period
	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `db:"current_period_end" json:"current_period_end"`

	// CancelAtPeriodEnd is set when the user cancelled but keeps access
	// until the period closes
	CancelAtPeriodEnd bool `db:"cancel_at_period_end" json:"cancel_at_period_end"`

	// Payment provider references
	ProviderCustomerID     string `db:"provider_customer_id" json:"provider_customer_id"`
	ProviderSubscriptionID string `db:"provider_subscription_id" json:"provider_subscription_id"`

	CanceledAt *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`

	types.BaseModel
}

// IsEntitling reports whether this subscription currently grants its plan
func (s *Subscription) IsEntitling() bool {
	if !s.SubscriptionStatus.IsEntitling() {
		return false
	}
	// A lapsed period without renewal means no entitlement
	if !s.CurrentPeriodEnd.IsZero() && s.CurrentPeriodEnd.Before(time.Now().UTC()) {
		return false
	}
	return true
}

func (s *Subscription) Validate() error {
	if s.PlanID == "" {
		return ierr.NewError("plan id is required").
			WithHint("Subscription must reference a plan").
			Mark(ierr.ErrValidation)
	}
	if err := s.SubscriptionStatus.Validate(); err != nil {
		return err
	}
	if !s.CurrentPeriodStart.IsZero() && !s.CurrentPeriodEnd.IsZero() &&
		s.CurrentPeriodEnd.Before(s.CurrentPeriodStart) {
		return ierr.NewError("invalid billing period").
			WithHint("Period end must be after period start").
			Mark(ierr.ErrValidation)
	}
	return nil
}
