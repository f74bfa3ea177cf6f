package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/invora/invora/internal/domain/subscription"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, tenant_id, plan_id, subscription_status, current_period_start,
			current_period_end, cancel_at_period_end, provider_customer_id,
			provider_subscription_id, canceled_at,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :plan_id, :subscription_status, :current_period_start,
			:current_period_end, :cancel_at_period_end, :provider_customer_id,
			:provider_subscription_id, :canceled_at,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
		"plan_id", sub.PlanID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT * FROM subscriptions WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("subscription not found").
				WithHintf("Subscription with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetCurrent(ctx context.Context) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("no subscription found").
				WithHint("The tenant has no subscription").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get current subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

// GetByProviderSubscriptionID is not tenant scoped. Webhook events arrive
// before any tenant is known, the row itself resolves the tenant.
func (r *subscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE provider_subscription_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, providerSubID, types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("subscription not found").
				WithHintf("No subscription matches provider subscription %s", providerSubID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription by provider ID").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE ($1 = '' OR tenant_id = $1)
		AND status = $2
		AND ($3 = '' OR subscription_status = $3)
		AND ($4 = '' OR plan_id = $4)
		ORDER BY created_at DESC
		LIMIT NULLIF($5, 0) OFFSET $6`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &subs, query,
		filter.TenantID,
		types.StatusPublished,
		string(filter.SubscriptionStatus),
		filter.PlanID,
		filter.GetLimit(),
		filter.GetOffset(),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM subscriptions
		WHERE ($1 = '' OR tenant_id = $1)
		AND status = $2
		AND ($3 = '' OR subscription_status = $3)
		AND ($4 = '' OR plan_id = $4)`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query,
		filter.TenantID,
		types.StatusPublished,
		string(filter.SubscriptionStatus),
		filter.PlanID,
	)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE subscriptions SET
			plan_id = :plan_id,
			subscription_status = :subscription_status,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			cancel_at_period_end = :cancel_at_period_end,
			provider_customer_id = :provider_customer_id,
			provider_subscription_id = :provider_subscription_id,
			canceled_at = :canceled_at,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
