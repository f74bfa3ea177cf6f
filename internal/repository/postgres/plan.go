package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/invora/invora/internal/domain/plan"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
	"github.com/lib/pq"
)

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO plans (
			id, lookup_key, display_name, monthly_invoice_limit,
			history_retention_limit, jpeg_export, custom_branding,
			multiple_contacts, monthly_price, currency, provider_price_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :lookup_key, :display_name, :monthly_invoice_limit,
			:history_retention_limit, :jpeg_export, :custom_branding,
			:multiple_contacts, :monthly_price, :currency, :provider_price_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ierr.WithError(err).
				WithHintf("A plan with lookup key %s already exists", p.LookupKey).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var p plan.Plan
	query := `SELECT * FROM plans WHERE id = $1 AND status = $2`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id, types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) GetByLookupKey(ctx context.Context, key types.PlanLookupKey) (*plan.Plan, error) {
	var p plan.Plan
	query := `SELECT * FROM plans WHERE lookup_key = $1 AND status = $2`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, key, types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan %s is not configured", key).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	var plans []*plan.Plan
	query := `SELECT * FROM plans WHERE status = $1 ORDER BY monthly_price ASC`
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &plans, query, types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE plans SET
			display_name = :display_name,
			monthly_invoice_limit = :monthly_invoice_limit,
			history_retention_limit = :history_retention_limit,
			jpeg_export = :jpeg_export,
			custom_branding = :custom_branding,
			multiple_contacts = :multiple_contacts,
			monthly_price = :monthly_price,
			currency = :currency,
			provider_price_id = :provider_price_id,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update plan").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update plan").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("plan not found").
			WithHintf("Plan with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
