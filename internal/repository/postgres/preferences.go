package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/invora/invora/internal/domain/preferences"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
)

type preferencesRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPreferencesRepository(db *postgres.DB, logger *logger.Logger) preferences.Repository {
	return &preferencesRepository{db: db, logger: logger}
}

func (r *preferencesRepository) GetByUserID(ctx context.Context, userID string) (*preferences.Preferences, error) {
	var prefs preferences.Preferences
	query := `
		SELECT * FROM user_preferences
		WHERE user_id = $1 AND tenant_id = $2 AND status = $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &prefs, query,
		userID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("preferences not found").
				WithHintf("No preferences saved for user %s", userID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get user preferences").
			Mark(ierr.ErrDatabase)
	}
	return &prefs, nil
}

// Upsert relies on the unique index on (tenant_id, user_id). The version
// column increments on every write so sync clients can detect staleness.
func (r *preferencesRepository) Upsert(ctx context.Context, prefs *preferences.Preferences) error {
	prefs.UpdatedAt = time.Now().UTC()
	prefs.UpdatedBy = types.GetUserID(ctx)

	query := `
		INSERT INTO user_preferences (
			id, tenant_id, user_id, locale, date_format, default_currency,
			default_tax_percent, default_due_in_days, invoice_footer, theme,
			version, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :user_id, :locale, :date_format, :default_currency,
			:default_tax_percent, :default_due_in_days, :invoice_footer, :theme,
			1, :status, :created_at, :updated_at, :created_by, :updated_by
		)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET
			locale = EXCLUDED.locale,
			date_format = EXCLUDED.date_format,
			default_currency = EXCLUDED.default_currency,
			default_tax_percent = EXCLUDED.default_tax_percent,
			default_due_in_days = EXCLUDED.default_due_in_days,
			invoice_footer = EXCLUDED.invoice_footer,
			theme = EXCLUDED.theme,
			version = user_preferences.version + 1,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`

	r.logger.Debugw("upserting user preferences",
		"user_id", prefs.UserID,
		"tenant_id", prefs.TenantID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, prefs); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save user preferences").
			Mark(ierr.ErrDatabase)
	}

	// re-read so the caller sees the stored version
	stored, err := r.GetByUserID(ctx, prefs.UserID)
	if err != nil {
		return err
	}
	*prefs = *stored
	return nil
}
