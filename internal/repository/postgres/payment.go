package postgres

import (
	"context"

	"github.com/invora/invora/internal/domain/payment"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
)

type paymentEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPaymentEventRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentEventRepository{db: db, logger: logger}
}

func (r *paymentEventRepository) MarkProcessed(ctx context.Context, event *payment.ProcessedEvent) (bool, error) {
	query := `
		INSERT INTO processed_payment_events (event_id, event_type, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		event.EventID, event.EventType, event.ProcessedAt)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to record processed payment event").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to record processed payment event").
			Mark(ierr.ErrDatabase)
	}
	return affected > 0, nil
}
