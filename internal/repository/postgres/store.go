package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/invora/invora/internal/domain/store"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
)

type storeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewStoreRepository(db *postgres.DB, logger *logger.Logger) store.Repository {
	return &storeRepository{db: db, logger: logger}
}

func (r *storeRepository) Create(ctx context.Context, s *store.Store) error {
	query := `
		INSERT INTO stores (
			id, tenant_id, name, legal_name, email, phone, website, logo_url,
			tax_number, currency, invoice_prefix, address_line1, address_line2,
			address_city, address_state, address_postal_code, address_country,
			payment_instructions, metadata, status, created_at, updated_at,
			created_by, updated_by
		) VALUES (
			:id, :tenant_id, :name, :legal_name, :email, :phone, :website, :logo_url,
			:tax_number, :currency, :invoice_prefix, :address_line1, :address_line2,
			:address_city, :address_state, :address_postal_code, :address_country,
			:payment_instructions, :metadata, :status, :created_at, :updated_at,
			:created_by, :updated_by
		)`

	r.logger.Debugw("creating store",
		"store_id", s.ID,
		"tenant_id", s.TenantID,
	)

	_, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create store").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *storeRepository) Get(ctx context.Context, id string) (*store.Store, error) {
	var s store.Store
	query := `SELECT * FROM stores WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("store not found").
				WithHintf("Store with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get store").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *storeRepository) GetDefault(ctx context.Context) (*store.Store, error) {
	var s store.Store
	query := `
		SELECT * FROM stores
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT 1`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("store profile not found").
				WithHint("Create a store profile before issuing invoices").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get store").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *storeRepository) List(ctx context.Context, filter *types.StoreFilter) ([]*store.Store, error) {
	var stores []*store.Store
	query := `
		SELECT * FROM stores
		WHERE status = :status
		AND (:tenant_id = '' OR tenant_id = :tenant_id)
		ORDER BY created_at DESC
		LIMIT NULLIF(:limit, 0) OFFSET :offset`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"status":    filter.GetStatus(),
		"tenant_id": filter.TenantID,
		"limit":     filter.GetLimit(),
		"offset":    filter.GetOffset(),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list stores").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	for rows.Next() {
		var s store.Store
		if err := rows.StructScan(&s); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan store").
				Mark(ierr.ErrDatabase)
		}
		stores = append(stores, &s)
	}

	return stores, nil
}

func (r *storeRepository) Count(ctx context.Context, filter *types.StoreFilter) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM stores
		WHERE status = $1
		AND ($2 = '' OR tenant_id = $2)`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, filter.GetStatus(), filter.TenantID)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count stores").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *storeRepository) Update(ctx context.Context, s *store.Store) error {
	s.UpdatedAt = time.Now().UTC()
	s.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE stores SET
			name = :name,
			legal_name = :legal_name,
			email = :email,
			phone = :phone,
			website = :website,
			logo_url = :logo_url,
			tax_number = :tax_number,
			currency = :currency,
			invoice_prefix = :invoice_prefix,
			address_line1 = :address_line1,
			address_line2 = :address_line2,
			address_city = :address_city,
			address_state = :address_state,
			address_postal_code = :address_postal_code,
			address_country = :address_country,
			payment_instructions = :payment_instructions,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update store").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update store").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("store not found").
			WithHintf("Store with ID %s was not found", s.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE stores SET status = $1, updated_at = $2, updated_by = $3
		WHERE id = $4 AND tenant_id = $5`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.StatusDeleted,
		time.Now().UTC(),
		types.GetUserID(ctx),
		id,
		types.GetTenantID(ctx),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete store").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete store").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("store not found").
			WithHintf("Store with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// NextInvoiceSequence relies on an upsert so the first invoice of a year
// creates the counter row
func (r *storeRepository) NextInvoiceSequence(ctx context.Context, storeID string, year int) (int64, error) {
	var next int64
	query := `
		INSERT INTO invoice_sequences (store_id, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (store_id, year)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value`

	err := r.db.GetQuerier(ctx).QueryRowContext(ctx, query, storeID, year).Scan(&next)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to advance invoice sequence").
			Mark(ierr.ErrDatabase)
	}
	return next, nil
}
