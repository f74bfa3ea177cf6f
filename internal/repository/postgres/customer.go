package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/invora/invora/internal/domain/customer"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
	"github.com/lib/pq"
)

type customerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return &customerRepository{db: db, logger: logger}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			id, tenant_id, store_id, external_id, name, email, phone, tax_number,
			address_line1, address_line2, address_city, address_state,
			address_postal_code, address_country, notes, metadata, version,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :store_id, :external_id, :name, :email, :phone, :tax_number,
			:address_line1, :address_line2, :address_city, :address_state,
			:address_postal_code, :address_country, :notes, :metadata, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating customer",
		"customer_id", c.ID,
		"tenant_id", c.TenantID,
	)

	_, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ierr.WithError(err).
				WithHint("A customer with this external ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	query := `SELECT * FROM customers WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("customer not found").
				WithHintf("Customer with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *customerRepository) GetByExternalID(ctx context.Context, externalID string) (*customer.Customer, error) {
	var c customer.Customer
	query := `SELECT * FROM customers WHERE external_id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, externalID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("customer not found").
				WithHintf("Customer with external ID %s was not found", externalID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *customerRepository) List(ctx context.Context, filter *types.CustomerFilter) ([]*customer.Customer, error) {
	var customers []*customer.Customer
	query := `
		SELECT * FROM customers
		WHERE tenant_id = :tenant_id
		AND status = :status
		AND (:store_id = '' OR store_id = :store_id)
		AND (:external_id = '' OR external_id = :external_id)
		AND (:email = '' OR email = :email)
		AND (:search = '' OR name ILIKE '%' || :search || '%')
		ORDER BY created_at DESC
		LIMIT NULLIF(:limit, 0) OFFSET :offset`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"tenant_id":   types.GetTenantID(ctx),
		"status":      filter.GetStatus(),
		"store_id":    filter.StoreID,
		"external_id": filter.ExternalID,
		"email":       filter.Email,
		"search":      filter.Search,
		"limit":       filter.GetLimit(),
		"offset":      filter.GetOffset(),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list customers").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	for rows.Next() {
		var c customer.Customer
		if err := rows.StructScan(&c); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan customer").
				Mark(ierr.ErrDatabase)
		}
		customers = append(customers, &c)
	}

	return customers, nil
}

func (r *customerRepository) Count(ctx context.Context, filter *types.CustomerFilter) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM customers
		WHERE tenant_id = $1
		AND status = $2
		AND ($3 = '' OR store_id = $3)
		AND ($4 = '' OR external_id = $4)
		AND ($5 = '' OR email = $5)
		AND ($6 = '' OR name ILIKE '%' || $6 || '%')`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query,
		types.GetTenantID(ctx),
		filter.GetStatus(),
		filter.StoreID,
		filter.ExternalID,
		filter.Email,
		filter.Search,
	)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count customers").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)
	c.Version++

	query := `
		UPDATE customers SET
			external_id = :external_id,
			name = :name,
			email = :email,
			phone = :phone,
			tax_number = :tax_number,
			address_line1 = :address_line1,
			address_line2 = :address_line2,
			address_city = :address_city,
			address_state = :address_state,
			address_postal_code = :address_postal_code,
			address_country = :address_country,
			notes = :notes,
			metadata = :metadata,
			version = :version,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND version = :version - 1`

	r.logger.Debugw("updating customer",
		"customer_id", c.ID,
		"tenant_id", c.TenantID,
	)

	result, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		c.Version--
		return ierr.NewError("customer was modified concurrently").
			WithHint("The customer was changed by another request, retry with fresh data").
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE customers SET status = $1, updated_at = $2, updated_by = $3
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
			WithHint("Failed to delete customer").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete customer").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("customer not found").
			WithHintf("Customer with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
