package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/invora/invora/internal/domain/contact"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
)

type contactRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewContactRepository(db *postgres.DB, logger *logger.Logger) contact.Repository {
	return &contactRepository{db: db, logger: logger}
}

func (r *contactRepository) Create(ctx context.Context, c *contact.Contact) error {
	query := `
		INSERT INTO store_contacts (
			id, tenant_id, store_id, name, email, phone, role, is_primary,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :store_id, :name, :email, :phone, :role, :is_primary,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating store contact",
		"contact_id", c.ID,
		"store_id", c.StoreID,
	)

	_, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create contact").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *contactRepository) Get(ctx context.Context, id string) (*contact.Contact, error) {
	var c contact.Contact
	query := `SELECT * FROM store_contacts WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("contact not found").
				WithHintf("Contact with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get contact").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *contactRepository) List(ctx context.Context, filter *types.ContactFilter) ([]*contact.Contact, error) {
	var contacts []*contact.Contact
	query := `
		SELECT * FROM store_contacts
		WHERE tenant_id = :tenant_id
		AND status = :status
		AND (:store_id = '' OR store_id = :store_id)
		ORDER BY is_primary DESC, created_at ASC
		LIMIT NULLIF(:limit, 0) OFFSET :offset`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    filter.GetStatus(),
		"store_id":  filter.StoreID,
		"limit":     filter.GetLimit(),
		"offset":    filter.GetOffset(),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list contacts").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	for rows.Next() {
		var c contact.Contact
		if err := rows.StructScan(&c); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan contact").
				Mark(ierr.ErrDatabase)
		}
		contacts = append(contacts, &c)
	}

	return contacts, nil
}

func (r *contactRepository) Count(ctx context.Context, filter *types.ContactFilter) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM store_contacts
		WHERE tenant_id = $1
		AND status = $2
		AND ($3 = '' OR store_id = $3)`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query,
		types.GetTenantID(ctx),
		filter.GetStatus(),
		filter.StoreID,
	)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count contacts").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *contactRepository) Update(ctx context.Context, c *contact.Contact) error {
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE store_contacts SET
			name = :name,
			email = :email,
			phone = :phone,
			role = :role,
			is_primary = :is_primary,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update contact").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update contact").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("contact not found").
			WithHintf("Contact with ID %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE store_contacts SET status = $1, updated_at = $2, updated_by = $3
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
			WithHint("Failed to delete contact").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete contact").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("contact not found").
			WithHintf("Contact with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *contactRepository) GetPrimary(ctx context.Context, storeID string) (*contact.Contact, error) {
	var c contact.Contact
	query := `
		SELECT * FROM store_contacts
		WHERE store_id = $1 AND tenant_id = $2 AND is_primary = true AND status = $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, storeID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("primary contact not found").
				WithHint("The store has no primary contact").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get primary contact").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *contactRepository) ClearPrimary(ctx context.Context, storeID string) error {
	query := `
		UPDATE store_contacts SET is_primary = false, updated_at = $1, updated_by = $2
		WHERE store_id = $3 AND tenant_id = $4 AND is_primary = true`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		time.Now().UTC(),
		types.GetUserID(ctx),
		storeID,
		types.GetTenantID(ctx),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to clear primary contact").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
