package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/invora/invora/internal/domain/invoice"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
	"github.com/lib/pq"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, tenant_id, store_id, customer_id, invoice_number, invoice_status,
			currency, issue_date, due_date, subtotal, tax_percent, tax_amount,
			total, amount_paid, amount_remaining, notes, paid_at, voided_at,
			finalized_at, pdf_url, idempotency_key, metadata, version,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :store_id, :customer_id, :invoice_number, :invoice_status,
			:currency, :issue_date, :due_date, :subtotal, :tax_percent, :tax_amount,
			:total, :amount_paid, :amount_remaining, :notes, :paid_at, :voided_at,
			:finalized_at, :pdf_url, :idempotency_key, :metadata, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"tenant_id", inv.TenantID,
		"customer_id", inv.CustomerID,
	)

	_, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ierr.WithError(err).
				WithHint("An invoice with this number or idempotency key already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}

	return r.insertLineItems(ctx, inv)
}

func (r *invoiceRepository) insertLineItems(ctx context.Context, inv *invoice.Invoice) error {
	if len(inv.LineItems) == 0 {
		return nil
	}

	query := `
		INSERT INTO invoice_line_items (
			id, tenant_id, invoice_id, description, quantity, unit_price,
			amount, currency, sort_order, status, created_at, updated_at,
			created_by, updated_by
		) VALUES (
			:id, :tenant_id, :invoice_id, :description, :quantity, :unit_price,
			:amount, :currency, :sort_order, :status, :created_at, :updated_at,
			:created_by, :updated_by
		)`

	for _, item := range inv.LineItems {
		if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create invoice line item").
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	query := `SELECT * FROM invoices WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("invoice not found").
				WithHintf("Invoice with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	items, err := r.getLineItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return &inv, nil
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	query := `SELECT * FROM invoices WHERE idempotency_key = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, key, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("invoice not found").
				WithHintf("No invoice with idempotency key %s", key).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	items, err := r.getLineItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return &inv, nil
}

func (r *invoiceRepository) getLineItems(ctx context.Context, invoiceID string) ([]*invoice.LineItem, error) {
	var items []*invoice.LineItem
	query := `
		SELECT * FROM invoice_line_items
		WHERE invoice_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY sort_order ASC`
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query,
		invoiceID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice line items").
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	var invoices []*invoice.Invoice

	// archived rows are hidden unless the caller is entitled to full history
	statuses := pq.Array([]string{string(types.StatusPublished)})
	if filter.IncludeArchived {
		statuses = pq.Array([]string{string(types.StatusPublished), string(types.StatusArchived)})
	}

	query := `
		SELECT * FROM invoices
		WHERE tenant_id = $1
		AND status = ANY($2)
		AND ($3 = '' OR store_id = $3)
		AND ($4 = '' OR customer_id = $4)
		AND ($5 = '' OR invoice_status = $5)
		AND ($6::timestamptz IS NULL OR issue_date >= $6)
		AND ($7::timestamptz IS NULL OR issue_date <= $7)
		ORDER BY created_at DESC
		LIMIT NULLIF($8, 0) OFFSET $9`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &invoices, query,
		types.GetTenantID(ctx),
		statuses,
		filter.StoreID,
		filter.CustomerID,
		string(filter.InvoiceStatus),
		filter.PeriodStart,
		filter.PeriodEnd,
		filter.GetLimit(),
		filter.GetOffset(),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}

	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	var count int

	statuses := pq.Array([]string{string(types.StatusPublished)})
	if filter.IncludeArchived {
		statuses = pq.Array([]string{string(types.StatusPublished), string(types.StatusArchived)})
	}

	query := `
		SELECT COUNT(*) FROM invoices
		WHERE tenant_id = $1
		AND status = ANY($2)
		AND ($3 = '' OR store_id = $3)
		AND ($4 = '' OR customer_id = $4)
		AND ($5 = '' OR invoice_status = $5)
		AND ($6::timestamptz IS NULL OR issue_date >= $6)
		AND ($7::timestamptz IS NULL OR issue_date <= $7)`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query,
		types.GetTenantID(ctx),
		statuses,
		filter.StoreID,
		filter.CustomerID,
		string(filter.InvoiceStatus),
		filter.PeriodStart,
		filter.PeriodEnd,
	)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = types.GetUserID(ctx)
	inv.Version++

	query := `
		UPDATE invoices SET
			customer_id = :customer_id,
			invoice_number = :invoice_number,
			invoice_status = :invoice_status,
			currency = :currency,
			issue_date = :issue_date,
			due_date = :due_date,
			subtotal = :subtotal,
			tax_percent = :tax_percent,
			tax_amount = :tax_amount,
			total = :total,
			amount_paid = :amount_paid,
			amount_remaining = :amount_remaining,
			notes = :notes,
			paid_at = :paid_at,
			voided_at = :voided_at,
			finalized_at = :finalized_at,
			pdf_url = :pdf_url,
			metadata = :metadata,
			version = :version,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND version = :version - 1`

	r.logger.Debugw("updating invoice",
		"invoice_id", inv.ID,
		"tenant_id", inv.TenantID,
		"version", inv.Version,
	)

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		inv.Version--
		return ierr.NewError("invoice was modified concurrently").
			WithHint("The invoice was changed by another request, retry with fresh data").
			Mark(ierr.ErrVersionConflict)
	}

	// replace line items
	delQuery := `
		UPDATE invoice_line_items SET status = $1, updated_at = $2, updated_by = $3
		WHERE invoice_id = $4 AND tenant_id = $5 AND status = $6`
	_, err = r.db.GetQuerier(ctx).ExecContext(ctx, delQuery,
		types.StatusDeleted,
		time.Now().UTC(),
		types.GetUserID(ctx),
		inv.ID,
		types.GetTenantID(ctx),
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to replace invoice line items").
			Mark(ierr.ErrDatabase)
	}

	return r.insertLineItems(ctx, inv)
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE invoices SET status = $1, updated_at = $2, updated_by = $3
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
			WithHint("Failed to delete invoice").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete invoice").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) CountCreatedInPeriod(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM invoices
		WHERE tenant_id = $1
		AND status != $2
		AND created_at >= $3 AND created_at < $4`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query,
		types.GetTenantID(ctx),
		types.StatusDeleted,
		start,
		end,
	)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices for the period").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *invoiceRepository) ArchiveBeyondRetention(ctx context.Context, keep int) (int, error) {
	query := `
		UPDATE invoices SET status = $1, updated_at = $2
		WHERE tenant_id = $3
		AND status = $4
		AND id NOT IN (
			SELECT id FROM invoices
			WHERE tenant_id = $3 AND status = $4
			ORDER BY created_at DESC
			LIMIT $5
		)`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.StatusArchived,
		time.Now().UTC(),
		types.GetTenantID(ctx),
		types.StatusPublished,
		keep,
	)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to archive invoices beyond retention").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to archive invoices beyond retention").
			Mark(ierr.ErrDatabase)
	}
	return int(affected), nil
}
