package postgres

import (
	"context"
	"database/sql"
	"time"

	syncdomain "github.com/invora/invora/internal/domain/sync"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	"github.com/invora/invora/internal/types"
)

type syncRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSyncRepository(db *postgres.DB, logger *logger.Logger) syncdomain.Repository {
	return &syncRepository{db: db, logger: logger}
}

// CreateBatch inserts the operations one by one so a duplicate
// (device_id, sequence) pair is skipped without failing the batch.
// Clients retry whole batches after network loss, so duplicates are the
// normal case, not an error.
func (r *syncRepository) CreateBatch(ctx context.Context, ops []*syncdomain.Operation) ([]*syncdomain.Operation, error) {
	query := `
		INSERT INTO sync_operations (
			id, tenant_id, device_id, sequence, entity_type, entity_id,
			op_type, payload, base_version, recorded_at, sync_status,
			attempts, last_error, applied_at,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :device_id, :sequence, :entity_type, :entity_id,
			:op_type, :payload, :base_version, :recorded_at, :sync_status,
			:attempts, :last_error, :applied_at,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
		ON CONFLICT (tenant_id, device_id, sequence) DO NOTHING`

	inserted := make([]*syncdomain.Operation, 0, len(ops))
	for _, op := range ops {
		result, err := r.db.NamedExecContext(ctx, query, op)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to enqueue sync operation").
				Mark(ierr.ErrDatabase)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to enqueue sync operation").
				Mark(ierr.ErrDatabase)
		}
		if affected > 0 {
			inserted = append(inserted, op)
		} else {
			r.logger.Debugw("skipping duplicate sync operation",
				"device_id", op.DeviceID,
				"sequence", op.Sequence,
			)
		}
	}
	return inserted, nil
}

func (r *syncRepository) Get(ctx context.Context, id string) (*syncdomain.Operation, error) {
	var op syncdomain.Operation
	query := `SELECT * FROM sync_operations WHERE id = $1 AND tenant_id = $2`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &op, query, id, types.GetTenantID(ctx))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("sync operation not found").
				WithHintf("Sync operation with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get sync operation").
			Mark(ierr.ErrDatabase)
	}
	return &op, nil
}

func (r *syncRepository) List(ctx context.Context, filter *types.SyncOperationFilter) ([]*syncdomain.Operation, error) {
	var ops []*syncdomain.Operation
	query := `
		SELECT * FROM sync_operations
		WHERE tenant_id = $1
		AND ($2 = '' OR device_id = $2)
		AND ($3 = '' OR sync_status = $3)
		AND ($4 = '' OR entity_type = $4)
		AND ($5::timestamptz IS NULL OR applied_at > $5)
		ORDER BY device_id ASC, sequence ASC
		LIMIT NULLIF($6, 0) OFFSET $7`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &ops, query,
		types.GetTenantID(ctx),
		filter.DeviceID,
		string(filter.SyncStatus),
		string(filter.EntityType),
		filter.AppliedAfter,
		filter.GetLimit(),
		filter.GetOffset(),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list sync operations").
			Mark(ierr.ErrDatabase)
	}
	return ops, nil
}

func (r *syncRepository) Count(ctx context.Context, filter *types.SyncOperationFilter) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM sync_operations
		WHERE tenant_id = $1
		AND ($2 = '' OR device_id = $2)
		AND ($3 = '' OR sync_status = $3)
		AND ($4 = '' OR entity_type = $4)
		AND ($5::timestamptz IS NULL OR applied_at > $5)`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query,
		types.GetTenantID(ctx),
		filter.DeviceID,
		string(filter.SyncStatus),
		string(filter.EntityType),
		filter.AppliedAfter,
	)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count sync operations").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

// ListPendingDevices runs without a tenant in context. The replay worker
// uses the returned tenant and user IDs to build a context per device.
func (r *syncRepository) ListPendingDevices(ctx context.Context) ([]syncdomain.PendingDevice, error) {
	var devices []syncdomain.PendingDevice
	query := `
		SELECT tenant_id, device_id, MIN(created_by) AS created_by, COUNT(*) AS pending
		FROM sync_operations
		WHERE sync_status = $1
		GROUP BY tenant_id, device_id
		ORDER BY tenant_id, device_id`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &devices, query, types.SyncStatusPending)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list devices with pending operations").
			Mark(ierr.ErrDatabase)
	}
	return devices, nil
}

func (r *syncRepository) ListPendingByDevice(ctx context.Context, deviceID string, limit int) ([]*syncdomain.Operation, error) {
	var ops []*syncdomain.Operation
	query := `
		SELECT * FROM sync_operations
		WHERE tenant_id = $1 AND device_id = $2 AND sync_status = $3
		ORDER BY sequence ASC
		LIMIT $4`

	err := r.db.GetQuerier(ctx).SelectContext(ctx, &ops, query,
		types.GetTenantID(ctx), deviceID, types.SyncStatusPending, limit)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list pending sync operations").
			Mark(ierr.ErrDatabase)
	}
	return ops, nil
}

func (r *syncRepository) Update(ctx context.Context, op *syncdomain.Operation) error {
	op.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sync_operations SET
			sync_status = :sync_status,
			attempts = :attempts,
			last_error = :last_error,
			applied_at = :applied_at,
			updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, op)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update sync operation").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update sync operation").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("sync operation not found").
			WithHintf("Sync operation with ID %s was not found", op.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
