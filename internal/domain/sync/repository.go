package sync

import (
	"context"

	"github.com/invora/invora/internal/types"
)

// Repository defines the interface for sync queue data access
type Repository interface {
	// CreateBatch inserts queued operations, skipping rows whose
	// (device_id, sequence) pair already exists. Returns the operations
	// actually inserted.
	CreateBatch(ctx context.Context, ops []*Operation) ([]*Operation, error)
	Get(ctx context.Context, id string) (*Operation, error)
	List(ctx context.Context, filter *types.SyncOperationFilter) ([]*Operation, error)
	Count(ctx context.Context, filter *types.SyncOperationFilter) (int, error)
	// ListPendingDevices returns device IDs with pending operations,
	// across tenants, for the replay worker
	ListPendingDevices(ctx context.Context) ([]PendingDevice, error)
	// ListPendingByDevice returns the device's pending operations in
	// sequence order, capped at limit
	ListPendingByDevice(ctx context.Context, deviceID string, limit int) ([]*Operation, error)
	Update(ctx context.Context, op *Operation) error
}

// PendingDevice identifies a device with queued work and its tenant,
// needed because the worker runs outside any request context
type PendingDevice struct {
	TenantID string `db:"tenant_id"`
	DeviceID string `db:"device_id"`
	UserID   string `db:"created_by"`
	Pending  int    `db:"pending"`
}
