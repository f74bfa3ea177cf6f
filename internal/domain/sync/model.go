package sync

import (
	"encoding/json"
	"time"

	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// Operation is a single mutation a device recorded while offline.
// Operations are replayed server side in per-device sequence order.
type Operation struct {
	// ID is the unique identifier for the operation
	ID string `db:"id" json:"id"`

	// DeviceID identifies the client device that queued the operation
	DeviceID string `db:"device_id" json:"device_id"`

	// Sequence is the device's monotonic operation counter. Together with
	// DeviceID it makes enqueueing idempotent.
	Sequence int64 `db:"sequence" json:"sequence"`

	// EntityType is the domain entity the mutation targets
	EntityType types.SyncEntityType `db:"entity_type" json:"entity_type"`

	// EntityID is the client-side identifier of the target entity
	EntityID string `db:"entity_id" json:"entity_id"`

	// OpType is the kind of mutation
	OpType types.SyncOpType `db:"op_type" json:"op_type"`

	// Payload is the JSON-encoded entity state recorded by the client
	Payload json.RawMessage `db:"payload" json:"payload"`

	// BaseVersion is the entity version the client last saw. A server row
	// with a higher version means the operation conflicts.
	BaseVersion int `db:"base_version" json:"base_version"`

	// RecordedAt is the client-side wall clock time of the mutation
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`

	// SyncStatus tracks the operation through replay
	SyncStatus types.SyncStatus `db:"sync_status" json:"sync_status"`

	// Attempts counts replay attempts so far
	Attempts int `db:"attempts" json:"attempts"`

	// LastError holds the most recent replay failure
	LastError string `db:"last_error" json:"last_error,omitempty"`

	// AppliedAt is set when the operation was applied to server state
	AppliedAt *time.Time `db:"applied_at" json:"applied_at,omitempty"`

	types.BaseModel
}

func (o *Operation) Validate() error {
	if o.DeviceID == "" {
		return ierr.NewError("device id is required").
			WithHint("Sync operation must carry a device ID").
			Mark(ierr.ErrValidation)
	}
	if o.Sequence < 0 {
		return ierr.NewError("invalid sequence").
			WithHint("Sequence must be non negative").
			Mark(ierr.ErrValidation)
	}
	if err := o.EntityType.Validate(); err != nil {
		return err
	}
	if err := o.OpType.Validate(); err != nil {
		return err
	}
	if o.OpType != types.SyncOpDelete && len(o.Payload) == 0 {
		return ierr.NewError("payload is required").
			WithHint("Create and update operations must carry a payload").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChangeEvent is pushed to connected devices after a mutation is applied
type ChangeEvent struct {
	ID         string               `json:"id"`
	TenantID   string               `json:"tenant_id"`
	EntityType types.SyncEntityType `json:"entity_type"`
	EntityID   string               `json:"entity_id"`
	OpType     types.SyncOpType     `json:"op_type"`
	// SourceDeviceID lets devices skip their own echoes
	SourceDeviceID string    `json:"source_device_id,omitempty"`
	Version        int       `json:"version"`
	OccurredAt     time.Time `json:"occurred_at"`
}
