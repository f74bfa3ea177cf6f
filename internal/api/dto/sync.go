package dto

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	syncdomain "github.com/invora/invora/internal/domain/sync"
	"github.com/invora/invora/internal/types"
)

// EnqueueSyncOperationRequest is one queued client mutation
type EnqueueSyncOperationRequest struct {
	Sequence    int64                `json:"sequence" validate:"min=0"`
	EntityType  types.SyncEntityType `json:"entity_type" validate:"required"`
	EntityID    string               `json:"entity_id" validate:"required"`
	OpType      types.SyncOpType     `json:"op_type" validate:"required"`
	Payload     json.RawMessage      `json:"payload"`
	BaseVersion int                  `json:"base_version" validate:"min=0"`
	RecordedAt  time.Time            `json:"recorded_at"`
}

// EnqueueSyncBatchRequest pushes a batch of queued mutations from one device
type EnqueueSyncBatchRequest struct {
	Operations []EnqueueSyncOperationRequest `json:"operations" validate:"required,min=1,dive"`
}

type SyncOperationResponse struct {
	*syncdomain.Operation
}

// EnqueueSyncBatchResponse reports what the server accepted
type EnqueueSyncBatchResponse struct {
	Accepted   int                      `json:"accepted"`
	Duplicates int                      `json:"duplicates"`
	Operations []*SyncOperationResponse `json:"operations"`
}

// SyncStatusResponse summarizes a device's queue state
type SyncStatusResponse struct {
	DeviceID  string `json:"device_id"`
	Pending   int    `json:"pending"`
	Failed    int    `json:"failed"`
	Conflicts int    `json:"conflicts"`
}

// DeviceQueueDepth is one device's outstanding queue size
type DeviceQueueDepth struct {
	TenantID string `json:"tenant_id"`
	DeviceID string `json:"device_id"`
	Pending  int    `json:"pending"`
}

// SyncQueueDepthResponse summarizes queued work across tenants (admin)
type SyncQueueDepthResponse struct {
	TotalPending int                `json:"total_pending"`
	Devices      []DeviceQueueDepth `json:"devices"`
}

// ListSyncOperationsResponse represents the response for listing sync operations
type ListSyncOperationsResponse = types.ListResponse[*SyncOperationResponse]

func (r *EnqueueSyncBatchRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return err
	}
	for i := range r.Operations {
		op := &r.Operations[i]
		if err := op.EntityType.Validate(); err != nil {
			return err
		}
		if err := op.OpType.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToOperations builds queued operations for the device in context
func (r *EnqueueSyncBatchRequest) ToOperations(ctx context.Context, deviceID string) []*syncdomain.Operation {
	ops := make([]*syncdomain.Operation, 0, len(r.Operations))
	for _, opReq := range r.Operations {
		recordedAt := opReq.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now().UTC()
		}
		ops = append(ops, &syncdomain.Operation{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SYNC_OP),
			DeviceID:    deviceID,
			Sequence:    opReq.Sequence,
			EntityType:  opReq.EntityType,
			EntityID:    opReq.EntityID,
			OpType:      opReq.OpType,
			Payload:     opReq.Payload,
			BaseVersion: opReq.BaseVersion,
			RecordedAt:  recordedAt,
			SyncStatus:  types.SyncStatusPending,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
	}
	return ops
}
