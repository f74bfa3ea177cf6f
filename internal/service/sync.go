package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/invora/invora/internal/api/dto"
	syncdomain "github.com/invora/invora/internal/domain/sync"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/idempotency"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// SyncService accepts offline write queues from devices and replays them
// against the domain services in per-device sequence order
type SyncService interface {
	// EnqueueBatch stores a device's queued mutations. Re-sent batches are
	// deduplicated on (device_id, sequence).
	EnqueueBatch(ctx context.Context, deviceID string, req dto.EnqueueSyncBatchRequest) (*dto.EnqueueSyncBatchResponse, error)
	GetSyncStatus(ctx context.Context, deviceID string) (*dto.SyncStatusResponse, error)
	ListOperations(ctx context.Context, filter *types.SyncOperationFilter) (*dto.ListSyncOperationsResponse, error)

	// ListChangesSince returns change events for operations applied after
	// the cursor, excluding the requesting device's own mutations. Devices
	// use it to catch up on changes missed between polls.
	ListChangesSince(ctx context.Context, deviceID string, since time.Time) ([]syncdomain.ChangeEvent, error)

	// ProcessPending scans all devices with queued work and replays each
	// queue, used by the background worker
	ProcessPending(ctx context.Context) error
	// ProcessDevice replays one device's queue in sequence order. At most
	// one replay runs per device at a time.
	ProcessDevice(ctx context.Context, deviceID string) error
}

type syncService struct {
	ServiceParams
	customerService     CustomerService
	invoiceService      InvoiceService
	preferencesService  PreferencesService
	subscriptionService SubscriptionService

	// inFlight holds one entry per device currently replaying
	inFlight sync.Map
}

func NewSyncService(params ServiceParams) SyncService {
	return &syncService{
		ServiceParams:       params,
		customerService:     NewCustomerService(params),
		invoiceService:      NewInvoiceService(params),
		preferencesService:  NewPreferencesService(params),
		subscriptionService: NewSubscriptionService(params),
	}
}

func (s *syncService) EnqueueBatch(ctx context.Context, deviceID string, req dto.EnqueueSyncBatchRequest) (*dto.EnqueueSyncBatchResponse, error) {
	if deviceID == "" {
		return nil, ierr.NewError("device id is required").
			WithHintf("Send the device identifier in the %s header", types.HeaderDeviceID).
			Mark(ierr.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ops := req.ToOperations(ctx, deviceID)
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.rejectDivergentResends(ctx, deviceID, ops); err != nil {
		return nil, err
	}

	inserted, err := s.SyncRepo.CreateBatch(ctx, ops)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("enqueued sync batch",
		"device_id", deviceID,
		"received", len(ops),
		"accepted", len(inserted),
	)

	return &dto.EnqueueSyncBatchResponse{
		Accepted:   len(inserted),
		Duplicates: len(ops) - len(inserted),
		Operations: lo.Map(inserted, func(op *syncdomain.Operation, _ int) *dto.SyncOperationResponse {
			return &dto.SyncOperationResponse{Operation: op}
		}),
	}, nil
}

// rejectDivergentResends rejects a batch that re-uses an already queued
// sequence number with a different mutation. A recovering client resends
// the exact operations it recorded, so divergence means the device
// rewrote its queue and its view of history no longer matches the server.
func (s *syncService) rejectDivergentResends(ctx context.Context, deviceID string, ops []*syncdomain.Operation) error {
	existing, err := s.SyncRepo.List(ctx, &types.SyncOperationFilter{
		QueryFilter: *types.NewNoLimitQueryFilter(),
		DeviceID:    deviceID,
	})
	if err != nil {
		return err
	}

	bySequence := lo.KeyBy(existing, func(op *syncdomain.Operation) int64 {
		return op.Sequence
	})
	for _, op := range ops {
		prior, ok := bySequence[op.Sequence]
		if !ok {
			continue
		}
		if prior.EntityType != op.EntityType ||
			prior.EntityID != op.EntityID ||
			prior.OpType != op.OpType ||
			!bytes.Equal(prior.Payload, op.Payload) {
			return ierr.NewError("sync batch diverges from the queued history").
				WithHintf("Sequence %d was already enqueued with a different operation", op.Sequence).
				WithReportableDetails(map[string]any{
					"device_id": deviceID,
					"sequence":  op.Sequence,
				}).
				Mark(ierr.ErrSyncConflict)
		}
	}
	return nil
}

func (s *syncService) GetSyncStatus(ctx context.Context, deviceID string) (*dto.SyncStatusResponse, error) {
	if deviceID == "" {
		return nil, ierr.NewError("device id is required").
			WithHintf("Send the device identifier in the %s header", types.HeaderDeviceID).
			Mark(ierr.ErrValidation)
	}

	status := &dto.SyncStatusResponse{DeviceID: deviceID}

	for _, entry := range []struct {
		status types.SyncStatus
		target *int
	}{
		{types.SyncStatusPending, &status.Pending},
		{types.SyncStatusFailed, &status.Failed},
		{types.SyncStatusConflict, &status.Conflicts},
	} {
		filter := &types.SyncOperationFilter{
			QueryFilter: *types.NewNoLimitQueryFilter(),
			DeviceID:    deviceID,
			SyncStatus:  entry.status,
		}
		count, err := s.SyncRepo.Count(ctx, filter)
		if err != nil {
			return nil, err
		}
		*entry.target = count
	}

	return status, nil
}

func (s *syncService) ListOperations(ctx context.Context, filter *types.SyncOperationFilter) (*dto.ListSyncOperationsResponse, error) {
	if filter == nil {
		filter = &types.SyncOperationFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	ops, err := s.SyncRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.SyncRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(ops, func(op *syncdomain.Operation, _ int) *dto.SyncOperationResponse {
		return &dto.SyncOperationResponse{Operation: op}
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *syncService) ListChangesSince(ctx context.Context, deviceID string, since time.Time) ([]syncdomain.ChangeEvent, error) {
	filter := &types.SyncOperationFilter{
		QueryFilter:  *types.NewNoLimitQueryFilter(),
		SyncStatus:   types.SyncStatusApplied,
		AppliedAfter: &since,
	}

	ops, err := s.SyncRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	changes := make([]syncdomain.ChangeEvent, 0, len(ops))
	for _, op := range ops {
		if op.DeviceID == deviceID {
			continue
		}
		changes = append(changes, syncdomain.ChangeEvent{
			ID:             op.ID,
			TenantID:       op.TenantID,
			EntityType:     op.EntityType,
			EntityID:       op.EntityID,
			OpType:         op.OpType,
			SourceDeviceID: op.DeviceID,
			Version:        op.BaseVersion + 1,
			OccurredAt:     *op.AppliedAt,
		})
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].OccurredAt.Before(changes[j].OccurredAt)
	})
	return changes, nil
}

func (s *syncService) ProcessPending(ctx context.Context) error {
	devices, err := s.SyncRepo.ListPendingDevices(ctx)
	if err != nil {
		return err
	}

	for _, device := range devices {
		deviceCtx := types.SetTenantID(ctx, device.TenantID)
		deviceCtx = types.SetUserID(deviceCtx, device.UserID)
		deviceCtx = types.SetDeviceID(deviceCtx, device.DeviceID)

		if err := s.ProcessDevice(deviceCtx, device.DeviceID); err != nil {
			s.Logger.Errorw("device replay failed",
				"error", err,
				"device_id", device.DeviceID,
				"tenant_id", device.TenantID,
			)
		}
	}
	return nil
}

func (s *syncService) ProcessDevice(ctx context.Context, deviceID string) error {
	if _, running := s.inFlight.LoadOrStore(deviceID, struct{}{}); running {
		s.Logger.Debugw("replay already running for device", "device_id", deviceID)
		return nil
	}
	defer s.inFlight.Delete(deviceID)

	ops, err := s.SyncRepo.ListPendingByDevice(ctx, deviceID, s.Config.Sync.BatchSize)
	if err != nil {
		return err
	}

	appliedInvoiceOps := false
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.replayOperation(ctx, op); err != nil {
			// a still-pending operation blocks the rest of the queue,
			// sequence order must hold
			if op.SyncStatus == types.SyncStatusPending {
				return err
			}
		}
		if op.SyncStatus == types.SyncStatusApplied && op.EntityType == types.SyncEntityInvoice {
			appliedInvoiceOps = true
		}
	}

	if appliedInvoiceOps {
		s.reconcileRetention(ctx, deviceID)
	}
	return nil
}

// reconcileRetention re-applies the plan's history cap after replayed
// invoice mutations, replayed backlogs can push free tenants past it
func (s *syncService) reconcileRetention(ctx context.Context, deviceID string) {
	p, err := s.subscriptionService.ResolveCurrentPlan(ctx)
	if err != nil {
		s.Logger.Errorw("failed to resolve plan after replay",
			"error", err,
			"device_id", deviceID)
		return
	}
	if p.HistoryRetentionLimit <= 0 {
		return
	}

	archived, err := s.InvoiceRepo.ArchiveBeyondRetention(ctx, p.HistoryRetentionLimit)
	if err != nil {
		s.Logger.Errorw("failed to apply history retention after replay",
			"error", err,
			"device_id", deviceID)
	} else if archived > 0 {
		s.Logger.Infow("archived invoices beyond plan retention",
			"device_id", deviceID,
			"archived", archived,
			"retention", p.HistoryRetentionLimit)
	}
}

// replayOperation applies one queued mutation, retrying transient errors
// with exponential backoff. It updates the operation's status in place.
func (s *syncService) replayOperation(ctx context.Context, op *syncdomain.Operation) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.Config.Sync.InitialInterval
	bo.MaxInterval = s.Config.Sync.MaxInterval
	bo.MaxElapsedTime = 0

	remaining := s.Config.Sync.MaxAttempts - op.Attempts
	if remaining < 1 {
		remaining = 1
	}

	attempt := func() error {
		op.Attempts++
		err := s.applyOperation(ctx, op)
		if err != nil && !isTransientSyncError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(remaining-1)), ctx))

	now := time.Now().UTC()
	switch {
	case err == nil:
		op.SyncStatus = types.SyncStatusApplied
		op.LastError = ""
		op.AppliedAt = &now
	case ierr.IsVersionConflict(err):
		// the server row moved past the client's base version, newer
		// server state wins and the conflict is surfaced to the device
		op.SyncStatus = types.SyncStatusConflict
		op.LastError = err.Error()
	case isTransientSyncError(err) && op.Attempts < s.Config.Sync.MaxAttempts:
		op.LastError = err.Error()
	default:
		op.SyncStatus = types.SyncStatusFailed
		op.LastError = err.Error()
	}

	if updateErr := s.SyncRepo.Update(ctx, op); updateErr != nil {
		return updateErr
	}

	if op.SyncStatus == types.SyncStatusApplied {
		s.publishChangeEvent(ctx, op)
	}

	if err != nil {
		s.Logger.Warnw("sync operation not applied",
			"operation_id", op.ID,
			"device_id", op.DeviceID,
			"sequence", op.Sequence,
			"sync_status", op.SyncStatus,
			"attempts", op.Attempts,
			"error", err,
		)
	}
	return err
}

// isTransientSyncError reports whether a replay failure may succeed on a
// later attempt. Validation, conflicts and plan limits never will.
func isTransientSyncError(err error) bool {
	switch {
	case ierr.IsValidation(err),
		ierr.IsNotFound(err),
		ierr.IsAlreadyExists(err),
		ierr.IsVersionConflict(err),
		ierr.IsInvalidOperation(err),
		ierr.IsPermissionDenied(err),
		ierr.IsTierLimitExceeded(err),
		ierr.IsSyncConflict(err):
		return false
	default:
		return true
	}
}

func (s *syncService) applyOperation(ctx context.Context, op *syncdomain.Operation) error {
	switch op.EntityType {
	case types.SyncEntityCustomer:
		return s.applyCustomerOperation(ctx, op)
	case types.SyncEntityInvoice:
		return s.applyInvoiceOperation(ctx, op)
	case types.SyncEntityPreferences:
		return s.applyPreferencesOperation(ctx, op)
	default:
		return ierr.NewError("unsupported sync entity type").
			WithHintf("Entity type %s cannot be synced", op.EntityType).
			Mark(ierr.ErrValidation)
	}
}

func (s *syncService) applyCustomerOperation(ctx context.Context, op *syncdomain.Operation) error {
	switch op.OpType {
	case types.SyncOpCreate:
		var req dto.CreateCustomerRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return markMalformedPayload(err)
		}
		// the client-side ID becomes the external ID so later operations
		// can address the row
		if req.ExternalID == "" {
			req.ExternalID = op.EntityID
		}
		_, err := s.customerService.CreateCustomer(ctx, req)
		if ierr.IsAlreadyExists(err) {
			return nil
		}
		return err
	case types.SyncOpUpdate:
		var req dto.UpdateCustomerRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return markMalformedPayload(err)
		}
		req.Version = lo.ToPtr(op.BaseVersion)
		cust, err := s.resolveCustomer(ctx, op.EntityID)
		if err != nil {
			return err
		}
		_, err = s.customerService.UpdateCustomer(ctx, cust.ID, req)
		return err
	case types.SyncOpDelete:
		cust, err := s.resolveCustomer(ctx, op.EntityID)
		if err != nil {
			return err
		}
		return s.customerService.DeleteCustomer(ctx, cust.ID)
	default:
		return ierr.NewError("unsupported sync operation").
			WithHintf("Operation %s is not supported for customers", op.OpType).
			Mark(ierr.ErrValidation)
	}
}

// resolveCustomer accepts either a server ID or the client's external ID
func (s *syncService) resolveCustomer(ctx context.Context, entityID string) (*dto.CustomerResponse, error) {
	cust, err := s.customerService.GetCustomer(ctx, entityID)
	if err == nil {
		return cust, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}
	return s.customerService.GetCustomerByExternalID(ctx, entityID)
}

func (s *syncService) applyInvoiceOperation(ctx context.Context, op *syncdomain.Operation) error {
	switch op.OpType {
	case types.SyncOpCreate:
		var req dto.CreateInvoiceRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return markMalformedPayload(err)
		}
		// a deterministic idempotency key makes replayed creates return
		// the stored invoice instead of a duplicate
		if req.IdempotencyKey == nil {
			key := idempotency.NewGenerator().GenerateKey(idempotency.ScopeSyncOp, map[string]interface{}{
				"device_id": op.DeviceID,
				"sequence":  op.Sequence,
			})
			req.IdempotencyKey = &key
		}
		_, err := s.invoiceService.CreateInvoice(ctx, req)
		return err
	case types.SyncOpUpdate:
		var req dto.UpdateInvoiceRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return markMalformedPayload(err)
		}
		req.Version = lo.ToPtr(op.BaseVersion)
		_, err := s.invoiceService.UpdateInvoice(ctx, op.EntityID, req)
		return err
	case types.SyncOpDelete:
		return s.invoiceService.DeleteInvoice(ctx, op.EntityID)
	default:
		return ierr.NewError("unsupported sync operation").
			WithHintf("Operation %s is not supported for invoices", op.OpType).
			Mark(ierr.ErrValidation)
	}
}

func (s *syncService) applyPreferencesOperation(ctx context.Context, op *syncdomain.Operation) error {
	// preferences are an upsert, create and update replay identically
	if op.OpType == types.SyncOpDelete {
		return ierr.NewError("preferences cannot be deleted").
			WithHint("Preferences only support create and update").
			Mark(ierr.ErrValidation)
	}

	var req dto.UpdatePreferencesRequest
	if err := json.Unmarshal(op.Payload, &req); err != nil {
		return markMalformedPayload(err)
	}
	_, err := s.preferencesService.UpdatePreferences(ctx, req)
	return err
}

func markMalformedPayload(err error) error {
	return ierr.WithError(err).
		WithHint("Operation payload is not valid JSON for the entity").
		Mark(ierr.ErrValidation)
}

// publishChangeEvent fans the applied mutation out to connected devices
func (s *syncService) publishChangeEvent(ctx context.Context, op *syncdomain.Operation) {
	event := syncdomain.ChangeEvent{
		ID:             types.GenerateUUID(),
		TenantID:       types.GetTenantID(ctx),
		EntityType:     op.EntityType,
		EntityID:       op.EntityID,
		OpType:         op.OpType,
		SourceDeviceID: op.DeviceID,
		Version:        op.BaseVersion + 1,
		OccurredAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.Logger.Errorw("failed to marshal change event", "error", err)
		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("source_device_id", event.SourceDeviceID)

	if err := s.PubSub.Publish(ctx, types.SyncChangesTopic, msg); err != nil {
		s.Logger.Errorw("failed to publish change event",
			"error", err,
			"entity_type", op.EntityType,
			"entity_id", op.EntityID,
		)
	}
}
