package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	syncdomain "github.com/invora/invora/internal/domain/sync"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// InMemorySyncStore implements sync.Repository
type InMemorySyncStore struct {
	*InMemoryStore[*syncdomain.Operation]
}

// NewInMemorySyncStore creates a new in-memory sync queue store
func NewInMemorySyncStore() *InMemorySyncStore {
	return &InMemorySyncStore{
		InMemoryStore: NewInMemoryStore[*syncdomain.Operation](),
	}
}

func copyOperation(op *syncdomain.Operation) *syncdomain.Operation {
	if op == nil {
		return nil
	}
	cp := *op
	cp.Payload = append([]byte(nil), op.Payload...)
	return &cp
}

func (s *InMemorySyncStore) CreateBatch(ctx context.Context, ops []*syncdomain.Operation) ([]*syncdomain.Operation, error) {
	inserted := make([]*syncdomain.Operation, 0, len(ops))
	for _, op := range ops {
		if s.sequenceExists(ctx, op.TenantID, op.DeviceID, op.Sequence) {
			continue
		}
		if err := s.InMemoryStore.Create(ctx, op.ID, copyOperation(op)); err != nil {
			return nil, err
		}
		inserted = append(inserted, op)
	}
	return inserted, nil
}

func (s *InMemorySyncStore) sequenceExists(ctx context.Context, tenantID, deviceID string, sequence int64) bool {
	filterFn := func(ctx context.Context, op *syncdomain.Operation, _ interface{}) bool {
		return op.TenantID == tenantID && op.DeviceID == deviceID && op.Sequence == sequence
	}
	count, _ := s.InMemoryStore.Count(ctx, nil, filterFn)
	return count > 0
}

func (s *InMemorySyncStore) Get(ctx context.Context, id string) (*syncdomain.Operation, error) {
	op, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || op.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("sync operation not found").
			WithHintf("Sync operation with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyOperation(op), nil
}

func (s *InMemorySyncStore) List(ctx context.Context, filter *types.SyncOperationFilter) ([]*syncdomain.Operation, error) {
	items, err := s.InMemoryStore.List(ctx, filter, syncFilterFn, syncSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(op *syncdomain.Operation, _ int) *syncdomain.Operation {
		return copyOperation(op)
	}), nil
}

func (s *InMemorySyncStore) Count(ctx context.Context, filter *types.SyncOperationFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, syncFilterFn)
}

func (s *InMemorySyncStore) ListPendingDevices(ctx context.Context) ([]syncdomain.PendingDevice, error) {
	filterFn := func(ctx context.Context, op *syncdomain.Operation, _ interface{}) bool {
		return op.SyncStatus == types.SyncStatusPending
	}

	ops, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*syncdomain.PendingDevice)
	for _, op := range ops {
		key := fmt.Sprintf("%s:%s", op.TenantID, op.DeviceID)
		if d, ok := grouped[key]; ok {
			d.Pending++
			continue
		}
		grouped[key] = &syncdomain.PendingDevice{
			TenantID: op.TenantID,
			DeviceID: op.DeviceID,
			UserID:   op.CreatedBy,
			Pending:  1,
		}
	}

	devices := lo.Map(lo.Values(grouped), func(d *syncdomain.PendingDevice, _ int) syncdomain.PendingDevice {
		return *d
	})
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].TenantID != devices[j].TenantID {
			return devices[i].TenantID < devices[j].TenantID
		}
		return devices[i].DeviceID < devices[j].DeviceID
	})
	return devices, nil
}

func (s *InMemorySyncStore) ListPendingByDevice(ctx context.Context, deviceID string, limit int) ([]*syncdomain.Operation, error) {
	filterFn := func(ctx context.Context, op *syncdomain.Operation, _ interface{}) bool {
		return op.TenantID == types.GetTenantID(ctx) &&
			op.DeviceID == deviceID &&
			op.SyncStatus == types.SyncStatusPending
	}
	sortFn := func(i, j *syncdomain.Operation) bool {
		return i.Sequence < j.Sequence
	}

	ops, err := s.InMemoryStore.List(ctx, nil, filterFn, sortFn)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ops) > limit {
		ops = ops[:limit]
	}
	return lo.Map(ops, func(op *syncdomain.Operation, _ int) *syncdomain.Operation {
		return copyOperation(op)
	}), nil
}

func (s *InMemorySyncStore) Update(ctx context.Context, op *syncdomain.Operation) error {
	op.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, op.ID, copyOperation(op))
}

// syncFilterFn implements filtering logic for sync operations
func syncFilterFn(ctx context.Context, op *syncdomain.Operation, filter interface{}) bool {
	if op.TenantID != types.GetTenantID(ctx) {
		return false
	}
	f, ok := filter.(*types.SyncOperationFilter)
	if !ok {
		return true
	}
	if f.DeviceID != "" && op.DeviceID != f.DeviceID {
		return false
	}
	if f.SyncStatus != "" && op.SyncStatus != f.SyncStatus {
		return false
	}
	if f.EntityType != "" && op.EntityType != f.EntityType {
		return false
	}
	if f.AppliedAfter != nil && (op.AppliedAt == nil || !op.AppliedAt.After(*f.AppliedAfter)) {
		return false
	}
	return true
}

func syncSortFn(i, j *syncdomain.Operation) bool {
	if i.DeviceID != j.DeviceID {
		return i.DeviceID < j.DeviceID
	}
	return i.Sequence < j.Sequence
}
