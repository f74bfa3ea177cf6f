package service

import (
	"context"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/store"
	"github.com/invora/invora/internal/domain/subscription"
	syncdomain "github.com/invora/invora/internal/domain/sync"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// AdminService serves the back office. All operations are cross tenant and
// must only be reachable behind the admin claim.
type AdminService interface {
	ListAllStores(ctx context.Context, filter *types.StoreFilter) (*dto.ListStoresResponse, error)
	ListAllSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)
	// GetSyncQueueDepth reports devices with queued work across tenants
	GetSyncQueueDepth(ctx context.Context) (*dto.SyncQueueDepthResponse, error)

	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
}

type adminService struct {
	ServiceParams
}

func NewAdminService(params ServiceParams) AdminService {
	return &adminService{ServiceParams: params}
}

func (s *adminService) requireAdmin(ctx context.Context) error {
	if !types.IsAdmin(ctx) {
		return ierr.NewError("admin access required").
			WithHint("This operation is restricted to back office admins").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

func (s *adminService) ListAllStores(ctx context.Context, filter *types.StoreFilter) (*dto.ListStoresResponse, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if filter == nil {
		filter = &types.StoreFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	stores, err := s.StoreRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.StoreRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(stores, func(st *store.Store, _ int) *dto.StoreResponse {
		return &dto.StoreResponse{Store: st}
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *adminService) ListAllSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if filter == nil {
		filter = &types.SubscriptionFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse {
		return &dto.SubscriptionResponse{Subscription: sub}
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *adminService) GetSyncQueueDepth(ctx context.Context) (*dto.SyncQueueDepthResponse, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	devices, err := s.SyncRepo.ListPendingDevices(ctx)
	if err != nil {
		return nil, err
	}

	response := &dto.SyncQueueDepthResponse{
		Devices: lo.Map(devices, func(d syncdomain.PendingDevice, _ int) dto.DeviceQueueDepth {
			return dto.DeviceQueueDepth{
				TenantID: d.TenantID,
				DeviceID: d.DeviceID,
				Pending:  d.Pending,
			}
		}),
	}
	for _, d := range devices {
		response.TotalPending += d.Pending
	}
	return response, nil
}

func (s *adminService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPlan(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.PlanRepo.GetByLookupKey(ctx, p.LookupKey); err == nil {
		return nil, ierr.NewError("plan lookup key already in use").
			WithHintf("A plan with lookup key %s already exists", p.LookupKey).
			Mark(ierr.ErrAlreadyExists)
	} else if !ierr.IsNotFound(err) {
		return nil, err
	}

	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	return &dto.PlanResponse{Plan: p}, nil
}

func (s *adminService) UpdatePlan(ctx context.Context, id string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(p)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	return &dto.PlanResponse{Plan: p}, nil
}
