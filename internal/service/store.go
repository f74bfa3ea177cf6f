package service

import (
	"context"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/store"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// StoreService manages the tenant's business profiles
type StoreService interface {
	CreateStore(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error)
	GetStore(ctx context.Context, id string) (*dto.StoreResponse, error)
	GetDefaultStore(ctx context.Context) (*dto.StoreResponse, error)
	ListStores(ctx context.Context, filter *types.StoreFilter) (*dto.ListStoresResponse, error)
	UpdateStore(ctx context.Context, id string, req dto.UpdateStoreRequest) (*dto.StoreResponse, error)
	DeleteStore(ctx context.Context, id string) error
}

type storeService struct {
	ServiceParams
}

func NewStoreService(params ServiceParams) StoreService {
	return &storeService{ServiceParams: params}
}

func (s *storeService) CreateStore(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st := req.ToStore(ctx)
	if err := st.Validate(); err != nil {
		return nil, err
	}

	if err := s.StoreRepo.Create(ctx, st); err != nil {
		return nil, err
	}

	return &dto.StoreResponse{Store: st}, nil
}

func (s *storeService) GetStore(ctx context.Context, id string) (*dto.StoreResponse, error) {
	st, err := s.StoreRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.StoreResponse{Store: st}, nil
}

func (s *storeService) GetDefaultStore(ctx context.Context) (*dto.StoreResponse, error) {
	st, err := s.StoreRepo.GetDefault(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.StoreResponse{Store: st}, nil
}

func (s *storeService) ListStores(ctx context.Context, filter *types.StoreFilter) (*dto.ListStoresResponse, error) {
	if filter == nil {
		filter = &types.StoreFilter{QueryFilter: *types.NewDefaultQueryFilter()}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	// tenants only ever see their own stores, cross tenant listing is
	// reserved for the back office
	filter.TenantID = types.GetTenantID(ctx)

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

func (s *storeService) UpdateStore(ctx context.Context, id string, req dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, err := s.StoreRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(st)

	if err := st.Validate(); err != nil {
		return nil, err
	}

	if err := s.StoreRepo.Update(ctx, st); err != nil {
		return nil, err
	}

	return &dto.StoreResponse{Store: st}, nil
}

func (s *storeService) DeleteStore(ctx context.Context, id string) error {
	st, err := s.StoreRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	// keep at least one store so invoices always have a biller profile
	filter := &types.StoreFilter{
		QueryFilter: *types.NewNoLimitQueryFilter(),
		TenantID:    types.GetTenantID(ctx),
	}
	count, err := s.StoreRepo.Count(ctx, filter)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ierr.NewError("cannot delete the only store").
			WithHint("At least one store profile must remain").
			Mark(ierr.ErrInvalidOperation)
	}

	return s.StoreRepo.Delete(ctx, st.ID)
}
