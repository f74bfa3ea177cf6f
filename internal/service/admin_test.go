package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/store"
	"github.com/invora/invora/internal/domain/subscription"
	syncdomain "github.com/invora/invora/internal/domain/sync"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/testutil"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AdminServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  AdminService
	adminCtx context.Context
}

func TestAdminService(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewAdminService(testServiceParams(&s.BaseServiceTestSuite))
	s.adminCtx = context.WithValue(s.GetContext(), types.CtxIsAdmin, true)
}

func (s *AdminServiceSuite) seedTenants() (string, string) {
	tenantA := types.GetTenantID(s.GetContext())
	tenantB := types.GenerateUUID()
	ctxB := types.SetTenantID(s.GetContext(), tenantB)

	s.NoError(s.GetStores().StoreRepo.Create(s.GetContext(), &store.Store{
		ID:        "store_a",
		Name:      "Tenant A Store",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}))
	s.NoError(s.GetStores().StoreRepo.Create(ctxB, &store.Store{
		ID:        "store_b",
		Name:      "Tenant B Store",
		BaseModel: types.GetDefaultBaseModel(ctxB),
	}))

	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), &subscription.Subscription{
		ID:                     "sub_a",
		PlanID:                 "plan_premium",
		SubscriptionStatus:     types.SubscriptionStatusActive,
		ProviderSubscriptionID: "sub_provider_a",
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}))
	s.NoError(s.GetStores().SubRepo.Create(ctxB, &subscription.Subscription{
		ID:                     "sub_b",
		PlanID:                 "plan_premium",
		SubscriptionStatus:     types.SubscriptionStatusPastDue,
		ProviderSubscriptionID: "sub_provider_b",
		BaseModel:              types.GetDefaultBaseModel(ctxB),
	}))

	return tenantA, tenantB
}

func (s *AdminServiceSuite) TestRequiresAdminClaim() {
	_, err := s.service.ListAllStores(s.GetContext(), nil)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.service.ListAllSubscriptions(s.GetContext(), nil)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.service.GetSyncQueueDepth(s.GetContext())
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
		LookupKey:   types.PlanLookupKeyFree,
		DisplayName: "Free",
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *AdminServiceSuite) TestListAllStores() {
	_, tenantB := s.seedTenants()

	// without a tenant filter the back office sees everything
	resp, err := s.service.ListAllStores(s.adminCtx, nil)
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)

	resp, err = s.service.ListAllStores(s.adminCtx, &types.StoreFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		TenantID:    tenantB,
	})
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)
	s.Equal("Tenant B Store", resp.Items[0].Name)
}

func (s *AdminServiceSuite) TestListAllSubscriptions() {
	s.seedTenants()

	resp, err := s.service.ListAllSubscriptions(s.adminCtx, nil)
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)

	resp, err = s.service.ListAllSubscriptions(s.adminCtx, &types.SubscriptionFilter{
		QueryFilter:        *types.NewDefaultQueryFilter(),
		SubscriptionStatus: types.SubscriptionStatusPastDue,
	})
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)
	s.Equal("sub_b", resp.Items[0].ID)
}

func (s *AdminServiceSuite) TestGetSyncQueueDepth() {
	payload, err := json.Marshal(dto.CreateCustomerRequest{StoreID: "store_a", Name: "Queued"})
	s.Require().NoError(err)

	ops := []*syncdomain.Operation{
		{
			ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SYNC_OP),
			DeviceID:   "device_1",
			Sequence:   1,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-1",
			OpType:     types.SyncOpCreate,
			Payload:    payload,
			SyncStatus: types.SyncStatusPending,
			BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
		},
		{
			ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SYNC_OP),
			DeviceID:   "device_1",
			Sequence:   2,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-2",
			OpType:     types.SyncOpCreate,
			Payload:    payload,
			SyncStatus: types.SyncStatusPending,
			BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
		},
	}
	_, err = s.GetStores().SyncRepo.CreateBatch(s.GetContext(), ops)
	s.Require().NoError(err)

	resp, err := s.service.GetSyncQueueDepth(s.adminCtx)
	s.NoError(err)
	s.Equal(2, resp.TotalPending)
	s.Require().Len(resp.Devices, 1)
	s.Equal("device_1", resp.Devices[0].DeviceID)
	s.Equal(2, resp.Devices[0].Pending)
}

func (s *AdminServiceSuite) TestCreatePlan() {
	resp, err := s.service.CreatePlan(s.adminCtx, dto.CreatePlanRequest{
		LookupKey:           types.PlanLookupKeyFree,
		DisplayName:         "Free",
		MonthlyInvoiceLimit: 3,
		MonthlyPrice:        decimal.Zero,
		Currency:            "USD",
	})
	s.NoError(err)
	s.NotEmpty(resp.ID)
	s.Equal(types.PlanLookupKeyFree, resp.LookupKey)

	// lookup keys are unique across plans
	_, err = s.service.CreatePlan(s.adminCtx, dto.CreatePlanRequest{
		LookupKey:   types.PlanLookupKeyFree,
		DisplayName: "Free Again",
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *AdminServiceSuite) TestUpdatePlan() {
	created, err := s.service.CreatePlan(s.adminCtx, dto.CreatePlanRequest{
		LookupKey:           types.PlanLookupKeyFree,
		DisplayName:         "Free",
		MonthlyInvoiceLimit: 3,
	})
	s.NoError(err)

	updated, err := s.service.UpdatePlan(s.adminCtx, created.ID, dto.UpdatePlanRequest{
		DisplayName:         lo.ToPtr("Starter"),
		MonthlyInvoiceLimit: lo.ToPtr(5),
	})
	s.NoError(err)
	s.Equal("Starter", updated.DisplayName)
	s.Equal(5, updated.MonthlyInvoiceLimit)

	_, err = s.service.UpdatePlan(s.adminCtx, "plan_missing", dto.UpdatePlanRequest{})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
