package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/domain/customer"
	"github.com/invora/invora/internal/domain/plan"
	"github.com/invora/invora/internal/domain/store"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/testutil"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testDeviceID = "device_abc"

type SyncServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SyncService
	testData struct {
		store    *store.Store
		customer *customer.Customer
	}
}

func TestSyncService(t *testing.T) {
	suite.Run(t, new(SyncServiceSuite))
}

func (s *SyncServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSyncService(testServiceParams(&s.BaseServiceTestSuite))
	s.setupTestData()
}

func (s *SyncServiceSuite) setupTestData() {
	s.testData.store = &store.Store{
		ID:        "store_123",
		Name:      "Acme Studio",
		Currency:  "USD",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StoreRepo.Create(s.GetContext(), s.testData.store))

	s.testData.customer = &customer.Customer{
		ID:        "cust_123",
		StoreID:   s.testData.store.ID,
		Name:      "Jamie Wong",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(s.GetContext(), s.testData.customer))

	// replayed invoice creates go through the regular quota check, the
	// free plan here is uncapped so replays never hit the limit
	freePlan := &plan.Plan{
		ID:           "plan_free",
		LookupKey:    types.PlanLookupKeyFree,
		DisplayName:  "Free",
		MonthlyPrice: decimal.Zero,
		Currency:     "USD",
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), freePlan))
}

func (s *SyncServiceSuite) mustMarshal(v interface{}) json.RawMessage {
	payload, err := json.Marshal(v)
	s.Require().NoError(err)
	return payload
}

func (s *SyncServiceSuite) enqueue(ops ...dto.EnqueueSyncOperationRequest) *dto.EnqueueSyncBatchResponse {
	resp, err := s.service.EnqueueBatch(s.GetContext(), testDeviceID, dto.EnqueueSyncBatchRequest{
		Operations: ops,
	})
	s.Require().NoError(err)
	return resp
}

func (s *SyncServiceSuite) TestEnqueueBatch() {
	resp := s.enqueue(
		dto.EnqueueSyncOperationRequest{
			Sequence:   1,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-1",
			OpType:     types.SyncOpCreate,
			Payload: s.mustMarshal(dto.CreateCustomerRequest{
				StoreID: s.testData.store.ID,
				Name:    "Offline Customer",
			}),
		},
		dto.EnqueueSyncOperationRequest{
			Sequence:   2,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-1",
			OpType:     types.SyncOpUpdate,
			Payload: s.mustMarshal(dto.UpdateCustomerRequest{
				Name: lo.ToPtr("Offline Customer Renamed"),
			}),
		},
	)
	s.Equal(2, resp.Accepted)
	s.Equal(0, resp.Duplicates)

	// re-sending a batch is safe, already known sequences are dropped
	resp = s.enqueue(
		dto.EnqueueSyncOperationRequest{
			Sequence:   2,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-1",
			OpType:     types.SyncOpUpdate,
			Payload: s.mustMarshal(dto.UpdateCustomerRequest{
				Name: lo.ToPtr("Offline Customer Renamed"),
			}),
		},
		dto.EnqueueSyncOperationRequest{
			Sequence:   3,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-1",
			OpType:     types.SyncOpDelete,
		},
	)
	s.Equal(1, resp.Accepted)
	s.Equal(1, resp.Duplicates)

	status, err := s.service.GetSyncStatus(s.GetContext(), testDeviceID)
	s.NoError(err)
	s.Equal(3, status.Pending)
}

func (s *SyncServiceSuite) TestEnqueueBatchRejectsDivergentResend() {
	s.enqueue(dto.EnqueueSyncOperationRequest{
		Sequence:   1,
		EntityType: types.SyncEntityCustomer,
		EntityID:   "local-cust-1",
		OpType:     types.SyncOpCreate,
		Payload: s.mustMarshal(dto.CreateCustomerRequest{
			StoreID: s.testData.store.ID,
			Name:    "Offline Customer",
		}),
	})

	// same sequence, different mutation, the device rewrote its queue
	_, err := s.service.EnqueueBatch(s.GetContext(), testDeviceID, dto.EnqueueSyncBatchRequest{
		Operations: []dto.EnqueueSyncOperationRequest{
			{
				Sequence:   1,
				EntityType: types.SyncEntityCustomer,
				EntityID:   "local-cust-1",
				OpType:     types.SyncOpCreate,
				Payload: s.mustMarshal(dto.CreateCustomerRequest{
					StoreID: s.testData.store.ID,
					Name:    "Someone Else",
				}),
			},
		},
	})
	s.Error(err)
	s.True(ierr.IsSyncConflict(err))
}

func (s *SyncServiceSuite) TestEnqueueBatchValidation() {
	_, err := s.service.EnqueueBatch(s.GetContext(), "", dto.EnqueueSyncBatchRequest{
		Operations: []dto.EnqueueSyncOperationRequest{
			{Sequence: 1, EntityType: types.SyncEntityCustomer, EntityID: "x", OpType: types.SyncOpCreate},
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.EnqueueBatch(s.GetContext(), testDeviceID, dto.EnqueueSyncBatchRequest{})
	s.Error(err)

	_, err = s.service.EnqueueBatch(s.GetContext(), testDeviceID, dto.EnqueueSyncBatchRequest{
		Operations: []dto.EnqueueSyncOperationRequest{
			{Sequence: 1, EntityType: "wallet", EntityID: "x", OpType: types.SyncOpCreate},
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SyncServiceSuite) TestReplayCustomerLifecycle() {
	s.enqueue(
		dto.EnqueueSyncOperationRequest{
			Sequence:   1,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-1",
			OpType:     types.SyncOpCreate,
			Payload: s.mustMarshal(dto.CreateCustomerRequest{
				StoreID: s.testData.store.ID,
				Name:    "Offline Customer",
			}),
		},
		dto.EnqueueSyncOperationRequest{
			Sequence:   2,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-1",
			OpType:     types.SyncOpUpdate,
			Payload: s.mustMarshal(dto.UpdateCustomerRequest{
				Name: lo.ToPtr("Offline Customer Renamed"),
			}),
		},
	)

	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	// the client-side ID became the external ID
	cust, err := s.GetStores().CustomerRepo.GetByExternalID(s.GetContext(), "local-cust-1")
	s.NoError(err)
	s.Equal("Offline Customer Renamed", cust.Name)

	status, err := s.service.GetSyncStatus(s.GetContext(), testDeviceID)
	s.NoError(err)
	s.Equal(0, status.Pending)
	s.Equal(0, status.Failed)
	s.Equal(0, status.Conflicts)
}

func (s *SyncServiceSuite) TestReplayVersionConflict() {
	// the server row moved past what the client saw
	stale := s.testData.customer.Version + 5

	s.enqueue(dto.EnqueueSyncOperationRequest{
		Sequence:    1,
		EntityType:  types.SyncEntityCustomer,
		EntityID:    s.testData.customer.ID,
		OpType:      types.SyncOpUpdate,
		BaseVersion: stale,
		Payload: s.mustMarshal(dto.UpdateCustomerRequest{
			Name: lo.ToPtr("Stale Rename"),
		}),
	})

	// the conflict is recorded on the operation, not surfaced as a
	// replay failure, the queue keeps draining
	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	status, err := s.service.GetSyncStatus(s.GetContext(), testDeviceID)
	s.NoError(err)
	s.Equal(1, status.Conflicts)
	s.Equal(0, status.Pending)

	// newer server state wins, the rename was not applied
	cust, err := s.GetStores().CustomerRepo.Get(s.GetContext(), s.testData.customer.ID)
	s.NoError(err)
	s.Equal("Jamie Wong", cust.Name)
}

func (s *SyncServiceSuite) TestReplayFailedOperationDoesNotBlockQueue() {
	s.enqueue(
		dto.EnqueueSyncOperationRequest{
			Sequence:   1,
			EntityType: types.SyncEntityInvoice,
			EntityID:   "inv_missing",
			OpType:     types.SyncOpDelete,
		},
		dto.EnqueueSyncOperationRequest{
			Sequence:   2,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-2",
			OpType:     types.SyncOpCreate,
			Payload: s.mustMarshal(dto.CreateCustomerRequest{
				StoreID: s.testData.store.ID,
				Name:    "After Failure",
			}),
		},
	)

	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	status, err := s.service.GetSyncStatus(s.GetContext(), testDeviceID)
	s.NoError(err)
	s.Equal(1, status.Failed)
	s.Equal(0, status.Pending)

	_, err = s.GetStores().CustomerRepo.GetByExternalID(s.GetContext(), "local-cust-2")
	s.NoError(err)
}

func (s *SyncServiceSuite) TestReplayInvoiceCreateIsIdempotent() {
	op := dto.EnqueueSyncOperationRequest{
		Sequence:   1,
		EntityType: types.SyncEntityInvoice,
		EntityID:   "local-inv-1",
		OpType:     types.SyncOpCreate,
		Payload: s.mustMarshal(dto.CreateInvoiceRequest{
			StoreID:    s.testData.store.ID,
			CustomerID: s.testData.customer.ID,
			Currency:   "USD",
			LineItems: []dto.CreateInvoiceLineItemRequest{
				{Description: "Offline work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
			},
		}),
	}

	s.enqueue(op)
	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	// a replay of the same queue position creates nothing new
	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	filter := &types.InvoiceFilter{QueryFilter: *types.NewNoLimitQueryFilter()}
	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(1, count)

	invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), filter)
	s.NoError(err)
	s.Require().Len(invoices, 1)
	s.NotNil(invoices[0].IdempotencyKey)
}

func (s *SyncServiceSuite) TestReplayAppliesHistoryRetention() {
	p, err := s.GetStores().PlanRepo.GetByLookupKey(s.GetContext(), types.PlanLookupKeyFree)
	s.Require().NoError(err)
	p.HistoryRetentionLimit = 2
	s.Require().NoError(s.GetStores().PlanRepo.Update(s.GetContext(), p))

	ops := make([]dto.EnqueueSyncOperationRequest, 0, 3)
	for i := 1; i <= 3; i++ {
		ops = append(ops, dto.EnqueueSyncOperationRequest{
			Sequence:   int64(i),
			EntityType: types.SyncEntityInvoice,
			EntityID:   fmt.Sprintf("local-inv-%d", i),
			OpType:     types.SyncOpCreate,
			Payload: s.mustMarshal(dto.CreateInvoiceRequest{
				StoreID:    s.testData.store.ID,
				CustomerID: s.testData.customer.ID,
				Currency:   "USD",
				LineItems: []dto.CreateInvoiceLineItemRequest{
					{Description: "Offline work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
				},
			}),
		})
	}

	s.enqueue(ops...)
	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	// the replayed backlog pushed the tenant past the history cap, only
	// the newest invoices stay visible
	visible, err := s.GetStores().InvoiceRepo.List(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: *types.NewNoLimitQueryFilter(),
	})
	s.NoError(err)
	s.Len(visible, 2)

	all, err := s.GetStores().InvoiceRepo.List(s.GetContext(), &types.InvoiceFilter{
		QueryFilter:     *types.NewNoLimitQueryFilter(),
		IncludeArchived: true,
	})
	s.NoError(err)
	s.Len(all, 3)
}

func (s *SyncServiceSuite) TestReplayPreferencesUpsert() {
	s.enqueue(dto.EnqueueSyncOperationRequest{
		Sequence:   1,
		EntityType: types.SyncEntityPreferences,
		EntityID:   types.GetUserID(s.GetContext()),
		OpType:     types.SyncOpUpdate,
		Payload: s.mustMarshal(dto.UpdatePreferencesRequest{
			Theme:           lo.ToPtr("dark"),
			DefaultCurrency: lo.ToPtr("EUR"),
		}),
	})

	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	prefs, err := s.GetStores().PreferencesRepo.GetByUserID(s.GetContext(), types.GetUserID(s.GetContext()))
	s.NoError(err)
	s.Equal("dark", prefs.Theme)
	s.Equal("EUR", prefs.DefaultCurrency)
}

func (s *SyncServiceSuite) TestAppliedOperationsPublishChangeEvents() {
	s.enqueue(dto.EnqueueSyncOperationRequest{
		Sequence:   1,
		EntityType: types.SyncEntityCustomer,
		EntityID:   "local-cust-3",
		OpType:     types.SyncOpCreate,
		Payload: s.mustMarshal(dto.CreateCustomerRequest{
			StoreID: s.testData.store.ID,
			Name:    "Broadcast Me",
		}),
	})

	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	messages := s.GetPubSub().GetMessages(types.SyncChangesTopic)
	s.Require().Len(messages, 1)
	s.Equal(testDeviceID, messages[0].Metadata.Get("source_device_id"))
	s.Equal(types.GetTenantID(s.GetContext()), messages[0].Metadata.Get("tenant_id"))
}

func (s *SyncServiceSuite) TestListChangesSince() {
	cursor := time.Now().UTC().Add(-time.Minute)

	s.enqueue(dto.EnqueueSyncOperationRequest{
		Sequence:   1,
		EntityType: types.SyncEntityCustomer,
		EntityID:   "local-cust-feed",
		OpType:     types.SyncOpCreate,
		Payload: s.mustMarshal(dto.CreateCustomerRequest{
			StoreID: s.testData.store.ID,
			Name:    "Feed Customer",
		}),
	})
	s.NoError(s.service.ProcessDevice(s.GetContext(), testDeviceID))

	// another device catching up after the fact sees the applied change
	changes, err := s.service.ListChangesSince(s.GetContext(), "device_other", cursor)
	s.NoError(err)
	s.Require().Len(changes, 1)
	s.Equal(types.SyncEntityCustomer, changes[0].EntityType)
	s.Equal(testDeviceID, changes[0].SourceDeviceID)

	// the originating device's own mutations are excluded
	changes, err = s.service.ListChangesSince(s.GetContext(), testDeviceID, cursor)
	s.NoError(err)
	s.Len(changes, 0)

	// a cursor past the apply time returns nothing
	changes, err = s.service.ListChangesSince(s.GetContext(), "device_other", time.Now().UTC().Add(time.Minute))
	s.NoError(err)
	s.Len(changes, 0)
}

func (s *SyncServiceSuite) TestProcessPending() {
	s.enqueue(dto.EnqueueSyncOperationRequest{
		Sequence:   1,
		EntityType: types.SyncEntityCustomer,
		EntityID:   "local-cust-4",
		OpType:     types.SyncOpCreate,
		Payload: s.mustMarshal(dto.CreateCustomerRequest{
			StoreID: s.testData.store.ID,
			Name:    "Worker Applied",
		}),
	})

	// the worker runs without a request context, tenant scope comes from
	// the queued operations themselves
	s.NoError(s.service.ProcessPending(context.Background()))

	_, err := s.GetStores().CustomerRepo.GetByExternalID(s.GetContext(), "local-cust-4")
	s.NoError(err)

	status, err := s.service.GetSyncStatus(s.GetContext(), testDeviceID)
	s.NoError(err)
	s.Equal(0, status.Pending)
}

func (s *SyncServiceSuite) TestListOperations() {
	s.enqueue(
		dto.EnqueueSyncOperationRequest{
			Sequence:   1,
			EntityType: types.SyncEntityCustomer,
			EntityID:   "local-cust-5",
			OpType:     types.SyncOpCreate,
			Payload: s.mustMarshal(dto.CreateCustomerRequest{
				StoreID: s.testData.store.ID,
				Name:    "Listed",
			}),
		},
		dto.EnqueueSyncOperationRequest{
			Sequence:   2,
			EntityType: types.SyncEntityInvoice,
			EntityID:   "inv_missing",
			OpType:     types.SyncOpDelete,
		},
	)

	resp, err := s.service.ListOperations(s.GetContext(), &types.SyncOperationFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		DeviceID:    testDeviceID,
	})
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)

	resp, err = s.service.ListOperations(s.GetContext(), &types.SyncOperationFilter{
		QueryFilter: *types.NewDefaultQueryFilter(),
		EntityType:  types.SyncEntityInvoice,
	})
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)
}
