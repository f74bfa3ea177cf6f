package testutil

import (
	"context"
	"time"

	"github.com/invora/invora/internal/domain/plan"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || p.Status == types.StatusDeleted {
		return nil, ierr.NewError("plan not found").
			WithHintf("Plan with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) GetByLookupKey(ctx context.Context, key types.PlanLookupKey) (*plan.Plan, error) {
	filterFn := func(ctx context.Context, p *plan.Plan, _ interface{}) bool {
		return p.LookupKey == key && p.Status != types.StatusDeleted
	}

	plans, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHintf("Plan with lookup key %s was not found", key).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(plans[0]), nil
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	filterFn := func(ctx context.Context, p *plan.Plan, _ interface{}) bool {
		return p.Status != types.StatusDeleted
	}
	sortFn := func(i, j *plan.Plan) bool {
		return i.MonthlyPrice.LessThan(j.MonthlyPrice)
	}

	items, err := s.InMemoryStore.List(ctx, nil, filterFn, sortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(p *plan.Plan, _ int) *plan.Plan {
		return copyPlan(p)
	}), nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	p.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, p.ID, copyPlan(p))
}
