package plan

import (
	"context"

	"github.com/invora/invora/internal/types"
)

// Repository defines the interface for plan data access.
// Plans are global rows, not tenant scoped.
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	GetByLookupKey(ctx context.Context, key types.PlanLookupKey) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	Update(ctx context.Context, plan *Plan) error
}
