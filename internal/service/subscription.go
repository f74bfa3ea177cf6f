package service

import (
	"context"
	"time"

	"github.com/invora/invora/internal/api/dto"
	"github.com/invora/invora/internal/cache"
	"github.com/invora/invora/internal/domain/plan"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	"github.com/samber/lo"
)

const entitlementCacheTTL = 5 * time.Minute

// SubscriptionService resolves the tenant's current tier and what it allows
type SubscriptionService interface {
	GetCurrentSubscription(ctx context.Context) (*dto.SubscriptionResponse, error)
	GetEntitlements(ctx context.Context) (*dto.EntitlementResponse, error)

	// ListPlans returns all tiers for the pricing page, cheapest first
	ListPlans(ctx context.Context) (*dto.ListPlansResponse, error)

	// CancelSubscription flags the current subscription to lapse at period
	// end, access stays until then
	CancelSubscription(ctx context.Context) (*dto.SubscriptionResponse, error)

	// ResolveCurrentPlan returns the plan the tenant is entitled to right
	// now, falling back to the free tier when no subscription entitles
	ResolveCurrentPlan(ctx context.Context) (*plan.Plan, error)

	// HasFeature reports whether the current plan grants the feature
	HasFeature(ctx context.Context, key types.FeatureKey) (bool, error)

	// CheckInvoiceQuota returns a tier limit error when creating one more
	// invoice this month would exceed the plan's cap
	CheckInvoiceQuota(ctx context.Context) error

	// InvalidateEntitlements drops cached plan resolution for the tenant,
	// called after webhook driven tier changes
	InvalidateEntitlements(ctx context.Context, tenantID string)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) GetCurrentSubscription(ctx context.Context) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	response := &dto.SubscriptionResponse{Subscription: sub}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err == nil {
		response.Plan = &dto.PlanResponse{Plan: p}
	} else if !ierr.IsNotFound(err) {
		return nil, err
	}

	return response, nil
}

func (s *subscriptionService) ListPlans(ctx context.Context) (*dto.ListPlansResponse, error) {
	plans, err := s.PlanRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := lo.Map(plans, func(p *plan.Plan, _ int) *dto.PlanResponse {
		return &dto.PlanResponse{Plan: p}
	})

	response := types.NewListResponse(items, len(items), 0, 0)
	return &response, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus == types.SubscriptionStatusCanceled {
		return nil, ierr.NewError("subscription is already canceled").
			WithHint("There is no active subscription to cancel").
			Mark(ierr.ErrInvalidOperation)
	}

	sub.CancelAtPeriodEnd = true
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.InvalidateEntitlements(ctx, types.GetTenantID(ctx))

	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) GetEntitlements(ctx context.Context) (*dto.EntitlementResponse, error) {
	p, err := s.ResolveCurrentPlan(ctx)
	if err != nil {
		return nil, err
	}

	start, end := types.CurrentMonthPeriod()
	used, err := s.InvoiceRepo.CountCreatedInPeriod(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return &dto.EntitlementResponse{
		PlanLookupKey:         string(p.LookupKey),
		PlanDisplayName:       p.DisplayName,
		MonthlyInvoiceLimit:   p.MonthlyInvoiceLimit,
		MonthlyInvoicesUsed:   used,
		HistoryRetentionLimit: p.HistoryRetentionLimit,
		JPEGExport:            p.JPEGExport,
		CustomBranding:        p.CustomBranding,
		MultipleContacts:      p.MultipleContacts,
	}, nil
}

func (s *subscriptionService) ResolveCurrentPlan(ctx context.Context) (*plan.Plan, error) {
	tenantID := types.GetTenantID(ctx)
	cacheKey := cache.GenerateKey(cache.PrefixEntitlement, tenantID)
	if cached, found := s.Cache.Get(ctx, cacheKey); found {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	p, err := s.resolvePlan(ctx)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, cacheKey, p, entitlementCacheTTL)
	return p, nil
}

func (s *subscriptionService) resolvePlan(ctx context.Context) (*plan.Plan, error) {
	sub, err := s.SubRepo.GetCurrent(ctx)
	if err != nil {
		if ierr.IsNotFound(err) {
			return s.freePlan(ctx)
		}
		return nil, err
	}

	if !sub.IsEntitling() {
		return s.freePlan(ctx)
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Errorw("subscription references missing plan",
				"subscription_id", sub.ID,
				"plan_id", sub.PlanID)
			return s.freePlan(ctx)
		}
		return nil, err
	}

	return p, nil
}

func (s *subscriptionService) freePlan(ctx context.Context) (*plan.Plan, error) {
	p, err := s.PlanRepo.GetByLookupKey(ctx, types.PlanLookupKeyFree)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Free plan is not configured").
			Mark(ierr.ErrSystem)
	}
	return p, nil
}

func (s *subscriptionService) HasFeature(ctx context.Context, key types.FeatureKey) (bool, error) {
	p, err := s.ResolveCurrentPlan(ctx)
	if err != nil {
		return false, err
	}
	return p.HasFeature(key), nil
}

func (s *subscriptionService) CheckInvoiceQuota(ctx context.Context) error {
	p, err := s.ResolveCurrentPlan(ctx)
	if err != nil {
		return err
	}

	// 0 means the plan does not cap invoice creation
	if p.MonthlyInvoiceLimit == 0 {
		return nil
	}

	start, end := types.CurrentMonthPeriod()
	used, err := s.InvoiceRepo.CountCreatedInPeriod(ctx, start, end)
	if err != nil {
		return err
	}

	if used >= p.MonthlyInvoiceLimit {
		return ierr.NewError("monthly invoice limit reached").
			WithHintf("The %s plan allows %d invoices per month", p.DisplayName, p.MonthlyInvoiceLimit).
			WithReportableDetails(map[string]interface{}{
				"limit": p.MonthlyInvoiceLimit,
				"used":  used,
			}).
			Mark(ierr.ErrTierLimitExceeded)
	}
	return nil
}

func (s *subscriptionService) InvalidateEntitlements(ctx context.Context, tenantID string) {
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixEntitlement, tenantID))
}
