package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invora/invora/internal/domain/payment"
	"github.com/invora/invora/internal/domain/plan"
	"github.com/invora/invora/internal/domain/subscription"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
	webhookDto "github.com/invora/invora/internal/webhook/dto"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentService processes payment provider webhook events and keeps tenant
// subscriptions in sync with the provider's state
type PaymentService interface {
	// HandleProviderEvent verifies, dedupes and dispatches a raw webhook
	// delivery from the payment provider
	HandleProviderEvent(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	ServiceParams
	subscriptionService SubscriptionService
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams:       params,
		subscriptionService: NewSubscriptionService(params),
	}
}

// Event payloads are decoded from the raw JSON rather than the SDK's typed
// structs, only the handful of fields used here are declared.
type checkoutSessionData struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	Metadata          map[string]string `json:"metadata"`
}

type providerSubscriptionData struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CanceledAt         int64  `json:"canceled_at"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type providerInvoiceData struct {
	Subscription string `json:"subscription"`
}

func (s *paymentService) HandleProviderEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.parseEvent(payload, signature)
	if err != nil {
		return err
	}

	// the processed-event mark and the handler's writes commit together,
	// a failed handler leaves the event claimable by the provider's retry
	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		inserted, err := s.PaymentEventRepo.MarkProcessed(ctx, &payment.ProcessedEvent{
			EventID:     event.ID,
			EventType:   string(event.Type),
			ProcessedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			s.Logger.Infow("skipping already processed provider event",
				"event_id", event.ID,
				"event_type", event.Type)
			return nil
		}

		return s.dispatch(ctx, event)
	})
}

func (s *paymentService) parseEvent(payload []byte, signature string) (*stripe.Event, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.Config.Stripe.WebhookSecret, options)
	if err != nil {
		s.Logger.Errorw("provider webhook verification failed", "error", err)
		return nil, ierr.NewError("failed to verify webhook signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

func (s *paymentService) dispatch(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_failed":
		return s.handlePaymentFailed(ctx, event)
	default:
		s.Logger.Debugw("ignoring unhandled provider event",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}
}

// handleCheckoutCompleted activates the tenant's paid subscription. The
// checkout session carries the tenant in client_reference_id.
func (s *paymentService) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session checkoutSessionData
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed checkout session payload").
			Mark(ierr.ErrValidation)
	}

	if session.ClientReferenceID == "" {
		return ierr.NewError("checkout session has no tenant reference").
			WithHint("client_reference_id must carry the tenant ID").
			Mark(ierr.ErrValidation)
	}
	ctx = types.SetTenantID(ctx, session.ClientReferenceID)

	p, err := s.resolvePlanForCheckout(ctx, session.Metadata)
	if err != nil {
		return err
	}

	// a replayed checkout for an already tracked subscription is a no-op
	existing, err := s.SubRepo.GetByProviderSubscriptionID(ctx, session.Subscription)
	if err == nil {
		s.Logger.Infow("subscription already tracked for checkout session",
			"subscription_id", existing.ID,
			"provider_subscription_id", session.Subscription)
		return nil
	}
	if !ierr.IsNotFound(err) {
		return err
	}

	sub := &subscription.Subscription{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		PlanID:                 p.ID,
		SubscriptionStatus:     types.SubscriptionStatusActive,
		ProviderCustomerID:     session.Customer,
		ProviderSubscriptionID: session.Subscription,
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}
	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("activated subscription from checkout",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
		"plan", p.LookupKey)

	s.afterTierChange(ctx, sub)
	return nil
}

func (s *paymentService) resolvePlanForCheckout(ctx context.Context, metadata map[string]string) (*plan.Plan, error) {
	if key, ok := metadata["plan_lookup_key"]; ok && key != "" {
		return s.PlanRepo.GetByLookupKey(ctx, types.PlanLookupKey(key))
	}
	return s.PlanRepo.GetByLookupKey(ctx, types.PlanLookupKeyPremium)
}

func (s *paymentService) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	data, err := decodeProviderSubscription(event)
	if err != nil {
		return err
	}

	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, data.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// update events can race the checkout handler, the next
			// provider retry will find the row
			s.Logger.Warnw("subscription update for unknown provider subscription",
				"provider_subscription_id", data.ID)
			return nil
		}
		return err
	}
	ctx = types.SetTenantID(ctx, sub.TenantID)

	periodStart, periodEnd := data.period()
	sub.SubscriptionStatus = mapProviderStatus(data.Status)
	sub.CurrentPeriodStart = periodStart
	sub.CurrentPeriodEnd = periodEnd
	sub.CancelAtPeriodEnd = data.CancelAtPeriodEnd
	if data.CanceledAt > 0 {
		t := time.Unix(data.CanceledAt, 0).UTC()
		sub.CanceledAt = &t
	}

	if priceID := data.priceID(); priceID != "" {
		if p, err := s.planByProviderPriceID(ctx, priceID); err == nil {
			sub.PlanID = p.ID
		}
	}

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.afterTierChange(ctx, sub)
	return nil
}

func (s *paymentService) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	data, err := decodeProviderSubscription(event)
	if err != nil {
		return err
	}

	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, data.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	ctx = types.SetTenantID(ctx, sub.TenantID)

	now := time.Now().UTC()
	sub.SubscriptionStatus = types.SubscriptionStatusCanceled
	sub.CanceledAt = &now

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("subscription canceled by provider",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID)

	s.afterTierChange(ctx, sub)
	return nil
}

func (s *paymentService) handlePaymentFailed(ctx context.Context, event *stripe.Event) error {
	var inv providerInvoiceData
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed invoice payload").
			Mark(ierr.ErrValidation)
	}
	if inv.Subscription == "" {
		return nil
	}

	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, inv.Subscription)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	ctx = types.SetTenantID(ctx, sub.TenantID)

	sub.SubscriptionStatus = types.SubscriptionStatusPastDue
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.afterTierChange(ctx, sub)
	return nil
}

// afterTierChange drops cached entitlements, re-applies the history
// retention cap and notifies the tenant's webhook endpoint
func (s *paymentService) afterTierChange(ctx context.Context, sub *subscription.Subscription) {
	s.subscriptionService.InvalidateEntitlements(ctx, sub.TenantID)

	p, err := s.subscriptionService.ResolveCurrentPlan(ctx)
	if err != nil {
		s.Logger.Errorw("failed to resolve plan after tier change",
			"error", err,
			"tenant_id", sub.TenantID)
	} else if p.HistoryRetentionLimit > 0 {
		archived, err := s.InvoiceRepo.ArchiveBeyondRetention(ctx, p.HistoryRetentionLimit)
		if err != nil {
			s.Logger.Errorw("failed to apply history retention",
				"error", err,
				"tenant_id", sub.TenantID)
		} else if archived > 0 {
			s.Logger.Infow("archived invoices beyond plan retention",
				"tenant_id", sub.TenantID,
				"archived", archived,
				"retention", p.HistoryRetentionLimit)
		}
	}

	s.publishWebhookEvent(ctx, sub)
}

func (s *paymentService) publishWebhookEvent(ctx context.Context, sub *subscription.Subscription) {
	webhookPayload, err := json.Marshal(webhookDto.InternalSubscriptionEvent{
		SubscriptionID: sub.ID,
		TenantID:       sub.TenantID,
	})
	if err != nil {
		s.Logger.Errorw("failed to marshal webhook payload", "error", err)
		return
	}

	webhookEvent := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK),
		EventName: string(types.WebhookEventSubscriptionChanged),
		TenantID:  sub.TenantID,
		Timestamp: time.Now().UTC(),
		Payload:   json.RawMessage(webhookPayload),
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, webhookEvent); err != nil {
		s.Logger.Errorw("failed to publish webhook event",
			"error", err,
			"event_name", webhookEvent.EventName)
	}
}

func (s *paymentService) planByProviderPriceID(ctx context.Context, priceID string) (*plan.Plan, error) {
	plans, err := s.PlanRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.ProviderPriceID == priceID {
			return p, nil
		}
	}
	return nil, ierr.NewError("no plan for provider price").
		WithHintf("No plan is configured for price %s", priceID).
		Mark(ierr.ErrNotFound)
}

func decodeProviderSubscription(event *stripe.Event) (*providerSubscriptionData, error) {
	var data providerSubscriptionData
	if err := json.Unmarshal(event.Data.Raw, &data); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Malformed subscription payload").
			Mark(ierr.ErrValidation)
	}
	return &data, nil
}

// period returns the billing period, preferring the per-item fields newer
// provider API versions report
func (d *providerSubscriptionData) period() (time.Time, time.Time) {
	start, end := d.CurrentPeriodStart, d.CurrentPeriodEnd
	if len(d.Items.Data) > 0 && d.Items.Data[0].CurrentPeriodEnd > 0 {
		start = d.Items.Data[0].CurrentPeriodStart
		end = d.Items.Data[0].CurrentPeriodEnd
	}
	var startT, endT time.Time
	if start > 0 {
		startT = time.Unix(start, 0).UTC()
	}
	if end > 0 {
		endT = time.Unix(end, 0).UTC()
	}
	return startT, endT
}

func (d *providerSubscriptionData) priceID() string {
	if len(d.Items.Data) > 0 {
		return d.Items.Data[0].Price.ID
	}
	return ""
}

func mapProviderStatus(status string) types.SubscriptionStatus {
	switch status {
	case "active":
		return types.SubscriptionStatusActive
	case "trialing":
		return types.SubscriptionStatusTrialing
	case "past_due", "unpaid":
		return types.SubscriptionStatusPastDue
	default:
		return types.SubscriptionStatusCanceled
	}
}
