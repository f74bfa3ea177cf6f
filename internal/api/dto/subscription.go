package dto

import (
	"github.com/invora/invora/internal/domain/subscription"
	"github.com/invora/invora/internal/types"
)

type SubscriptionResponse struct {
	*subscription.Subscription

	// Plan is the resolved plan for the subscription
	Plan *PlanResponse `json:"plan,omitempty"`
}

// ListSubscriptionsResponse represents the response for listing subscriptions
type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]

// EntitlementResponse describes what the tenant's current plan allows
type EntitlementResponse struct {
	PlanLookupKey         string `json:"plan_lookup_key"`
	PlanDisplayName       string `json:"plan_display_name"`
	MonthlyInvoiceLimit   int    `json:"monthly_invoice_limit"`
	MonthlyInvoicesUsed   int    `json:"monthly_invoices_used"`
	HistoryRetentionLimit int    `json:"history_retention_limit"`
	JPEGExport            bool   `json:"jpeg_export"`
	CustomBranding        bool   `json:"custom_branding"`
	MultipleContacts      bool   `json:"multiple_contacts"`
}
