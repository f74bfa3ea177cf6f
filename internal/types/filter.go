package types

import (
	"time"

	ierr "github.com/invora/invora/internal/errors"
	"github.com/samber/lo"
)

const (
	FILTER_DEFAULT_LIMIT = 50
	FILTER_DEFAULT_SORT  = "created_at"
	FILTER_DEFAULT_ORDER = "desc"

	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// BaseFilter defines common filtering capabilities
type BaseFilter interface {
	GetLimit() int
	GetOffset() int
	GetStatus() string
	GetSort() string
	GetOrder() string
	Validate() error
	IsUnlimited() bool
}

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Status *Status `json:"status,omitempty" form:"status"`
	Sort   *string `json:"sort,omitempty" form:"sort"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// NewDefaultQueryFilter defines default values for query filters
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Offset: lo.ToPtr(0),
		Status: lo.ToPtr(StatusPublished),
		Sort:   lo.ToPtr(FILTER_DEFAULT_SORT),
		Order:  lo.ToPtr(FILTER_DEFAULT_ORDER),
	}
}

// NewNoLimitQueryFilter returns a filter with no pagination limits
func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Offset: lo.ToPtr(0),
		Status: lo.ToPtr(StatusPublished),
		Sort:   lo.ToPtr(FILTER_DEFAULT_SORT),
		Order:  lo.ToPtr(FILTER_DEFAULT_ORDER),
	}
}

// IsUnlimited returns true if this is an unlimited query
func (f QueryFilter) IsUnlimited() bool {
	return f.Limit == nil
}

func (f QueryFilter) GetLimit() int {
	if f.IsUnlimited() {
		return 0
	}
	return *f.Limit
}

func (f QueryFilter) GetOffset() int {
	if f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f QueryFilter) GetStatus() string {
	if f.Status == nil {
		return string(StatusPublished)
	}
	return string(*f.Status)
}

func (f QueryFilter) GetSort() string {
	if f.Sort == nil {
		return FILTER_DEFAULT_SORT
	}
	return *f.Sort
}

func (f QueryFilter) GetOrder() string {
	if f.Order == nil {
		return FILTER_DEFAULT_ORDER
	}
	return *f.Order
}

func (f QueryFilter) Validate() error {
	if f.Limit != nil && (*f.Limit < 1 || *f.Limit > 1000) {
		return ierr.NewError("limit must be between 1 and 1000").
			WithHint("Limit must be between 1 and 1000").
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("offset must be non negative").
			WithHint("Offset must be non negative").
			Mark(ierr.ErrValidation)
	}
	if f.Order != nil && *f.Order != OrderAsc && *f.Order != OrderDesc {
		return ierr.NewError("order must be asc or desc").
			WithHint("Order must be asc or desc").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CustomerFilter defines the filter for listing customers
type CustomerFilter struct {
	QueryFilter
	StoreID    string `form:"store_id"`
	ExternalID string `form:"external_id"`
	Email      string `form:"email"`
	Search     string `form:"search"`
}

// InvoiceFilter defines the filter for listing invoices
type InvoiceFilter struct {
	QueryFilter
	StoreID       string        `form:"store_id"`
	CustomerID    string        `form:"customer_id"`
	InvoiceStatus InvoiceStatus `form:"invoice_status"`
	PeriodStart   *time.Time    `form:"period_start" time_format:"2006-01-02"`
	PeriodEnd     *time.Time    `form:"period_end" time_format:"2006-01-02"`
	// IncludeArchived lifts the free-plan history cap for premium tenants
	IncludeArchived bool `form:"include_archived"`
}

// ContactFilter defines the filter for listing store contacts
type ContactFilter struct {
	QueryFilter
	StoreID string `form:"store_id"`
}

// StoreFilter defines the filter for listing stores (admin)
type StoreFilter struct {
	QueryFilter
	TenantID string `form:"tenant_id"`
}

// SubscriptionFilter defines the filter for listing subscriptions (admin)
type SubscriptionFilter struct {
	QueryFilter
	TenantID           string             `form:"tenant_id"`
	PlanID             string             `form:"plan_id"`
	SubscriptionStatus SubscriptionStatus `form:"subscription_status"`
}

// SyncOperationFilter defines the filter for listing sync operations
type SyncOperationFilter struct {
	QueryFilter
	DeviceID   string         `form:"device_id"`
	SyncStatus SyncStatus     `form:"sync_status"`
	EntityType SyncEntityType `form:"entity_type"`
	// AppliedAfter keeps only operations applied strictly after the
	// given instant, used as the change-feed cursor
	AppliedAfter *time.Time `form:"applied_after" time_format:"2006-01-02T15:04:05Z07:00"`
}
