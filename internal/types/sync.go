package types

import (
	ierr "github.com/invora/invora/internal/errors"
	"github.com/samber/lo"
)

// SyncStatus tracks a queued offline mutation through replay
type SyncStatus string

const (
	// SyncStatusPending is a queued operation waiting to be replayed
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusApplied is an operation successfully replayed against the server state
	SyncStatusApplied SyncStatus = "applied"
	// SyncStatusFailed is an operation that exhausted its retries or hit a permanent error
	SyncStatusFailed SyncStatus = "failed"
	// SyncStatusConflict is an operation rejected because the server row is newer
	SyncStatusConflict SyncStatus = "conflict"
)

func (s SyncStatus) String() string {
	return string(s)
}

func (s SyncStatus) Validate() error {
	allowed := []SyncStatus{
		SyncStatusPending,
		SyncStatusApplied,
		SyncStatusFailed,
		SyncStatusConflict,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid sync status").
			WithHint("Please provide a valid sync status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SyncOpType is the kind of mutation recorded while offline
type SyncOpType string

const (
	SyncOpCreate SyncOpType = "create"
	SyncOpUpdate SyncOpType = "update"
	SyncOpDelete SyncOpType = "delete"
)

func (t SyncOpType) String() string {
	return string(t)
}

func (t SyncOpType) Validate() error {
	allowed := []SyncOpType{SyncOpCreate, SyncOpUpdate, SyncOpDelete}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid sync operation type").
			WithHint("Please provide a valid sync operation type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SyncEntityType is the domain entity a queued mutation targets
type SyncEntityType string

const (
	SyncEntityCustomer    SyncEntityType = "customer"
	SyncEntityInvoice     SyncEntityType = "invoice"
	SyncEntityPreferences SyncEntityType = "preferences"
)

func (t SyncEntityType) String() string {
	return string(t)
}

func (t SyncEntityType) Validate() error {
	allowed := []SyncEntityType{
		SyncEntityCustomer,
		SyncEntityInvoice,
		SyncEntityPreferences,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid sync entity type").
			WithHint("Please provide a valid sync entity type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
