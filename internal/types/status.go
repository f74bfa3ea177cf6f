package types

// Status tracks the lifecycle of a persisted resource and determines whether
// it is included in queries. Any changes here need a matching migration.
type Status string

const (
	StatusPublished Status = "published"
	// StatusArchived marks rows hidden from regular listings, e.g. invoices
	// beyond the free plan's history retention window.
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)
