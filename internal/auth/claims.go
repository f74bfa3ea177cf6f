package auth

// Claims carries the identity extracted from a validated token
type Claims struct {
	UserID   string
	TenantID string

	// IsAdmin grants access to the back office endpoints
	IsAdmin bool
}
