package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxTenantID  ContextKey = "ctx_tenant_id"
	CtxUserID    ContextKey = "ctx_user_id"
	CtxJWT       ContextKey = "ctx_jwt"
	CtxDeviceID  ContextKey = "ctx_device_id"
	CtxIsAdmin   ContextKey = "ctx_is_admin"

	// Default values
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
	DefaultUserID   = "00000000-0000-0000-0000-000000000000"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(CtxTenantID).(string); ok {
		return tenantID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

func GetDeviceID(ctx context.Context) string {
	if deviceID, ok := ctx.Value(CtxDeviceID).(string); ok {
		return deviceID
	}
	return ""
}

// IsAdmin reports whether the request carries the back-office admin claim
func IsAdmin(ctx context.Context) bool {
	if admin, ok := ctx.Value(CtxIsAdmin).(bool); ok {
		return admin
	}
	return false
}

// SetTenantID sets the tenant ID in the context
func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, CtxTenantID, tenantID)
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// SetDeviceID sets the sync device ID in the context
func SetDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, CtxDeviceID, deviceID)
}
