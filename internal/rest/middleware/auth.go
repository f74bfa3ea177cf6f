package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/invora/invora/internal/auth"
	"github.com/invora/invora/internal/config"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/types"
)

// GuestAuthenticateMiddleware allows requests without authentication and
// pins them to the default tenant, used in local mode
func GuestAuthenticateMiddleware(c *gin.Context) {
	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, types.CtxTenantID, types.DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// AuthenticateMiddleware authenticates requests based on either:
// 1. JWT token in the Authorization header as a Bearer token
// 2. API key in the x-api-key header (or configured header name)
// It sets the user ID and tenant ID in the request context for downstream handlers
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	authProvider := auth.NewProvider(cfg)

	return func(c *gin.Context) {
		apiKeyHeader := c.GetHeader(cfg.Auth.APIKey.Header)
		if apiKeyHeader != "" {
			tenantID, userID, valid := auth.ValidateAPIKey(cfg, apiKeyHeader)
			if !valid || tenantID == "" || userID == "" {
				logger.Debugw("invalid api key")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
				c.Abort()
				return
			}

			ctx := c.Request.Context()
			ctx = context.WithValue(ctx, types.CtxTenantID, tenantID)
			ctx = context.WithValue(ctx, types.CtxUserID, userID)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := authProvider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Errorw("failed to validate token", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		if claims == nil || claims.UserID == "" || claims.TenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, types.CtxUserID, claims.UserID)
		ctx = context.WithValue(ctx, types.CtxTenantID, claims.TenantID)
		ctx = context.WithValue(ctx, types.CtxIsAdmin, claims.IsAdmin)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminOnlyMiddleware rejects requests without the admin claim before they
// reach the back office handlers
func AdminOnlyMiddleware(c *gin.Context) {
	if !types.IsAdmin(c.Request.Context()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		c.Abort()
		return
	}
	c.Next()
}
