package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/invora/invora/internal/config"
	ierr "github.com/invora/invora/internal/errors"
	"github.com/invora/invora/internal/types"
)

// Provider validates and issues access tokens
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
	GenerateToken(userID, tenantID string, isAdmin bool) (string, error)
}

type jwtAuth struct {
	authConfig config.AuthConfig
}

func NewProvider(cfg *config.Configuration) Provider {
	return &jwtAuth{authConfig: cfg.Auth}
}

func (p *jwtAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(p.authConfig.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, userOk := claims["user_id"].(string)
	if !userOk {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	tenantID, tenantOk := claims["tenant_id"].(string)
	if !tenantOk {
		tenantID = types.DefaultTenantID
	}

	isAdmin, _ := claims["admin"].(bool)

	return &Claims{UserID: userID, TenantID: tenantID, IsAdmin: isAdmin}, nil
}

func (p *jwtAuth) GenerateToken(userID, tenantID string, isAdmin bool) (string, error) {
	expiration := time.Now().Add(30 * 24 * time.Hour)

	claims := jwt.MapClaims{
		"user_id":   userID,
		"tenant_id": tenantID,
		"exp":       expiration.Unix(),
		"iat":       time.Now().Unix(),
	}
	if isAdmin {
		claims["admin"] = true
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.authConfig.Secret))
}
