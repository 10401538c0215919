package api

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the expiry claim from a bearer token without verifying
// the signature. Verification happens server-side; the client only needs the
// timestamp to warn before requests start failing with 401s.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// WarnIfExpiring logs a warning when the configured token expires within the
// given window, or has already expired.
func (c *Client) WarnIfExpiring(ctx context.Context, window time.Duration) {
	if c.token == "" {
		return
	}
	exp, err := TokenExpiry(c.token)
	if err != nil {
		c.logger.Warn(ctx, "cannot inspect bearer token", "error", err)
		return
	}
	switch {
	case time.Now().After(exp):
		c.logger.Warn(ctx, "bearer token expired", "expired_at", exp)
	case time.Until(exp) < window:
		c.logger.Warn(ctx, "bearer token expiring soon", "expires_at", exp)
	}
}
