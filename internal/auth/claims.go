package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the access token payload the client reads.
// The signature is never verified client-side.
type Claims struct {
	UserID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims decodes an access token without verifying it.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Subject returns the user id the token was issued for.
func (c *Claims) Subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
