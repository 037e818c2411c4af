package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeyInfo is what the dashboard can tell about a backend key without the
// signing secret.
type KeyInfo struct {
	Role      string
	Issuer    string
	ExpiresAt *time.Time
}

func (k KeyInfo) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// InspectAPIKey decodes the claims of a JWT-shaped backend key. The
// signature is not verified; only the backend can do that.
func InspectAPIKey(key string) (KeyInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return KeyInfo{}, fmt.Errorf("api key is not a JWT: %w", err)
	}

	info := KeyInfo{}
	if role, ok := claims["role"].(string); ok {
		info.Role = role
	}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info, nil
}
