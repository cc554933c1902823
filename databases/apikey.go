package databases

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIKeyInfo is what a Supabase API key says about itself
type APIKeyInfo struct {
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the key carried an expiry that is before now
func (i APIKeyInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// InspectAPIKey decodes the claims of a JWT-style Supabase key without
// verifying its signature. Only the backend can verify it; this is for
// startup diagnostics.
func InspectAPIKey(key string) (APIKeyInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return APIKeyInfo{}, fmt.Errorf("api key is not a jwt: %w", err)
	}

	info := APIKeyInfo{}
	info.Role, _ = claims["role"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return APIKeyInfo{}, err
	}
	if exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
