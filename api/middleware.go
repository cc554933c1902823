package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// credentialCacheTTL bounds how long a validated basic auth pair skips bcrypt
const credentialCacheTTL = 5 * time.Minute

// OperatorAuth guards the dashboard with a single operator account checked
// over HTTP basic auth
type OperatorAuth struct {
	email        string
	passwordHash string

	authenticator auth.Authenticator
}

// NewOperatorAuth sets up go-guardian with a basic strategy for the given
// operator. passwordHash is a bcrypt hash.
func NewOperatorAuth(email, passwordHash string) *OperatorAuth {
	o := &OperatorAuth{
		email:        email,
		passwordHash: passwordHash,
	}
	cache := store.NewFIFO(context.Background(), credentialCacheTTL)
	basicStrategy := basic.New(o.ValidateUser, cache)

	o.authenticator = auth.New()
	o.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	return o
}

// Middleware rejects requests without valid operator credentials. A nil
// OperatorAuth lets everything through.
func (o *OperatorAuth) Middleware(next http.Handler) http.Handler {
	if o == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := o.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.Header().Set("WWW-Authenticate", `Basic realm="reportform dashboard"`)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated", user.UserName())
		next.ServeHTTP(w, r)
	})
}

// ValidateUser checks a basic auth pair against the configured operator
func (o *OperatorAuth) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	usernameHash := sha256.Sum256([]byte(email))
	expectedUsernameHash := sha256.Sum256([]byte(o.email))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	if err := bcrypt.CompareHashAndPassword([]byte(o.passwordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}

	if usernameMatch {
		return auth.NewDefaultUser(email, "operator", nil, nil), nil
	}
	return nil, fmt.Errorf("invalid credentials")
}
