package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// TokenHolder supplies the bearer token the console received at login.
// The console never holds the signing secret, so the token is parsed
// unverified purely to read its expiry claim: an expired token fails
// locally, before any round trip, and the caller can route the user to
// the login flow.
type TokenHolder struct {
	mu     sync.RWMutex
	token  string
	claims *jwt.RegisteredClaims
	now    func() time.Time
}

var _ ports.TokenProvider = (*TokenHolder)(nil)

// NewTokenHolder creates a holder seeded with the initial token. An
// empty token is allowed; Token then fails until Set is called.
func NewTokenHolder(token string) *TokenHolder {
	h := &TokenHolder{now: time.Now}
	if token != "" {
		h.Set(token)
	}
	return h
}

// Set installs a fresh token, e.g. after the session collaborator
// re-authenticates.
func (h *TokenHolder) Set(token string) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	// Opaque (non-JWT) tokens are passed through without an expiry
	// check; the backend owns rejection then.
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		claims = nil
	}

	h.mu.Lock()
	h.token = token
	h.claims = claims
	h.mu.Unlock()
}

// Token returns the bearer token, or an authorization failure when it
// is missing or expired.
func (h *TokenHolder) Token(ctx context.Context) (string, error) {
	h.mu.RLock()
	token := h.token
	claims := h.claims
	h.mu.RUnlock()

	if token == "" {
		return "", apperrors.ErrUnauthorized
	}
	if claims != nil && claims.ExpiresAt != nil && !claims.ExpiresAt.After(h.now()) {
		return "", apperrors.ErrTokenExpired
	}
	return token, nil
}
