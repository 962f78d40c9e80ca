// Package auth verifies bearer tokens and carries the authenticated caller
// through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Claims is the caller identity extracted from a verified token.
type Claims struct {
	Subject string `json:"sub"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// New builds the verifier selected by cfg.Mode.
func New(cfg *Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeOIDC:
		return newOIDC(cfg), nil
	case ModeHMAC:
		return NewHMAC(cfg.Secret, cfg.Issuer, cfg.ClientID), nil
	}
	return nil, fmt.Errorf("unknown auth mode: %s", cfg.Mode)
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the claims stored by the auth middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok {
		return c.Subject
	}
	return ""
}
