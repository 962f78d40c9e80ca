package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// HMAC verifies and issues HS256 tokens. Issuer and audience are checked
// only when configured.
type HMAC struct {
	secret   []byte
	issuer   string
	audience string
}

// NewHMAC creates an HS256 verifier.
func NewHMAC(secret, issuer, audience string) *HMAC {
	return &HMAC{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (h *HMAC) Verify(_ context.Context, raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}
	if h.audience != "" {
		opts = append(opts, jwt.WithAudience(h.audience))
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tc.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{
		Subject: tc.Subject,
		Name:    tc.Name,
		Email:   tc.Email,
		Picture: tc.Picture,
	}, nil
}

// Issue signs a token for c that expires after ttl.
func (h *HMAC) Issue(c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		Name:    c.Name,
		Email:   c.Email,
		Picture: c.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			Issuer:    h.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if h.audience != "" {
		tc.Audience = jwt.ClaimStrings{h.audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(h.secret)
}
