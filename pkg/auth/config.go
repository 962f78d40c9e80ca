package auth

import (
	"fmt"
	"os"
)

// Verification modes.
const (
	ModeOIDC = "oidc"
	ModeHMAC = "hmac"
)

const firebaseJWKS = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Config selects how bearer tokens are verified. In oidc mode tokens are
// checked against Issuer's signing keys and must carry ClientID as audience.
// In hmac mode tokens are HS256 signed with Secret.
type Config struct {
	Mode     string `toml:"mode"`
	Issuer   string `toml:"issuer"`
	ClientID string `toml:"client_id"`
	JWKSURL  string `toml:"jwks_url"`
	Secret   string `toml:"secret"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Mode     string
	Issuer   string
	ClientID string
	JWKSURL  string
	Secret   string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		fromEnv(env.Mode, &c.Mode)
		fromEnv(env.Issuer, &c.Issuer)
		fromEnv(env.ClientID, &c.ClientID)
		fromEnv(env.JWKSURL, &c.JWKSURL)
		fromEnv(env.Secret, &c.Secret)
	}

	if c.Mode == "" {
		c.Mode = ModeHMAC
	}
	if c.Mode == ModeOIDC && c.JWKSURL == "" {
		c.JWKSURL = firebaseJWKS
	}

	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeOIDC:
		if c.Issuer == "" || c.ClientID == "" {
			return fmt.Errorf("issuer and client_id required for oidc mode")
		}
	case ModeHMAC:
		if len(c.Secret) < 16 {
			return fmt.Errorf("secret of at least 16 bytes required for hmac mode")
		}
	default:
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}
	return nil
}

func fromEnv(name string, dst *string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
