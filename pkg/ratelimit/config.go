package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config sets a fixed-window budget: at most Requests per Window for each key.
type Config struct {
	Enabled  bool   `toml:"enabled"`
	Requests int    `toml:"requests"`
	Window   string `toml:"window"`
	Prefix   string `toml:"prefix"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Enabled  string
	Requests string
	Window   string
}

// WindowDuration returns Window as a time.Duration.
func (c *Config) WindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.Window)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.Requests == 0 {
		c.Requests = 30
	}
	if c.Window == "" {
		c.Window = "1m"
	}
	if c.Prefix == "" {
		c.Prefix = "ineed:rate"
	}

	if env != nil {
		if v := os.Getenv(env.Enabled); env.Enabled != "" && v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
		if v := os.Getenv(env.Requests); env.Requests != "" && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Requests = n
			}
		}
		if v := os.Getenv(env.Window); env.Window != "" && v != "" {
			c.Window = v
		}
	}

	if c.Requests < 1 {
		return fmt.Errorf("requests must be positive")
	}
	if d, err := time.ParseDuration(c.Window); err != nil || d <= 0 {
		return fmt.Errorf("invalid window: %q", c.Window)
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.Requests != 0 {
		c.Requests = overlay.Requests
	}
	if overlay.Window != "" {
		c.Window = overlay.Window
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
}
