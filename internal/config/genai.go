package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvGenAIAPIKey            = "INEED_GENAI_API_KEY"
	EnvGenAIModel             = "INEED_GENAI_MODEL"
	EnvGenAIRequestsPerMinute = "INEED_GENAI_REQUESTS_PER_MINUTE"

	EnvModerationTimeout        = "INEED_MODERATION_TIMEOUT"
	EnvModerationWorkers        = "INEED_MODERATION_WORKERS"
	EnvModerationReconnectDelay = "INEED_MODERATION_RECONNECT_DELAY"

	EnvAssistTimeout = "INEED_ASSIST_TIMEOUT"
)

// GenAIConfig configures the shared Gemini client. An empty APIKey leaves
// the client unconfigured; callers then fail their model calls.
type GenAIConfig struct {
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	Burst             int    `toml:"burst"`
}

// Enabled reports whether an API key is present.
func (c *GenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *GenAIConfig) Finalize() error {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = 60
	}
	if c.Burst == 0 {
		c.Burst = 5
	}

	if v := os.Getenv(EnvGenAIAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvGenAIModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvGenAIRequestsPerMinute); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RequestsPerMinute = n
		}
	}

	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("requests_per_minute must be positive")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be positive")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *GenAIConfig) Merge(overlay *GenAIConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.RequestsPerMinute != 0 {
		c.RequestsPerMinute = overlay.RequestsPerMinute
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
}

// ModerationConfig tunes the moderation listener.
type ModerationConfig struct {
	Timeout        string `toml:"timeout"`
	Workers        int    `toml:"workers"`
	ReconnectDelay string `toml:"reconnect_delay"`
}

// TimeoutDuration bounds a single classifier call.
func (c *ModerationConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// ReconnectDelayDuration is the initial backoff after a lost LISTEN connection.
func (c *ModerationConfig) ReconnectDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReconnectDelay)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ModerationConfig) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.ReconnectDelay == "" {
		c.ReconnectDelay = "1s"
	}

	if v := os.Getenv(EnvModerationTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvModerationWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvModerationReconnectDelay); v != "" {
		c.ReconnectDelay = v
	}

	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	if d, err := time.ParseDuration(c.ReconnectDelay); err != nil || d <= 0 {
		return fmt.Errorf("invalid reconnect_delay: %q", c.ReconnectDelay)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *ModerationConfig) Merge(overlay *ModerationConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.ReconnectDelay != "" {
		c.ReconnectDelay = overlay.ReconnectDelay
	}
}

// AssistConfig bounds the description assistant.
type AssistConfig struct {
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *AssistConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AssistConfig) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "20s"
	}
	if v := os.Getenv(EnvAssistTimeout); v != "" {
		c.Timeout = v
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *AssistConfig) Merge(overlay *AssistConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}
