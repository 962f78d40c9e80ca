package openapi

import "os"

// Config holds OpenAPI metadata for spec generation.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	ServerURL   string `toml:"server_url"`
}

// ConfigEnv maps config fields to environment variable names.
type ConfigEnv struct {
	Title       string
	Description string
	ServerURL   string
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "iNeed API"
	}
	if c.Description == "" {
		c.Description = "Marketplace API for product and service requests with AI-assisted listing moderation."
	}
	if env != nil {
		setFromEnv(env.Title, &c.Title)
		setFromEnv(env.Description, &c.Description)
		setFromEnv(env.ServerURL, &c.ServerURL)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.ServerURL != "" {
		c.ServerURL = overlay.ServerURL
	}
}

// NewSpec creates a Spec from the config.
func (c *Config) NewSpec(version string) *Spec {
	spec := NewSpec(c.Title, version)
	spec.SetDescription(c.Description)
	if c.ServerURL != "" {
		spec.AddServer(c.ServerURL)
	}
	return spec
}

func setFromEnv(name string, dst *string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
