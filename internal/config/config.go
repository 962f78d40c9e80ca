// Package config loads the iNeed service configuration from config.toml, an
// optional per-environment overlay, and INEED_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/database"
	"github.com/JaimeStill/ineed/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvIneedEnv             = "INEED_ENV"
	EnvIneedShutdownTimeout = "INEED_SHUTDOWN_TIMEOUT"
	EnvIneedVersion         = "INEED_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "INEED_DB_HOST",
	Port:            "INEED_DB_PORT",
	Name:            "INEED_DB_NAME",
	User:            "INEED_DB_USER",
	Password:        "INEED_DB_PASSWORD",
	SSLMode:         "INEED_DB_SSL_MODE",
	AppName:         "INEED_DB_APP_NAME",
	MaxOpenConns:    "INEED_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "INEED_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "INEED_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "INEED_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "INEED_STORAGE_PROVIDER",
	ContainerName:    "INEED_STORAGE_CONTAINER_NAME",
	ConnectionString: "INEED_STORAGE_CONNECTION_STRING",
	ServiceURL:       "INEED_STORAGE_SERVICE_URL",
	Endpoint:         "INEED_STORAGE_ENDPOINT",
	AccessKey:        "INEED_STORAGE_ACCESS_KEY",
	SecretKey:        "INEED_STORAGE_SECRET_KEY",
	Region:           "INEED_STORAGE_REGION",
	UseSSL:           "INEED_STORAGE_USE_SSL",
}

var authEnv = &auth.Env{
	Mode:     "INEED_AUTH_MODE",
	Issuer:   "INEED_AUTH_ISSUER",
	ClientID: "INEED_AUTH_CLIENT_ID",
	JWKSURL:  "INEED_AUTH_JWKS_URL",
	Secret:   "INEED_AUTH_SECRET",
}

// Config is the root configuration for the iNeed service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	Redis           RedisConfig      `toml:"redis"`
	Auth            auth.Config      `toml:"auth"`
	GenAI           GenAIConfig      `toml:"genai"`
	Moderation      ModerationConfig `toml:"moderation"`
	Assist          AssistConfig     `toml:"assist"`
	API             APIConfig        `toml:"api"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the INEED_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvIneedEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Redis.Merge(&overlay.Redis)
	c.Auth.Merge(&overlay.Auth)
	c.GenAI.Merge(&overlay.GenAI)
	c.Moderation.Merge(&overlay.Moderation)
	c.Assist.Merge(&overlay.Assist)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Redis.Finalize(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.GenAI.Finalize(); err != nil {
		return fmt.Errorf("genai: %w", err)
	}
	if err := c.Moderation.Finalize(); err != nil {
		return fmt.Errorf("moderation: %w", err)
	}
	if err := c.Assist.Finalize(); err != nil {
		return fmt.Errorf("assist: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if c.Moderation.Workers >= c.Database.MaxOpenConns {
		return fmt.Errorf(
			"moderation: workers (%d) must be below database max_open_conns (%d)",
			c.Moderation.Workers, c.Database.MaxOpenConns,
		)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvIneedShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvIneedVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvIneedEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
