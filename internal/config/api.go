package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/ineed/pkg/formatting"
	"github.com/JaimeStill/ineed/pkg/middleware"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/ratelimit"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "INEED_CORS_ENABLED",
	Origins:          "INEED_CORS_ORIGINS",
	AllowedMethods:   "INEED_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "INEED_CORS_ALLOWED_HEADERS",
	AllowCredentials: "INEED_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "INEED_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "INEED_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "INEED_PAGINATION_MAX_PAGE_SIZE",
}

var feedEnv = &pagination.ConfigEnv{
	DefaultPageSize: "INEED_FEED_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "INEED_FEED_MAX_PAGE_SIZE",
}

var rateLimitEnv = &ratelimit.Env{
	Enabled:  "INEED_RATE_LIMIT_ENABLED",
	Requests: "INEED_RATE_LIMIT_REQUESTS",
	Window:   "INEED_RATE_LIMIT_WINDOW",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "INEED_OPENAPI_TITLE",
	Description: "INEED_OPENAPI_DESCRIPTION",
	ServerURL:   "INEED_OPENAPI_SERVER_URL",
}

// APIConfig holds routing, upload limits, and the nested HTTP policies.
// Pagination governs offset listings; Feed governs the cursor feed and
// carries its own default and cap.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	Feed          pagination.Config     `toml:"feed"`
	RateLimit     ratelimit.Config      `toml:"rate_limit"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 10 << 20
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and every nested config.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
	if c.Feed.DefaultPageSize == 0 {
		c.Feed.DefaultPageSize = 12
	}
	if c.Feed.MaxPageSize == 0 {
		c.Feed.MaxPageSize = 20
	}

	if v := os.Getenv("INEED_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("INEED_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}

	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Feed.Finalize(feedEnv); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	if err := c.RateLimit.Finalize(rateLimitEnv); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Feed.Merge(&overlay.Feed)
	c.RateLimit.Merge(&overlay.RateLimit)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}
