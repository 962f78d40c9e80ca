package api

import (
	"net/http"

	"github.com/JaimeStill/ineed/internal/config"
	"github.com/JaimeStill/ineed/internal/infrastructure"
	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/middleware"
	"github.com/JaimeStill/ineed/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	Feed          pagination.Config
	MaxUploadSize int64
	Authn         middleware.Func
	Optional      middleware.Func

	rateLimited bool
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:   infra.Lifecycle,
			Logger:      logger,
			Database:    infra.Database,
			Storage:     infra.Storage,
			Redis:       infra.Redis,
			RateLimiter: infra.RateLimiter,
			Verifier:    infra.Verifier,
			Gemini:      infra.Gemini,
		},
		Pagination:    cfg.API.Pagination,
		Feed:          cfg.API.Feed,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		Authn:         auth.Require(infra.Verifier, logger),
		Optional:      auth.Optional(infra.Verifier),
		rateLimited:   cfg.API.RateLimit.Enabled && infra.RateLimiter != nil,
	}
}

// Limit returns the rate limiting middleware for scope, keyed by the
// authenticated user. It is a no-op when rate limiting is disabled.
func (r *Runtime) Limit(scope string) middleware.Func {
	if !r.rateLimited {
		return middleware.Noop
	}
	return r.RateLimiter.Middleware(scope, func(req *http.Request) string {
		return auth.UserID(req.Context())
	})
}
