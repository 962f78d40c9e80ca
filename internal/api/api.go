// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/ineed/internal/config"
	"github.com/JaimeStill/ineed/internal/infrastructure"
	"github.com/JaimeStill/ineed/pkg/middleware"
	"github.com/JaimeStill/ineed/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and registers the moderation listener with the lifecycle coordinator.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	if err := domain.Moderation.Start(runtime.Lifecycle); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
