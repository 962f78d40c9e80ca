package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/ineed/internal/assist"
	"github.com/JaimeStill/ineed/internal/categories"
	"github.com/JaimeStill/ineed/internal/config"
	"github.com/JaimeStill/ineed/internal/conversations"
	"github.com/JaimeStill/ineed/internal/listings"
	"github.com/JaimeStill/ineed/internal/reviews"
	"github.com/JaimeStill/ineed/internal/users"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	listingsHandler := listings.NewHandler(
		domain.Listings,
		runtime.Logger,
		runtime.Pagination,
		runtime.MaxUploadSize,
		listings.Guards{
			Authn:    runtime.Authn,
			Optional: runtime.Optional,
			Limit:    runtime.Limit("listings"),
		},
	)

	groups := []routes.Group{
		categories.NewHandler(runtime.Logger).Routes(),
		users.NewHandler(domain.Users, runtime.Logger, runtime.Authn).Routes(),
		listingsHandler.Routes(),
		listingsHandler.AuthorRoutes(),
		conversations.NewHandler(
			domain.Conversations,
			runtime.Logger,
			runtime.Pagination,
			runtime.MaxUploadSize,
			runtime.Authn,
			runtime.Limit("messages"),
		).Routes(),
		reviews.NewHandler(domain.Reviews, runtime.Logger, runtime.Pagination, runtime.Authn).Routes(),
		assist.NewHandler(domain.Assist, runtime.Logger, runtime.Authn, runtime.Limit("assist")).Routes(),
		newMediaHandler(runtime.Storage, runtime.Logger).routes(),
	}

	routes.Register(mux, groups...)

	spec := cfg.API.OpenAPI.NewSpec(cfg.Version)
	if len(spec.Servers) == 0 {
		spec.AddServer(cfg.API.BasePath)
	}
	spec.Components.AddSchemas(componentSchemas())
	spec.Components.AddResponses(map[string]*openapi.Response{
		"InternalError": openapi.ResponseJSON("Backing store unavailable", &openapi.Schema{
			Type:       "object",
			Properties: map[string]*openapi.Schema{"error": {Type: "string"}},
		}),
	})
	routes.Document(spec, groups...)

	specBytes, err := spec.JSON()
	if err != nil {
		return fmt.Errorf("render openapi spec: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	return nil
}
