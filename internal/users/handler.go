package users

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/handlers"
	"github.com/JaimeStill/ineed/pkg/middleware"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/routes"
)

// Handler provides HTTP endpoints for user profiles.
type Handler struct {
	sys    System
	logger *slog.Logger
	authn  middleware.Func
}

// NewHandler creates a Handler. authn guards the self-service routes.
func NewHandler(sys System, logger *slog.Logger, authn middleware.Func) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "users"),
		authn:  authn,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/users",
		Tags:   []string{"Users"},
		Routes: []routes.Route{
			{
				Method:     "GET",
				Pattern:    "/me",
				Handler:    h.Me,
				Middleware: []middleware.Func{h.authn},
				Operation: &openapi.Operation{
					Summary:  "Current user's profile",
					Security: openapi.Bearer(),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Profile", openapi.SchemaRef("User")),
						401: openapi.ResponseRef("Unauthorized"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
			{
				Method:     "PUT",
				Pattern:    "/me",
				Handler:    h.SaveProfile,
				Middleware: []middleware.Func{h.authn},
				Operation: &openapi.Operation{
					Summary:     "Create or update the current user's profile",
					Security:    openapi.Bearer(),
					RequestBody: openapi.RequestBodyJSON("ProfileCommand", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Profile", openapi.SchemaRef("User")),
						400: openapi.ResponseRef("BadRequest"),
						401: openapi.ResponseRef("Unauthorized"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: h.Find,
				Operation: &openapi.Operation{
					Summary:    "Find a user",
					Parameters: []*openapi.Parameter{openapi.PathParam("id", "User id")},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Profile", openapi.SchemaRef("User")),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	u, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, u)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.sys.Find(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, u)
}

// SaveProfile upserts the caller's profile. Fields left empty in the body
// fall back to the token's name and picture.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var cmd ProfileCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidProfile)
		return
	}

	if claims, ok := auth.FromContext(r.Context()); ok {
		if cmd.Name == "" {
			cmd.Name = claims.Name
		}
		if cmd.PhotoURL == "" {
			cmd.PhotoURL = claims.Picture
		}
	}

	u, err := h.sys.Upsert(r.Context(), auth.UserID(r.Context()), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, u)
}
