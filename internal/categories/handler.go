package categories

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/ineed/pkg/handlers"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/routes"
)

var (
	ErrNotFound    = errors.New("category not found")
	ErrInvalidType = errors.New("invalid category type")
)

// Handler serves the catalogue over HTTP.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("handler", "categories")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/categories",
		Tags:   []string{"Categories"},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: h.List,
				Operation: &openapi.Operation{
					Summary:    "List categories",
					Parameters: []*openapi.Parameter{openapi.QueryParam("type", "string", "product or service", false)},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Categories", openapi.ArrayOf("Category")),
						400: openapi.ResponseRef("BadRequest"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: h.Find,
				Operation: &openapi.Operation{
					Summary:    "Find a category",
					Parameters: []*openapi.Parameter{openapi.PathParam("id", "Category id")},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Category", openapi.SchemaRef("Category")),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

// List returns the catalogue, optionally restricted by ?type=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	t := Type(r.URL.Query().Get("type"))
	if t == "" {
		handlers.RespondJSON(w, http.StatusOK, All())
		return
	}
	if !t.Valid() {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidType)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, ByType(t))
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	c, ok := Find(r.PathValue("id"))
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, c)
}
