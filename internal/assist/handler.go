package assist

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/ineed/pkg/handlers"
	"github.com/JaimeStill/ineed/pkg/middleware"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/routes"
)

type Handler struct {
	sys    System
	logger *slog.Logger
	authn  middleware.Func
	limit  middleware.Func
}

func NewHandler(sys System, logger *slog.Logger, authn, limit middleware.Func) *Handler {
	if limit == nil {
		limit = middleware.Noop
	}
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "assist"),
		authn:  authn,
		limit:  limit,
	}
}

func (h *Handler) Routes() routes.Group {
	responses := func(name, schema string) map[int]*openapi.Response {
		return map[int]*openapi.Response{
			200: openapi.ResponseJSON(name, openapi.SchemaRef(schema)),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			429: openapi.ResponseRef("TooManyRequests"),
			502: openapi.ResponseRef("BadGateway"),
		}
	}

	return routes.Group{
		Prefix:     "/assist",
		Tags:       []string{"Assist"},
		Middleware: []middleware.Func{h.authn, h.limit},
		Routes: []routes.Route{
			{
				Method:  "POST",
				Pattern: "/refine",
				Handler: h.Refine,
				Operation: &openapi.Operation{
					Summary:     "Rewrite a listing description to be clearer",
					Security:    openapi.Bearer(),
					RequestBody: openapi.RequestBodyJSON("RefineRequest", true),
					Responses:   responses("Refined description", "Refinement"),
				},
			},
			{
				Method:  "POST",
				Pattern: "/recommend",
				Handler: h.Recommend,
				Operation: &openapi.Operation{
					Summary:     "Suggest provider profiles for a listing",
					Security:    openapi.Bearer(),
					RequestBody: openapi.RequestBodyJSON("RecommendRequest", true),
					Responses:   responses("Recommendations", "Recommendations"),
				},
			},
		},
	}
}

func (h *Handler) Refine(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	out, err := h.sys.RefineDescription(r.Context(), req.Description)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	out, err := h.sys.RecommendProviders(r.Context(), req.ListingDescription)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, out)
}
