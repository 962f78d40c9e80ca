package reviews

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/handlers"
	"github.com/JaimeStill/ineed/pkg/middleware"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/routes"
)

type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
	authn      middleware.Func
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, authn middleware.Func) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "reviews"),
		pagination: pagination,
		authn:      authn,
	}
}

// Routes returns the review endpoints. Submission lives under /reviews and
// the per-user listing under /users/{id}/reviews.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Tags: []string{"Reviews"},
		Routes: []routes.Route{
			{
				Method:     "POST",
				Pattern:    "/reviews",
				Handler:    h.Submit,
				Middleware: []middleware.Func{h.authn},
				Operation: &openapi.Operation{
					Summary:     "Review the other participant of a contracted conversation",
					Security:    openapi.Bearer(),
					RequestBody: openapi.RequestBodyJSON("SubmitReviewCommand", true),
					Responses: map[int]*openapi.Response{
						201: openapi.ResponseJSON("Review", openapi.SchemaRef("Review")),
						400: openapi.ResponseRef("BadRequest"),
						401: openapi.ResponseRef("Unauthorized"),
						403: openapi.ResponseRef("Forbidden"),
						409: openapi.ResponseRef("Conflict"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/users/{id}/reviews",
				Handler: h.ListForUser,
				Operation: &openapi.Operation{
					Summary: "List reviews received by a user",
					Parameters: []*openapi.Parameter{
						openapi.PathParam("id", "User id"),
						openapi.QueryParam("page", "integer", "Page number", false),
						openapi.QueryParam("pageSize", "integer", "Results per page", false),
					},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Reviews", openapi.SchemaRef("ReviewPageResult")),
					},
				},
			},
		},
	}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var cmd SubmitCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidReview)
		return
	}
	cmd.ReviewerID = auth.UserID(r.Context())

	review, err := h.sys.Submit(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, review)
}

func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.ListForUser(r.Context(), r.PathValue("id"), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}
