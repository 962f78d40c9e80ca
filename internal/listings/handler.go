package listings

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/formatting"
	"github.com/JaimeStill/ineed/pkg/handlers"
	"github.com/JaimeStill/ineed/pkg/middleware"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/routes"
)

// Guards are the per-route middleware a listing handler is wired with.
// Authn requires a verified user, Optional attaches one when present, and
// Limit throttles writes.
type Guards struct {
	Authn    middleware.Func
	Optional middleware.Func
	Limit    middleware.Func
}

// Handler provides HTTP endpoints for listings.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
	guards        Guards
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
	guards Guards,
) *Handler {
	if guards.Optional == nil {
		guards.Optional = middleware.Noop
	}
	if guards.Limit == nil {
		guards.Limit = middleware.Noop
	}
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "listings"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
		guards:        guards,
	}
}

func (h *Handler) Routes() routes.Group {
	feedParams := []*openapi.Parameter{
		openapi.QueryParam("cursor", "string", "Opaque cursor from a previous page", false),
		openapi.QueryParam("pageSize", "integer", "Page size (default 12, max 20)", false),
		openapi.QueryParam("categoryId", "string", "Filter by category", false),
		openapi.QueryParam("maxBudget", "number", "Upper budget bound", false),
	}
	idParam := []*openapi.Parameter{openapi.PathParam("id", "Listing UUID")}

	return routes.Group{
		Prefix: "/listings",
		Tags:   []string{"Listings"},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "/feed",
				Handler: h.Feed,
				Operation: &openapi.Operation{
					Summary:    "Page through published listings, newest first",
					Parameters: feedParams,
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Feed page", openapi.SchemaRef("ListingFeed")),
						400: openapi.ResponseRef("BadRequest"),
						500: openapi.ResponseRef("InternalError"),
					},
				},
			},
			{
				Method:  "POST",
				Pattern: "/feed",
				Handler: h.SearchFeed,
				Operation: &openapi.Operation{
					Summary:     "Page through published listings with a JSON body",
					RequestBody: openapi.RequestBodyJSON("FeedRequest", false),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Feed page", openapi.SchemaRef("ListingFeed")),
						400: openapi.ResponseRef("BadRequest"),
						500: openapi.ResponseRef("InternalError"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/map-data",
				Handler: h.MapData,
				Operation: &openapi.Operation{
					Summary: "Published listings as GeoJSON points",
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Feature collection", openapi.SchemaRef("FeatureCollection")),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: h.Find,
				Operation: &openapi.Operation{
					Summary:    "Find a listing",
					Parameters: idParam,
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Listing", openapi.SchemaRef("Listing")),
						400: openapi.ResponseRef("BadRequest"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
			{
				Method:     "POST",
				Pattern:    "",
				Handler:    h.Create,
				Middleware: []middleware.Func{h.guards.Authn, h.guards.Limit},
				Operation: &openapi.Operation{
					Summary:     "Create a listing",
					Description: "New listings start as pending and are moderated asynchronously.",
					Security:    openapi.Bearer(),
					RequestBody: openapi.RequestBodyJSON("CreateListingCommand", true),
					Responses: map[int]*openapi.Response{
						201: openapi.ResponseJSON("Created listing", openapi.SchemaRef("Listing")),
						400: openapi.ResponseRef("BadRequest"),
						401: openapi.ResponseRef("Unauthorized"),
						429: openapi.ResponseRef("TooManyRequests"),
					},
				},
			},
			{
				Method:     "PATCH",
				Pattern:    "/{id}",
				Handler:    h.Update,
				Middleware: []middleware.Func{h.guards.Authn, h.guards.Limit},
				Operation: &openapi.Operation{
					Summary:     "Edit a listing",
					Description: "Changing the title or description resubmits the listing for moderation.",
					Security:    openapi.Bearer(),
					Parameters:  idParam,
					RequestBody: openapi.RequestBodyJSON("UpdateListingCommand", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Updated listing", openapi.SchemaRef("Listing")),
						400: openapi.ResponseRef("BadRequest"),
						401: openapi.ResponseRef("Unauthorized"),
						403: openapi.ResponseRef("Forbidden"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
			{
				Method:     "DELETE",
				Pattern:    "/{id}",
				Handler:    h.Delete,
				Middleware: []middleware.Func{h.guards.Authn},
				Operation: &openapi.Operation{
					Summary:    "Delete a listing",
					Security:   openapi.Bearer(),
					Parameters: idParam,
					Responses: map[int]*openapi.Response{
						204: {Description: "Deleted"},
						401: openapi.ResponseRef("Unauthorized"),
						403: openapi.ResponseRef("Forbidden"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
			{
				Method:     "POST",
				Pattern:    "/{id}/images",
				Handler:    h.UploadImage,
				Middleware: []middleware.Func{h.guards.Authn, h.guards.Limit},
				Operation: &openapi.Operation{
					Summary:     "Attach an image to a listing",
					Security:    openapi.Bearer(),
					Parameters:  idParam,
					RequestBody: openapi.RequestBodyMultipart("file"),
					Responses: map[int]*openapi.Response{
						201: openapi.ResponseJSON("Updated listing", openapi.SchemaRef("Listing")),
						400: openapi.ResponseRef("BadRequest"),
						401: openapi.ResponseRef("Unauthorized"),
						403: openapi.ResponseRef("Forbidden"),
						413: openapi.ResponseRef("PayloadTooLarge"),
					},
				},
			},
		},
	}
}

// AuthorRoutes exposes an author's listings under /users/{id}/listings.
func (h *Handler) AuthorRoutes() routes.Group {
	return routes.Group{
		Prefix: "/users",
		Tags:   []string{"Listings"},
		Routes: []routes.Route{
			{
				Method:     "GET",
				Pattern:    "/{id}/listings",
				Handler:    h.ListByAuthor,
				Middleware: []middleware.Func{h.guards.Optional},
				Operation: &openapi.Operation{
					Summary:     "List an author's listings",
					Description: "Authors see every status on their own listings; others see published ones only.",
					Parameters: []*openapi.Parameter{
						openapi.PathParam("id", "Author id"),
						openapi.QueryParam("page", "integer", "Page number", false),
						openapi.QueryParam("pageSize", "integer", "Results per page", false),
						openapi.QueryParam("search", "string", "Search title and description", false),
						openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
					},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Listings", openapi.SchemaRef("ListingPageResult")),
					},
				},
			},
		},
	}
}

// Feed serves a keyset page from query parameters.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	req, err := pagination.CursorRequestFromQuery(values)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	filters, err := FeedFiltersFromQuery(values)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.serveFeed(w, r, req, filters)
}

// SearchFeed serves a keyset page from a JSON body. An empty body requests
// the first page.
func (h *Handler) SearchFeed(w http.ResponseWriter, r *http.Request) {
	var req FeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidListing)
		return
	}

	h.serveFeed(w, r, req.CursorRequest, req.FeedFilters)
}

func (h *Handler) serveFeed(w http.ResponseWriter, r *http.Request, req pagination.CursorRequest, filters FeedFilters) {
	result, err := h.sys.Feed(r.Context(), req, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) MapData(w http.ResponseWriter, r *http.Request) {
	fc, err := h.sys.MapData(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, fc)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidListing)
		return
	}

	l, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, l)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidListing)
		return
	}

	l, err := h.sys.Create(r.Context(), auth.UserID(r.Context()), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, l)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidListing)
		return
	}

	var cmd UpdateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidListing)
		return
	}

	l, err := h.sys.Update(r.Context(), id, auth.UserID(r.Context()), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, l)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidListing)
		return
	}

	if err := h.sys.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts a multipart "file" field holding a single image.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidListing)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: limit %s", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidImage)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidImage)
		return
	}

	img := ImageUpload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: detectContentType(header.Header.Get("Content-Type"), data),
	}

	l, err := h.sys.AttachImage(r.Context(), id, auth.UserID(r.Context()), img)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, l)
}

// ListByAuthor lists every status to the author and published listings to
// everyone else.
func (h *Handler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := r.PathValue("id")
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	includeAll := authorID != "" && auth.UserID(r.Context()) == authorID

	result, err := h.sys.ListByAuthor(r.Context(), authorID, includeAll, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}
