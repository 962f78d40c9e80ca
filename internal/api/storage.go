package api

import (
	"bufio"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/JaimeStill/ineed/pkg/handlers"
	"github.com/JaimeStill/ineed/pkg/openapi"
	"github.com/JaimeStill/ineed/pkg/routes"
	"github.com/JaimeStill/ineed/pkg/storage"
)

// mediaHandler serves listing images publicly. Contract documents are
// private and downloaded through the conversations routes instead.
type mediaHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newMediaHandler(store storage.System, logger *slog.Logger) *mediaHandler {
	return &mediaHandler{
		store:  store,
		logger: logger.With("handler", "media"),
	}
}

func (h *mediaHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/media",
		Tags:   []string{"Media"},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "/listings/{key...}",
				Handler: h.listingImage,
				Operation: &openapi.Operation{
					Summary:    "Download a listing image",
					Parameters: []*openapi.Parameter{openapi.PathParam("key", "Image key under listings/")},
					Responses: map[int]*openapi.Response{
						200: {Description: "Image bytes", Content: map[string]*openapi.MediaType{"image/*": {}}},
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *mediaHandler) listingImage(w http.ResponseWriter, r *http.Request) {
	key := path.Join("listings", r.PathValue("key"))
	if !strings.HasPrefix(key, "listings/") {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, storage.ErrInvalidKey)
		return
	}

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	buf := bufio.NewReader(body)
	head, _ := buf.Peek(512)

	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, buf); err != nil {
		h.logger.Warn("image download interrupted", "key", key, "error", err)
	}
}
