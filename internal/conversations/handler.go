package conversations

import (
	"context"
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

// Handler provides HTTP endpoints for conversations. Every route requires
// an authenticated user; message sending is additionally rate limited.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
	authn         middleware.Func
	limit         middleware.Func
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
	authn middleware.Func,
	limit middleware.Func,
) *Handler {
	if limit == nil {
		limit = middleware.Noop
	}
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "conversations"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
		authn:         authn,
		limit:         limit,
	}
}

func (h *Handler) Routes() routes.Group {
	id := openapi.PathParam("id", "Conversation UUID")
	msg := openapi.PathParam("messageId", "Message UUID")
	paging := []*openapi.Parameter{
		id,
		openapi.QueryParam("page", "integer", "Page number", false),
		openapi.QueryParam("pageSize", "integer", "Results per page", false),
	}

	return routes.Group{
		Prefix:     "/conversations",
		Tags:       []string{"Conversations"},
		Middleware: []middleware.Func{h.authn},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: h.List,
				Operation: &openapi.Operation{
					Summary:  "List the caller's conversations",
					Security: openapi.Bearer(),
					Parameters: []*openapi.Parameter{
						openapi.QueryParam("page", "integer", "Page number", false),
						openapi.QueryParam("pageSize", "integer", "Results per page", false),
						openapi.QueryParam("search", "string", "Filter by listing title", false),
					},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Conversations", openapi.SchemaRef("ConversationPageResult")),
						401: openapi.ResponseRef("Unauthorized"),
					},
				},
			},
			{
				Method:     "POST",
				Pattern:    "",
				Handler:    h.Start,
				Middleware: []middleware.Func{h.limit},
				Operation: &openapi.Operation{
					Summary:     "Start or resume the conversation about a listing",
					Security:    openapi.Bearer(),
					RequestBody: openapi.RequestBodyJSON("StartConversationCommand", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Conversation", openapi.SchemaRef("Conversation")),
						400: openapi.ResponseRef("BadRequest"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/unread",
				Handler: h.Unread,
				Operation: &openapi.Operation{
					Summary:  "Count conversations with unseen messages",
					Security: openapi.Bearer(),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Unread count", &openapi.Schema{
							Type:       "object",
							Properties: map[string]*openapi.Schema{"count": {Type: "integer"}},
						}),
						401: openapi.ResponseRef("Unauthorized"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: h.Find,
				Operation: &openapi.Operation{
					Summary:    "Find a conversation",
					Security:   openapi.Bearer(),
					Parameters: []*openapi.Parameter{id},
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Conversation", openapi.SchemaRef("Conversation")),
						403: openapi.ResponseRef("Forbidden"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
			{
				Method:  "POST",
				Pattern: "/{id}/read",
				Handler: h.MarkRead,
				Operation: &openapi.Operation{
					Summary:    "Mark a conversation as read",
					Security:   openapi.Bearer(),
					Parameters: []*openapi.Parameter{id},
					Responses: map[int]*openapi.Response{
						204: {Description: "Marked read"},
						403: openapi.ResponseRef("Forbidden"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}/messages",
				Handler: h.Messages,
				Operation: &openapi.Operation{
					Summary:    "List messages, oldest first",
					Security:   openapi.Bearer(),
					Parameters: paging,
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Messages", openapi.SchemaRef("MessagePageResult")),
						403: openapi.ResponseRef("Forbidden"),
					},
				},
			},
			{
				Method:     "POST",
				Pattern:    "/{id}/messages",
				Handler:    h.SendText,
				Middleware: []middleware.Func{h.limit},
				Operation: &openapi.Operation{
					Summary:     "Send a text message",
					Security:    openapi.Bearer(),
					Parameters:  []*openapi.Parameter{id},
					RequestBody: openapi.RequestBodyJSON("TextCommand", true),
					Responses: map[int]*openapi.Response{
						201: openapi.ResponseJSON("Message", openapi.SchemaRef("Message")),
						400: openapi.ResponseRef("BadRequest"),
						429: openapi.ResponseRef("TooManyRequests"),
					},
				},
			},
			{
				Method:     "POST",
				Pattern:    "/{id}/proposals",
				Handler:    h.SendProposal,
				Middleware: []middleware.Func{h.limit},
				Operation: &openapi.Operation{
					Summary:     "Send a proposal",
					Security:    openapi.Bearer(),
					Parameters:  []*openapi.Parameter{id},
					RequestBody: openapi.RequestBodyJSON("ProposalCommand", true),
					Responses: map[int]*openapi.Response{
						201: openapi.ResponseJSON("Message", openapi.SchemaRef("Message")),
						400: openapi.ResponseRef("BadRequest"),
						429: openapi.ResponseRef("TooManyRequests"),
					},
				},
			},
			{
				Method:     "POST",
				Pattern:    "/{id}/contracts",
				Handler:    h.SendContract,
				Middleware: []middleware.Func{h.limit},
				Operation: &openapi.Operation{
					Summary:     "Send a contract based on the accepted proposal",
					Security:    openapi.Bearer(),
					Parameters:  []*openapi.Parameter{id},
					RequestBody: openapi.RequestBodyJSON("ContractCommand", true),
					Responses: map[int]*openapi.Response{
						201: openapi.ResponseJSON("Message", openapi.SchemaRef("Message")),
						400: openapi.ResponseRef("BadRequest"),
						429: openapi.ResponseRef("TooManyRequests"),
					},
				},
			},
			{
				Method:  "POST",
				Pattern: "/{id}/proposals/{messageId}/respond",
				Handler: h.RespondProposal,
				Operation: &openapi.Operation{
					Summary:     "Accept or reject a proposal",
					Description: "Accepting a proposal rejects every other pending proposal in the conversation.",
					Security:    openapi.Bearer(),
					Parameters:  []*openapi.Parameter{id, msg},
					RequestBody: openapi.RequestBodyJSON("RespondCommand", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Message", openapi.SchemaRef("Message")),
						403: openapi.ResponseRef("Forbidden"),
						409: openapi.ResponseRef("Conflict"),
					},
				},
			},
			{
				Method:  "POST",
				Pattern: "/{id}/contracts/{messageId}/respond",
				Handler: h.RespondContract,
				Operation: &openapi.Operation{
					Summary:     "Accept or reject a contract",
					Security:    openapi.Bearer(),
					Parameters:  []*openapi.Parameter{id, msg},
					RequestBody: openapi.RequestBodyJSON("RespondCommand", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Message", openapi.SchemaRef("Message")),
						403: openapi.ResponseRef("Forbidden"),
						409: openapi.ResponseRef("Conflict"),
					},
				},
			},
			{
				Method:  "POST",
				Pattern: "/{id}/contracts/{messageId}/document",
				Handler: h.AttachDocument,
				Operation: &openapi.Operation{
					Summary:     "Attach a signed contract PDF",
					Security:    openapi.Bearer(),
					Parameters:  []*openapi.Parameter{id, msg},
					RequestBody: openapi.RequestBodyMultipart("file"),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Message", openapi.SchemaRef("Message")),
						400: openapi.ResponseRef("BadRequest"),
						413: openapi.ResponseRef("PayloadTooLarge"),
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}/contracts/{messageId}/document",
				Handler: h.Document,
				Operation: &openapi.Operation{
					Summary:    "Download a contract PDF",
					Security:   openapi.Bearer(),
					Parameters: []*openapi.Parameter{id, msg},
					Responses: map[int]*openapi.Response{
						200: {Description: "Contract PDF", Content: map[string]*openapi.MediaType{"application/pdf": {}}},
						403: openapi.ResponseRef("Forbidden"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), auth.UserID(r.Context()), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var cmd StartCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.ListingID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidMessage)
		return
	}

	c, err := h.sys.Start(r.Context(), cmd.ListingID, auth.UserID(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	n, err := h.sys.UnreadCount(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.sys.Find(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.sys.MarkRead(r.Context(), id, auth.UserID(r.Context())); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	result, err := h.sys.Messages(r.Context(), id, auth.UserID(r.Context()), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) SendText(w http.ResponseWriter, r *http.Request) {
	var cmd TextCommand
	send(h, w, r, &cmd, func(id uuid.UUID, userID string) (*Message, error) {
		return h.sys.SendText(r.Context(), id, userID, cmd)
	})
}

func (h *Handler) SendProposal(w http.ResponseWriter, r *http.Request) {
	var cmd ProposalCommand
	send(h, w, r, &cmd, func(id uuid.UUID, userID string) (*Message, error) {
		return h.sys.SendProposal(r.Context(), id, userID, cmd)
	})
}

func (h *Handler) SendContract(w http.ResponseWriter, r *http.Request) {
	var cmd ContractCommand
	send(h, w, r, &cmd, func(id uuid.UUID, userID string) (*Message, error) {
		return h.sys.SendContract(r.Context(), id, userID, cmd)
	})
}

func (h *Handler) RespondProposal(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.sys.RespondProposal)
}

func (h *Handler) RespondContract(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.sys.RespondContract)
}

// AttachDocument accepts a multipart "file" field holding a contract PDF.
func (h *Handler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageId")
	if !ok {
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
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidDocument)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidDocument)
		return
	}

	doc := DocumentUpload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: detectContentType(header.Header.Get("Content-Type"), data),
	}

	m, err := h.sys.AttachContractDocument(r.Context(), id, messageID, auth.UserID(r.Context()), doc)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageId")
	if !ok {
		return
	}

	body, err := h.sys.ContractDocument(r.Context(), id, messageID, auth.UserID(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "contrato-"+messageID.String()+".pdf"))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("contract download interrupted", "message_id", messageID, "error", err)
	}
}

type respondFunc func(ctx context.Context, id, messageID uuid.UUID, userID string, accept bool) (*Message, error)

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, fn respondFunc) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageId")
	if !ok {
		return
	}

	var cmd RespondCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidMessage)
		return
	}

	m, err := fn(r.Context(), id, messageID, auth.UserID(r.Context()), cmd.Accept)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, m)
}

func send[T any](h *Handler, w http.ResponseWriter, r *http.Request, cmd *T, fn func(uuid.UUID, string) (*Message, error)) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := json.NewDecoder(r.Body).Decode(cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidMessage)
		return
	}

	m, err := fn(id, auth.UserID(r.Context()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, m)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidMessage)
		return uuid.Nil, false
	}
	return id, true
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}
