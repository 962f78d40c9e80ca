package conversations

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound           = errors.New("conversation not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrDuplicate          = errors.New("conversation already exists")
	ErrForbidden          = errors.New("not a participant of this conversation")
	ErrSelfConversation   = errors.New("cannot start a conversation on your own listing")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrNotRecipient       = errors.New("only the recipient may respond")
	ErrAlreadyResolved    = errors.New("offer already resolved")
	ErrNoAcceptedProposal = errors.New("a contract requires an accepted proposal")
	ErrInvalidDocument    = errors.New("contract document must be a readable PDF")
	ErrFileTooLarge       = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps conversation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotRecipient):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrSelfConversation),
		errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrNoAcceptedProposal),
		errors.Is(err, ErrInvalidDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
