package listings

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/ineed/pkg/pagination"
)

// Domain errors for listing operations.
var (
	ErrNotFound       = errors.New("listing not found")
	ErrDuplicate      = errors.New("listing already exists")
	ErrInvalidListing = errors.New("invalid listing")
	ErrInvalidStatus  = errors.New("invalid listing status")
	ErrForbidden      = errors.New("only the author may change this listing")
	ErrInvalidImage   = errors.New("invalid image")
	ErrFileTooLarge   = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps listing and feed errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidListing),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidImage),
		errors.Is(err, pagination.ErrPageSizeExceeded),
		errors.Is(err, pagination.ErrInvalidPageSize),
		errors.Is(err, pagination.ErrInvalidCursor):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
