package storage

import (
	"errors"
	"net/http"
)

// Key and lookup failures shared by every provider.
var (
	ErrNotFound   = errors.New("object does not exist")
	ErrEmptyKey   = errors.New("object key is required")
	ErrInvalidKey = errors.New("object key must be a relative path without dot segments")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
