package users

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicate      = errors.New("user already exists")
	ErrInvalidProfile = errors.New("invalid profile")
)

// MapHTTPStatus maps user domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
