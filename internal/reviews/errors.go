package reviews

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidReview        = errors.New("invalid review")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUserNotFound         = errors.New("reviewed user not found")
	ErrForbidden            = errors.New("only participants may review")
	ErrContractNotAccepted  = errors.New("reviews require an accepted contract")
	ErrAlreadyReviewed      = errors.New("review already submitted")
)

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrConversationNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyReviewed):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidReview), errors.Is(err, ErrContractNotAccepted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
