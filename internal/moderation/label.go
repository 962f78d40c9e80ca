// Package moderation classifies listings and writes the resulting status
// back to the listing store.
package moderation

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/ineed/internal/listings"
)

// Label is the classifier's verdict for a listing.
type Label string

const (
	LabelPublished Label = "published"
	LabelReview    Label = "review"
	LabelRejected  Label = "rejected"
)

// Labels lists every valid label in schema order.
var Labels = []Label{LabelPublished, LabelReview, LabelRejected}

var (
	// ErrInvalidLabel is returned for any label outside Labels.
	ErrInvalidLabel = errors.New("invalid moderation label")
	// ErrClassifierFailed wraps provider errors and unusable model output.
	ErrClassifierFailed = errors.New("classifier failed")
)

// MapLabel converts a classifier label to the persisted listing status.
func MapLabel(l Label) (listings.Status, error) {
	switch l {
	case LabelPublished:
		return listings.StatusPublished, nil
	case LabelReview:
		return listings.StatusReview, nil
	case LabelRejected:
		return listings.StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, l)
	}
}
