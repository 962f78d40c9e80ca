// Package reviews records ratings exchanged after an accepted contract and
// keeps each user's running average.
package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/internal/users"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one participant's rating of the other after a contract.
type Review struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversationId"`
	ReviewerID     string        `json:"reviewerId"`
	RevieweeID     string        `json:"revieweeId"`
	Rating         int           `json:"rating"`
	Comment        string        `json:"comment"`
	CreatedAt      time.Time     `json:"createdAt"`
	Reviewer       *users.Author `json:"reviewer,omitempty"`
}

// SubmitCommand carries a new review. The reviewer comes from the caller's
// identity, never from the body.
type SubmitCommand struct {
	ConversationID uuid.UUID `json:"conversationId"`
	ReviewerID     string    `json:"-"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
}

// NextRating folds a new rating into a running average.
func NextRating(average float64, count, rating int) (float64, int) {
	next := count + 1
	return (average*float64(count) + float64(rating)) / float64(next), next
}
