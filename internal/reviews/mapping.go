package reviews

import (
	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reviews", "r").
	Project("id", "ID").
	Project("conversation_id", "ConversationID").
	Project("reviewer_id", "ReviewerID").
	Project("reviewee_id", "RevieweeID").
	Project("rating", "Rating").
	Project("comment", "Comment").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

func scanReview(s repository.Scanner) (Review, error) {
	var r Review
	err := s.Scan(
		&r.ID,
		&r.ConversationID,
		&r.ReviewerID,
		&r.RevieweeID,
		&r.Rating,
		&r.Comment,
		&r.CreatedAt,
	)
	return r, err
}
