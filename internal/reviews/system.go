package reviews

import (
	"context"

	"github.com/JaimeStill/ineed/pkg/pagination"
)

// System defines the contract for reviews.
type System interface {
	// Submit records a review and updates the reviewee's average in one
	// transaction.
	Submit(ctx context.Context, cmd SubmitCommand) (*Review, error)
	ListForUser(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResult[Review], error)
}
