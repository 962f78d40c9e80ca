package listings

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/pkg/pagination"
)

// System defines the public contract for listing operations.
type System interface {
	Find(ctx context.Context, id uuid.UUID) (*Listing, error)
	Create(ctx context.Context, authorID string, cmd CreateCommand) (*Listing, error)
	Update(ctx context.Context, id uuid.UUID, authorID string, cmd UpdateCommand) (*Listing, error)
	Delete(ctx context.Context, id uuid.UUID, authorID string) error

	// UpdateStatus overwrites only the status column. It accepts moderated
	// statuses only.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	AttachImage(ctx context.Context, id uuid.UUID, authorID string, img ImageUpload) (*Listing, error)

	// ListByAuthor pages an author's listings. Unless includeAll is set only
	// published listings are returned.
	ListByAuthor(
		ctx context.Context,
		authorID string,
		includeAll bool,
		page pagination.PageRequest,
	) (*pagination.PageResult[Listing], error)

	// Feed returns one keyset page of published listings, newest first.
	// The page size is validated before the store is queried.
	Feed(
		ctx context.Context,
		req pagination.CursorRequest,
		filters FeedFilters,
	) (*pagination.CursorResult[Listing], error)

	MapData(ctx context.Context) (*FeatureCollection, error)
}
