package listings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

// Feed validates the request before any query is issued: a page size above
// the feed cap, an undecodable cursor, or a cursor that does not name a
// listing id fails without touching the store.
func (r *repo) Feed(
	ctx context.Context,
	req pagination.CursorRequest,
	filters FeedFilters,
) (*pagination.CursorResult[Listing], error) {
	if err := req.Validate(r.feed); err != nil {
		return nil, err
	}

	cur, err := req.Position()
	if err != nil {
		return nil, err
	}
	if cur != nil {
		if _, err := uuid.Parse(cur.ID); err != nil {
			return nil, fmt.Errorf("%w: listing id: %v", pagination.ErrInvalidCursor, err)
		}
	}

	qb := filters.Apply(
		query.
			NewBuilder(projection, feedOrder...).
			WhereEquals("Status", StatusPublished),
	)
	if cur != nil {
		qb.WhereBefore("CreatedAt", "ID", cur.CreatedAt, cur.ID)
	}

	q, args := qb.BuildLimit(req.PageSize + 1)
	rows, err := repository.QueryMany(ctx, r.db, q, args, scanListing)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}

	result := pagination.NewCursorResult(rows, req.PageSize, Listing.Position)
	result.Data = r.enrich(ctx, result.Data)

	r.logger.Debug(
		"feed page served",
		"page_size", req.PageSize,
		"returned", len(result.Data),
		"has_more", result.HasMore,
	)
	return &result, nil
}
