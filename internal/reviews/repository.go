package reviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/internal/users"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

type repo struct {
	db         *sql.DB
	users      users.System
	logger     *slog.Logger
	pagination pagination.Config
}

func New(db *sql.DB, people users.System, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		users:      people,
		logger:     logger.With("system", "reviews"),
		pagination: pagination,
	}
}

type reviewTarget struct {
	requesterID      string
	authorID         string
	contractAccepted bool
	reviewedBy       []string
}

func (r *repo) Submit(ctx context.Context, cmd SubmitCommand) (*Review, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	comment := strings.TrimSpace(cmd.Comment)

	review, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Review, error) {
		target, err := lockConversation(ctx, tx, cmd.ConversationID)
		if err != nil {
			return Review{}, err
		}

		switch {
		case !target.contractAccepted:
			return Review{}, ErrContractNotAccepted
		case cmd.ReviewerID != target.requesterID && cmd.ReviewerID != target.authorID:
			return Review{}, ErrForbidden
		case slices.Contains(target.reviewedBy, cmd.ReviewerID):
			return Review{}, ErrAlreadyReviewed
		}

		reviewee := target.requesterID
		if cmd.ReviewerID == target.requesterID {
			reviewee = target.authorID
		}

		var (
			average float64
			count   int
		)
		err = tx.QueryRowContext(ctx,
			"SELECT rating, review_count FROM users WHERE id = $1 FOR UPDATE", reviewee,
		).Scan(&average, &count)
		if err != nil {
			return Review{}, repository.MapError(err, ErrUserNotFound, ErrAlreadyReviewed)
		}

		q := `
			INSERT INTO reviews(id, conversation_id, reviewer_id, reviewee_id, rating, comment)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, conversation_id, reviewer_id, reviewee_id, rating, comment, created_at`

		args := []any{uuid.New(), cmd.ConversationID, cmd.ReviewerID, reviewee, cmd.Rating, comment}
		review, err := repository.QueryOne(ctx, tx, q, args, scanReview)
		if err != nil {
			return Review{}, repository.MapError(err, ErrConversationNotFound, ErrAlreadyReviewed)
		}

		nextAverage, nextCount := NextRating(average, count, cmd.Rating)
		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE users SET rating = $2, review_count = $3 WHERE id = $1",
			reviewee, nextAverage, nextCount,
		); err != nil {
			return Review{}, fmt.Errorf("update rating: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET reviewed_by = reviewed_by || to_jsonb($2::text),
			    status = CASE WHEN jsonb_array_length(reviewed_by) + 1 >= 2 THEN 'completed' ELSE status END
			WHERE id = $1`,
			cmd.ConversationID, cmd.ReviewerID,
		); err != nil {
			return Review{}, fmt.Errorf("mark reviewed: %w", err)
		}

		return review, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"review submitted",
		"conversation_id", review.ConversationID,
		"reviewee", review.RevieweeID,
		"rating", review.Rating,
	)
	return &review, nil
}

func (r *repo) ListForUser(
	ctx context.Context,
	userID string,
	page pagination.PageRequest,
) (*pagination.PageResult[Review], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort).WhereEquals("RevieweeID", userID)

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReview)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}

	if len(items) > 0 {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ReviewerID
		}
		authors := r.users.Authors(ctx, ids)
		for i := range items {
			a, ok := authors[items[i].ReviewerID]
			if !ok {
				a = users.Placeholder(items[i].ReviewerID)
			}
			items[i].Reviewer = &a
		}
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func lockConversation(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*reviewTarget, error) {
	var (
		t        reviewTarget
		reviewed []byte
	)

	err := tx.QueryRowContext(ctx, `
		SELECT requester_id, author_id, contract_accepted, reviewed_by
		FROM conversations WHERE id = $1 FOR UPDATE`, id,
	).Scan(&t.requesterID, &t.authorID, &t.contractAccepted, &reviewed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock conversation: %w", err)
	}

	if len(reviewed) > 0 {
		if err := json.Unmarshal(reviewed, &t.reviewedBy); err != nil {
			return nil, fmt.Errorf("unmarshal reviewed_by: %w", err)
		}
	}
	return &t, nil
}

func validate(cmd SubmitCommand) error {
	switch {
	case cmd.ConversationID == uuid.Nil:
		return fmt.Errorf("%w: conversation required", ErrInvalidReview)
	case cmd.ReviewerID == "":
		return fmt.Errorf("%w: reviewer required", ErrInvalidReview)
	case cmd.Rating < MinRating || cmd.Rating > MaxRating:
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidReview, MinRating, MaxRating)
	}
	return nil
}
