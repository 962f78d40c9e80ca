package users

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a user repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "users"),
	}
}

func (r *repo) Find(ctx context.Context, id string) (*User, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}

func (r *repo) Upsert(ctx context.Context, id string, cmd ProfileCommand) (*User, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if id == "" || cmd.Name == "" {
		return nil, ErrInvalidProfile
	}

	q := `
		INSERT INTO users(id, name, photo_url, bio, location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			photo_url = EXCLUDED.photo_url,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location
		RETURNING id, name, photo_url, bio, location, rating, review_count, created_at`

	args := []any{id, cmd.Name, cmd.PhotoURL, cmd.Bio, cmd.Location}

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("profile saved", "id", u.ID)
	return &u, nil
}

func (r *repo) Author(ctx context.Context, id string) Author {
	u, err := r.Find(ctx, id)
	if err != nil {
		r.logger.Warn("author lookup failed", "id", id, "error", err)
		return Placeholder(id)
	}
	return AuthorOf(*u)
}

func (r *repo) Authors(ctx context.Context, ids []string) map[string]Author {
	out := make(map[string]Author, len(ids))
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))
	if len(unique) == 0 {
		return out
	}

	idCol, _ := projection.Column("ID")
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ANY($1)",
		projection.Columns(),
		projection.From(),
		idCol,
	)

	found, err := repository.QueryMany(ctx, r.db, q, []any{unique}, scanUser)
	if err != nil {
		r.logger.Warn("author batch lookup failed", "count", len(unique), "error", err)
	}
	for _, u := range found {
		out[u.ID] = AuthorOf(u)
	}

	for _, id := range unique {
		if _, ok := out[id]; !ok {
			out[id] = Placeholder(id)
		}
	}
	return out
}
