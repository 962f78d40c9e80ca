package listings

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/internal/categories"
	"github.com/JaimeStill/ineed/internal/users"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
	"github.com/JaimeStill/ineed/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	users      users.System
	logger     *slog.Logger
	pagination pagination.Config
	feed       pagination.Config
}

// New creates a listing repository implementing the System interface.
// pagination governs author pages; feed holds the feed default and cap.
func New(
	db *sql.DB,
	store storage.System,
	people users.System,
	logger *slog.Logger,
	pagination pagination.Config,
	feed pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		users:      people,
		logger:     logger.With("system", "listings"),
		pagination: pagination,
		feed:       feed,
	}
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Listing, error) {
	l, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	enriched := r.enrich(ctx, []Listing{*l})
	return &enriched[0], nil
}

func (r *repo) Create(ctx context.Context, authorID string, cmd CreateCommand) (*Listing, error) {
	if err := validateCreate(authorID, cmd); err != nil {
		return nil, err
	}

	images, err := json.Marshal(nonNil(cmd.ImageURLs))
	if err != nil {
		return nil, fmt.Errorf("marshal image_urls: %w", err)
	}

	q := `
		INSERT INTO listings(id, title, description, budget, category_id, location, author_id, status, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		` + returning

	args := []any{
		uuid.New(),
		strings.TrimSpace(cmd.Title),
		strings.TrimSpace(cmd.Description),
		cmd.Budget,
		cmd.CategoryID,
		strings.TrimSpace(cmd.Location),
		authorID,
		StatusPending,
		string(images),
	}

	l, err := repository.QueryOne(ctx, r.db, q, args, scanListing)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("listing created", "id", l.ID, "author", authorID)
	return &l, nil
}

// Update applies cmd. A changed title or description puts the listing back
// to pending so it is moderated again; other edits keep the current status.
func (r *repo) Update(ctx context.Context, id uuid.UUID, authorID string, cmd UpdateCommand) (*Listing, error) {
	current, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.AuthorID != authorID {
		return nil, ErrForbidden
	}
	if err := validateUpdate(cmd); err != nil {
		return nil, err
	}

	var images *string
	if cmd.ImageURLs != nil {
		raw, err := json.Marshal(nonNil(*cmd.ImageURLs))
		if err != nil {
			return nil, fmt.Errorf("marshal image_urls: %w", err)
		}
		s := string(raw)
		images = &s
	}

	q := `
		UPDATE listings SET
			title = COALESCE($2::text, title),
			description = COALESCE($3::text, description),
			budget = COALESCE($4::double precision, budget),
			category_id = COALESCE($5::text, category_id),
			location = COALESCE($6::text, location),
			image_urls = COALESCE($7::jsonb, image_urls),
			status = CASE
				WHEN ($2::text IS NOT NULL AND $2::text <> title)
				  OR ($3::text IS NOT NULL AND $3::text <> description)
				THEN 'pending'
				ELSE status
			END,
			updated_at = now()
		WHERE id = $1
		` + returning

	args := []any{
		id,
		trimmed(cmd.Title),
		trimmed(cmd.Description),
		cmd.Budget,
		cmd.CategoryID,
		trimmed(cmd.Location),
		images,
	}

	l, err := repository.QueryOne(ctx, r.db, q, args, scanListing)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if l.Status == StatusPending && current.Status != StatusPending {
		r.logger.Info("listing resubmitted for moderation", "id", id, "previous_status", current.Status)
	}
	return &l, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID, authorID string) error {
	l, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if l.AuthorID != authorID {
		return ErrForbidden
	}

	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM listings WHERE id = $1", id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	for _, key := range l.ImageURLs {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("image delete failed after listing delete", "key", key, "error", delErr)
		}
	}

	r.logger.Info("listing deleted", "id", id)
	return nil
}

// updateStatusQuery touches the status column only; updated_at tracks author
// edits, not moderation.
const updateStatusQuery = "UPDATE listings SET status = $2 WHERE id = $1"

func (r *repo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Moderated() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	err := repository.ExecExpectOne(
		ctx, r.db,
		updateStatusQuery,
		id, status,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) AttachImage(ctx context.Context, id uuid.UUID, authorID string, img ImageUpload) (*Listing, error) {
	if !strings.HasPrefix(img.ContentType, "image/") || len(img.Data) == 0 {
		return nil, ErrInvalidImage
	}

	current, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.AuthorID != authorID {
		return nil, ErrForbidden
	}

	key := buildImageKey(id, sanitizeFilename(img.Filename))
	if err := r.storage.Upload(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return nil, fmt.Errorf("upload listing image: %w", err)
	}

	q := `
		UPDATE listings
		SET image_urls = image_urls || to_jsonb($2::text), updated_at = now()
		WHERE id = $1
		` + returning

	l, err := repository.QueryOne(ctx, r.db, q, []any{id, key}, scanListing)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating image delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("listing image attached", "id", id, "key", key)
	return &l, nil
}

func (r *repo) ListByAuthor(
	ctx context.Context,
	authorID string,
	includeAll bool,
	page pagination.PageRequest,
) (*pagination.PageResult[Listing], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, feedOrder...).
		WhereEquals("AuthorID", authorID).
		WhereSearch(page.Search, "Title", "Description")

	if !includeAll {
		qb.WhereEquals("Status", StatusPublished)
	}
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	rows, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanListing)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}

	result := pagination.NewPageResult(r.enrich(ctx, rows), total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) find(ctx context.Context, id uuid.UUID) (*Listing, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	l, err := repository.QueryOne(ctx, r.db, q, args, scanListing)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &l, nil
}

// enrich attaches category and author summaries. Missing categories become
// categories.Unknown and failed author lookups become placeholders.
func (r *repo) enrich(ctx context.Context, rows []Listing) []Listing {
	if len(rows) == 0 {
		return rows
	}

	ids := make([]string, len(rows))
	for i, l := range rows {
		ids[i] = l.AuthorID
	}
	authors := r.users.Authors(ctx, ids)

	for i := range rows {
		c := categories.Lookup(rows[i].CategoryID)
		a, ok := authors[rows[i].AuthorID]
		if !ok {
			a = users.Placeholder(rows[i].AuthorID)
		}
		rows[i].Category = &c
		rows[i].Author = &a
	}
	return rows
}

func validateCreate(authorID string, cmd CreateCommand) error {
	switch {
	case authorID == "":
		return fmt.Errorf("%w: author required", ErrInvalidListing)
	case strings.TrimSpace(cmd.Title) == "":
		return fmt.Errorf("%w: title required", ErrInvalidListing)
	case strings.TrimSpace(cmd.Description) == "":
		return fmt.Errorf("%w: description required", ErrInvalidListing)
	case cmd.Budget <= 0:
		return fmt.Errorf("%w: budget must be positive", ErrInvalidListing)
	}
	if _, ok := categories.Find(cmd.CategoryID); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidListing, cmd.CategoryID)
	}
	return nil
}

func validateUpdate(cmd UpdateCommand) error {
	if cmd.Title != nil && strings.TrimSpace(*cmd.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidListing)
	}
	if cmd.Description != nil && strings.TrimSpace(*cmd.Description) == "" {
		return fmt.Errorf("%w: description required", ErrInvalidListing)
	}
	if cmd.Budget != nil && *cmd.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrInvalidListing)
	}
	if cmd.CategoryID != nil {
		if _, ok := categories.Find(*cmd.CategoryID); !ok {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidListing, *cmd.CategoryID)
		}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func buildImageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("listings/%s/%s-%s", id, uuid.NewString(), filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return url.PathEscape(name)
}
