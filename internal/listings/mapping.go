package listings

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "listings", "l").
	Project("id", "ID").
	Project("title", "Title").
	Project("description", "Description").
	Project("budget", "Budget").
	Project("category_id", "CategoryID").
	Project("location", "Location").
	Project("author_id", "AuthorID").
	Project("status", "Status").
	Project("image_urls", "ImageURLs").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// returning mirrors the projection for INSERT/UPDATE ... RETURNING.
const returning = `RETURNING id, title, description, budget, category_id, location, author_id, status, image_urls, created_at, updated_at`

var feedOrder = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID", Descending: true},
}

// Apply adds the feed filters to a query builder.
func (f FeedFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("CategoryID", f.CategoryID).
		WhereLessEqual("Budget", f.MaxBudget)
}

// FeedFiltersFromQuery reads categoryId and maxBudget from URL query values.
func FeedFiltersFromQuery(values url.Values) (FeedFilters, error) {
	var f FeedFilters

	if c := values.Get("categoryId"); c != "" {
		f.CategoryID = &c
	}

	if mb := values.Get("maxBudget"); mb != "" {
		v, err := strconv.ParseFloat(mb, 64)
		if err != nil || v < 0 {
			return f, fmt.Errorf("%w: maxBudget %q", ErrInvalidListing, mb)
		}
		f.MaxBudget = &v
	}

	return f, nil
}

func scanListing(s repository.Scanner) (Listing, error) {
	var (
		l         Listing
		imagesRaw []byte
	)

	err := s.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.Budget,
		&l.CategoryID,
		&l.Location,
		&l.AuthorID,
		&l.Status,
		&imagesRaw,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return l, err
	}

	if len(imagesRaw) > 0 {
		if err := json.Unmarshal(imagesRaw, &l.ImageURLs); err != nil {
			return l, fmt.Errorf("unmarshal image_urls: %w", err)
		}
	}
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}

	return l, nil
}
