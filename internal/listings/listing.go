// Package listings implements the listing store and the public listing feed.
package listings

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/internal/categories"
	"github.com/JaimeStill/ineed/internal/users"
	"github.com/JaimeStill/ineed/pkg/pagination"
)

// Status is the moderation state persisted on a listing.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "publicado"
	StatusReview    Status = "revisao"
	StatusRejected  Status = "rejeitado"
)

// Valid reports whether s is one of the persisted status tokens.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusReview, StatusRejected:
		return true
	}
	return false
}

// Moderated reports whether s is an outcome of moderation.
func (s Status) Moderated() bool {
	return s.Valid() && s != StatusPending
}

// Listing is a request for a product or service. Category and Author are
// filled in on read and never persisted.
type Listing struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Budget      float64              `json:"budget"`
	CategoryID  string               `json:"categoryId"`
	Location    string               `json:"location"`
	AuthorID    string               `json:"authorId"`
	Status      Status               `json:"status"`
	ImageURLs   []string             `json:"imageUrls"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Category    *categories.Category `json:"category,omitempty"`
	Author      *users.Author        `json:"author,omitempty"`
}

// Position returns the feed cursor that points at l.
func (l Listing) Position() pagination.Cursor {
	return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID.String()}
}

// CreateCommand carries the fields of a new listing.
type CreateCommand struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Budget      float64  `json:"budget"`
	CategoryID  string   `json:"categoryId"`
	Location    string   `json:"location"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

// UpdateCommand carries a partial edit. Nil fields are left unchanged.
type UpdateCommand struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Budget      *float64  `json:"budget,omitempty"`
	CategoryID  *string   `json:"categoryId,omitempty"`
	Location    *string   `json:"location,omitempty"`
	ImageURLs   *[]string `json:"imageUrls,omitempty"`
}

// ImageUpload is a single image file attached to a listing.
type ImageUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// FeedFilters narrows the public feed.
type FeedFilters struct {
	CategoryID *string  `json:"categoryId,omitempty"`
	MaxBudget  *float64 `json:"maxBudget,omitempty"`
}

// FeedRequest is the JSON body accepted by the feed search endpoint.
type FeedRequest struct {
	pagination.CursorRequest
	FeedFilters
}
