package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrPageSizeExceeded indicates a cursor request asked for more rows than the configured cap.
	ErrPageSizeExceeded = errors.New("page size exceeds maximum")
	// ErrInvalidPageSize indicates a negative or non-numeric page size.
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidCursor indicates a cursor that could not be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Cursor marks the last row of a page ordered by (CreatedAt DESC, ID DESC).
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Encode returns the opaque, URL-safe form of the cursor.
func (c Cursor) Encode() string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Precedes reports whether a row keyed by (createdAt, id) sorts strictly after
// the cursor in descending order, i.e. belongs to a later page.
func (c Cursor) Precedes(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}

// DecodeCursor parses an opaque cursor. An empty string yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

// CursorRequest is a client request for a keyset page.
type CursorRequest struct {
	Cursor   string `json:"cursor,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// Validate applies the default page size to an unset request and rejects
// negative sizes or sizes above the configured maximum. Unlike PageRequest,
// oversized requests are never clamped.
func (r *CursorRequest) Validate(cfg Config) error {
	switch {
	case r.PageSize == 0:
		r.PageSize = cfg.DefaultPageSize
	case r.PageSize < 0:
		return ErrInvalidPageSize
	case r.PageSize > cfg.MaxPageSize:
		return fmt.Errorf("%w: %d > %d", ErrPageSizeExceeded, r.PageSize, cfg.MaxPageSize)
	}
	return nil
}

// Position decodes the request cursor.
func (r *CursorRequest) Position() (*Cursor, error) {
	return DecodeCursor(r.Cursor)
}

// CursorRequestFromQuery parses cursor and pageSize from URL query values.
// It does not validate the size against a config; call Validate for that.
func CursorRequestFromQuery(values url.Values) (CursorRequest, error) {
	req := CursorRequest{Cursor: values.Get("cursor")}

	if v := values.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, ErrInvalidPageSize
		}
		req.PageSize = n
	}

	return req, nil
}

// CursorResult holds a keyset page and the marker for the next one.
type CursorResult[T any] struct {
	Data       []T     `json:"data"`
	NextCursor *string `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}

// NewCursorResult builds a result from rows fetched with a limit of pageSize+1.
// The extra row, when present, is dropped and signals HasMore; the cursor of
// the last kept row becomes NextCursor.
func NewCursorResult[T any](rows []T, pageSize int, cursorOf func(T) Cursor) CursorResult[T] {
	if rows == nil {
		rows = []T{}
	}

	if len(rows) <= pageSize {
		return CursorResult[T]{Data: rows}
	}

	rows = rows[:pageSize]
	next := cursorOf(rows[len(rows)-1]).Encode()

	return CursorResult[T]{
		Data:       rows,
		NextCursor: &next,
		HasMore:    true,
	}
}
