package pagination_test

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/JaimeStill/ineed/pkg/pagination"
)

var feedConfig = pagination.Config{DefaultPageSize: 12, MaxPageSize: 20}

type row struct {
	id        string
	createdAt time.Time
}

func rowCursor(r row) pagination.Cursor {
	return pagination.Cursor{CreatedAt: r.createdAt, ID: r.id}
}

func TestCursorRoundTrip(t *testing.T) {
	c := pagination.Cursor{
		CreatedAt: time.Date(2026, 5, 4, 10, 30, 15, 123456000, time.UTC),
		ID:        "4f7c1d8e-5a3b-4c2d-9e1f-0a1b2c3d4e5f",
	}

	decoded, err := pagination.DecodeCursor(c.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.CreatedAt.Equal(c.CreatedAt) || decoded.ID != c.ID {
		t.Errorf("decoded = %+v, want %+v", decoded, c)
	}
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty is first page", func(t *testing.T) {
		c, err := pagination.DecodeCursor("")
		if err != nil || c != nil {
			t.Errorf("got %v, %v", c, err)
		}
	})

	invalid := []string{
		"%%%",
		"bm8tc2VwYXJhdG9y",
		"bm90LWEtdGltZXxhYmM",
	}
	for _, s := range invalid {
		t.Run(s, func(t *testing.T) {
			if _, err := pagination.DecodeCursor(s); !errors.Is(err, pagination.ErrInvalidCursor) {
				t.Errorf("err = %v, want ErrInvalidCursor", err)
			}
		})
	}
}

func TestCursorRequestValidate(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantSize int
		wantErr  error
	}{
		{"unset uses default", 0, 12, nil},
		{"within cap", 20, 20, nil},
		{"above cap rejected", 25, 25, pagination.ErrPageSizeExceeded},
		{"negative rejected", -1, -1, pagination.ErrInvalidPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.CursorRequest{PageSize: tt.size}
			err := req.Validate(feedConfig)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if req.PageSize != tt.wantSize {
				t.Errorf("PageSize = %d, want %d", req.PageSize, tt.wantSize)
			}
		})
	}
}

func TestCursorRequestFromQuery(t *testing.T) {
	req, err := pagination.CursorRequestFromQuery(url.Values{"cursor": {"abc"}, "pageSize": {"8"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Cursor != "abc" || req.PageSize != 8 {
		t.Errorf("got %+v", req)
	}

	if _, err := pagination.CursorRequestFromQuery(url.Values{"pageSize": {"lots"}}); !errors.Is(err, pagination.ErrInvalidPageSize) {
		t.Errorf("err = %v, want ErrInvalidPageSize", err)
	}
}

func TestNewCursorResult(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{"c", base.Add(3 * time.Minute)},
		{"b", base.Add(2 * time.Minute)},
		{"a", base.Add(time.Minute)},
	}

	t.Run("extra row signals more", func(t *testing.T) {
		result := pagination.NewCursorResult(rows, 2, rowCursor)
		if !result.HasMore || result.NextCursor == nil {
			t.Fatalf("expected more: %+v", result)
		}
		if len(result.Data) != 2 {
			t.Fatalf("len = %d, want 2", len(result.Data))
		}
		c, _ := pagination.DecodeCursor(*result.NextCursor)
		if c.ID != "b" {
			t.Errorf("cursor id = %s, want b", c.ID)
		}
	})

	t.Run("exact page is last", func(t *testing.T) {
		result := pagination.NewCursorResult(rows, 3, rowCursor)
		if result.HasMore || result.NextCursor != nil {
			t.Errorf("expected exhausted: %+v", result)
		}
	})

	t.Run("nil rows", func(t *testing.T) {
		result := pagination.NewCursorResult[row](nil, 5, rowCursor)
		if result.Data == nil || result.HasMore {
			t.Errorf("got %+v", result)
		}
	})
}

// fetchPage mimics the keyset query: rows sorted (createdAt DESC, id DESC),
// filtered to those after the cursor, limited to size+1.
func fetchPage(all []row, req pagination.CursorRequest) (pagination.CursorResult[row], error) {
	if err := req.Validate(feedConfig); err != nil {
		return pagination.CursorResult[row]{}, err
	}
	pos, err := req.Position()
	if err != nil {
		return pagination.CursorResult[row]{}, err
	}

	sorted := slices.Clone(all)
	slices.SortFunc(sorted, func(a, b row) int {
		if c := b.createdAt.Compare(a.createdAt); c != 0 {
			return c
		}
		switch {
		case a.id > b.id:
			return -1
		case a.id < b.id:
			return 1
		}
		return 0
	})

	var out []row
	for _, r := range sorted {
		if pos != nil && !pos.Precedes(r.createdAt, r.id) {
			continue
		}
		out = append(out, r)
		if len(out) == req.PageSize+1 {
			break
		}
	}

	return pagination.NewCursorResult(out, req.PageSize, rowCursor), nil
}

func TestCursorPagesConcatenateWithoutGapsOrDuplicates(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	var all []row
	for i := range 47 {
		// rows share timestamps in groups of three so the id tie-break decides order
		ts := base.Add(time.Duration(i/3) * time.Second)
		all = append(all, row{id: fmt.Sprintf("id-%03d", i), createdAt: ts})
	}

	for _, size := range []int{1, 5, 12, 20} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			var collected []row
			req := pagination.CursorRequest{PageSize: size}

			for pages := 0; ; pages++ {
				if pages > len(all) {
					t.Fatal("pagination did not terminate")
				}
				page, err := fetchPage(all, req)
				if err != nil {
					t.Fatalf("fetch: %v", err)
				}
				collected = append(collected, page.Data...)
				if !page.HasMore {
					break
				}
				req.Cursor = *page.NextCursor
			}

			if len(collected) != len(all) {
				t.Fatalf("collected %d rows, want %d", len(collected), len(all))
			}

			seen := make(map[string]bool)
			for i, r := range collected {
				if seen[r.id] {
					t.Fatalf("duplicate %s", r.id)
				}
				seen[r.id] = true

				if i > 0 {
					prev := collected[i-1]
					if !rowCursor(prev).Precedes(r.createdAt, r.id) {
						t.Errorf("order broken at %d: %s before %s", i, prev.id, r.id)
					}
				}
			}
		})
	}
}

func TestCursorPageSizeAboveCapRejected(t *testing.T) {
	_, err := fetchPage(nil, pagination.CursorRequest{PageSize: 25})
	if !errors.Is(err, pagination.ErrPageSizeExceeded) {
		t.Errorf("err = %v, want ErrPageSizeExceeded", err)
	}
}
