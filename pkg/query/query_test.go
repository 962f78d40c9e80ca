package query_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/ineed/pkg/query"
)

func listingProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "listings", "l").
		Project("id", "ID").
		Project("title", "Title").
		Project("budget", "Budget").
		Project("category_id", "CategoryID").
		Project("status", "Status").
		Project("created_at", "CreatedAt")
}

func ptr[T any](v T) *T { return &v }

func TestProjectionMap(t *testing.T) {
	p := listingProjection()

	if got := p.Table(); got != "public.listings l" {
		t.Errorf("Table() = %q", got)
	}
	if got := p.From(); got != "public.listings l" {
		t.Errorf("From() = %q", got)
	}
	if got := p.Columns(); got != "l.id, l.title, l.budget, l.category_id, l.status, l.created_at" {
		t.Errorf("Columns() = %q", got)
	}

	tests := []struct {
		view   string
		want   string
		wantOK bool
	}{
		{"Title", "l.title", true},
		{"CreatedAt", "l.created_at", true},
		{"unmapped", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			got, ok := p.Column(tt.view)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Column(%q) = %q, %v, want %q, %v", tt.view, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestProjectionMapJoin(t *testing.T) {
	p := query.NewProjectionMap("public", "reviews", "r").
		Project("id", "ID").
		Project("rating", "Rating").
		Join("public", "users", "u", "LEFT JOIN", "r.reviewer_id = u.id").
		ProjectExpr("COALESCE(u.name, '')", "ReviewerName")

	wantFrom := "public.reviews r LEFT JOIN public.users u ON r.reviewer_id = u.id"
	if got := p.From(); got != wantFrom {
		t.Errorf("From() = %q, want %q", got, wantFrom)
	}

	wantCols := "r.id, r.rating, COALESCE(u.name, '')"
	if got := p.Columns(); got != wantCols {
		t.Errorf("Columns() = %q, want %q", got, wantCols)
	}

	p2 := query.NewProjectionMap("public", "a", "a").
		Project("id", "ID").
		Join("public", "b", "b", "JOIN", "a.id = b.a_id").
		Project("name", "Name")
	if got, _ := p2.Column("Name"); got != "b.name" {
		t.Errorf("joined column = %q, want b.name", got)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"descending", "-CreatedAt", []query.SortField{{Field: "CreatedAt", Descending: true}}},
		{
			"mixed with blanks",
			" Budget ,, -CreatedAt ",
			[]query.SortField{{Field: "Budget"}, {Field: "CreatedAt", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderFilters(t *testing.T) {
	category := "reparos"
	var nilBudget *float64

	sql, args := query.NewBuilder(listingProjection()).
		WhereEquals("Status", "publicado").
		WhereEquals("CategoryID", &category).
		WhereLessEqual("Budget", nilBudget).
		WhereContains("Title", ptr("faxina")).
		Build()

	want := "SELECT l.id, l.title, l.budget, l.category_id, l.status, l.created_at FROM public.listings l" +
		" WHERE l.status = $1 AND l.category_id = $2 AND l.title ILIKE $3"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
	if len(args) != 3 {
		t.Fatalf("args = %v", args)
	}
	if args[2] != "%faxina%" {
		t.Errorf("contains arg = %v", args[2])
	}
}

func TestBuilderKeysetLimit(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sql, args := query.NewBuilder(
		listingProjection(),
		query.SortField{Field: "CreatedAt", Descending: true},
		query.SortField{Field: "ID", Descending: true},
	).
		WhereEquals("Status", "publicado").
		WhereLessEqual("Budget", ptr(500.0)).
		WhereBefore("CreatedAt", "ID", ts, "b1").
		BuildLimit(13)

	want := "SELECT l.id, l.title, l.budget, l.category_id, l.status, l.created_at FROM public.listings l" +
		" WHERE l.status = $1 AND l.budget <= $2 AND (l.created_at, l.id) < ($3, $4)" +
		" ORDER BY l.created_at DESC, l.id DESC LIMIT 13"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
	if len(args) != 4 || args[2] != ts || args[3] != "b1" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderKeysetSkippedWithoutCursor(t *testing.T) {
	sql, args := query.NewBuilder(listingProjection()).
		WhereBefore("CreatedAt", "ID", nil, nil).
		BuildLimit(5)

	want := "SELECT l.id, l.title, l.budget, l.category_id, l.status, l.created_at FROM public.listings l LIMIT 5"
	if sql != want {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderWhereHas(t *testing.T) {
	p := query.NewProjectionMap("public", "conversations", "c").
		Project("id", "ID").
		Project("unread_by", "UnreadBy")

	sql, args := query.NewBuilder(p).WhereHas("UnreadBy", "user-1").BuildCount()

	want := "SELECT COUNT(*) FROM public.conversations c WHERE c.unread_by ? $1"
	if sql != want {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != "user-1" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderWhereEither(t *testing.T) {
	p := query.NewProjectionMap("public", "conversations", "c").
		Project("id", "ID").
		Project("requester_id", "RequesterID").
		Project("author_id", "AuthorID")

	sql, args := query.NewBuilder(p).
		WhereEither("user-1", "RequesterID", "AuthorID").
		WhereEquals("ID", "c1").
		BuildCount()

	want := "SELECT COUNT(*) FROM public.conversations c WHERE (c.requester_id = $1 OR c.author_id = $2) AND c.id = $3"
	if sql != want {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 3 || args[0] != "user-1" || args[1] != "user-1" {
		t.Errorf("args = %v", args)
	}

	if sql, _ := query.NewBuilder(p).WhereEither(nil, "AuthorID").BuildCount(); sql != "SELECT COUNT(*) FROM public.conversations c" {
		t.Errorf("nil value added a condition: %q", sql)
	}
}

func TestBuilderPageAndSearch(t *testing.T) {
	sql, args := query.NewBuilder(listingProjection(), query.SortField{Field: "CreatedAt", Descending: true}).
		WhereSearch(ptr("bike"), "Title", "Status").
		OrderByFields([]query.SortField{{Field: "Budget"}}).
		BuildPage(3, 10)

	want := "SELECT l.id, l.title, l.budget, l.category_id, l.status, l.created_at FROM public.listings l" +
		" WHERE (l.title ILIKE $1 OR l.status ILIKE $2) ORDER BY l.budget ASC LIMIT 10 OFFSET 20"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderSingle(t *testing.T) {
	sql, args := query.NewBuilder(listingProjection()).BuildSingle("ID", "abc")

	want := "SELECT l.id, l.title, l.budget, l.category_id, l.status, l.created_at FROM public.listings l WHERE l.id = $1"
	if sql != want {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args = %v", args)
	}
}

func TestOrderByDropsUnprojectedFields(t *testing.T) {
	base := "SELECT l.id, l.title, l.budget, l.category_id, l.status, l.created_at FROM public.listings l"

	tests := []struct {
		name   string
		fields []query.SortField
		want   string
	}{
		{
			"expression falls back to default",
			[]query.SortField{{Field: "(SELECT 1 FROM pg_sleep(10))"}},
			base + " ORDER BY l.created_at DESC LIMIT 10 OFFSET 0",
		},
		{
			"unknown dropped, known kept",
			[]query.SortField{{Field: "title; DROP TABLE listings"}, {Field: "Budget", Descending: true}},
			base + " ORDER BY l.budget DESC LIMIT 10 OFFSET 0",
		},
		{
			"raw column name is not a view name",
			[]query.SortField{{Field: "l.status"}},
			base + " ORDER BY l.created_at DESC LIMIT 10 OFFSET 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _ := query.NewBuilder(listingProjection(), query.SortField{Field: "CreatedAt", Descending: true}).
				OrderByFields(tt.fields).
				BuildPage(1, 10)
			if sql != tt.want {
				t.Errorf("sql = %q\nwant  %q", sql, tt.want)
			}
		})
	}
}

func TestBuilderPanicsOnUnprojectedFilter(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("unprojected filter field did not panic")
		}
	}()
	query.NewBuilder(listingProjection()).WhereEquals("Nope", 1)
}
