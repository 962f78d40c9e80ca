package reviews_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/internal/reviews"
	"github.com/JaimeStill/ineed/pkg/auth"
	"github.com/JaimeStill/ineed/pkg/pagination"
	"github.com/JaimeStill/ineed/pkg/routes"
)

var pageConfig = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSystem struct {
	submitFn func(ctx context.Context, cmd reviews.SubmitCommand) (*reviews.Review, error)
	listFn   func(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResult[reviews.Review], error)
}

func (m *mockSystem) Submit(ctx context.Context, cmd reviews.SubmitCommand) (*reviews.Review, error) {
	return m.submitFn(ctx, cmd)
}

func (m *mockSystem) ListForUser(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResult[reviews.Review], error) {
	return m.listFn(ctx, userID, page)
}

func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User")
		if id == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{Subject: id})))
	})
}

func newMux(sys reviews.System) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, reviews.NewHandler(sys, discard(), pageConfig, fakeAuth).Routes())
	return mux
}

func TestNextRating(t *testing.T) {
	tests := []struct {
		name      string
		average   float64
		count     int
		rating    int
		wantAvg   float64
		wantCount int
	}{
		{"first review", 0, 0, 4, 4, 1},
		{"second review", 4, 1, 5, 4.5, 2},
		{"lowers average", 5, 3, 1, 4, 4},
		{"steady", 3, 10, 3, 3, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, count := reviews.NextRating(tt.average, tt.count, tt.rating)
			if math.Abs(avg-tt.wantAvg) > 1e-9 || count != tt.wantCount {
				t.Errorf("NextRating = (%v, %d), want (%v, %d)", avg, count, tt.wantAvg, tt.wantCount)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{reviews.ErrInvalidReview, http.StatusBadRequest},
		{reviews.ErrContractNotAccepted, http.StatusBadRequest},
		{reviews.ErrConversationNotFound, http.StatusNotFound},
		{reviews.ErrUserNotFound, http.StatusNotFound},
		{reviews.ErrForbidden, http.StatusForbidden},
		{reviews.ErrAlreadyReviewed, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := reviews.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestSubmitValidatesBeforeQuery(t *testing.T) {
	sys := reviews.New(nil, nil, discard(), pageConfig)
	conv := uuid.New()

	tests := []struct {
		name string
		cmd  reviews.SubmitCommand
	}{
		{"no conversation", reviews.SubmitCommand{ReviewerID: "u", Rating: 3}},
		{"no reviewer", reviews.SubmitCommand{ConversationID: conv, Rating: 3}},
		{"rating too low", reviews.SubmitCommand{ConversationID: conv, ReviewerID: "u", Rating: 0}},
		{"rating too high", reviews.SubmitCommand{ConversationID: conv, ReviewerID: "u", Rating: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Submit(context.Background(), tt.cmd)
			if !errors.Is(err, reviews.ErrInvalidReview) {
				t.Errorf("err = %v, want ErrInvalidReview", err)
			}
		})
	}
}

func TestHandlerSubmit(t *testing.T) {
	conv := uuid.New()
	var got reviews.SubmitCommand

	mux := newMux(&mockSystem{
		submitFn: func(_ context.Context, cmd reviews.SubmitCommand) (*reviews.Review, error) {
			got = cmd
			if cmd.ReviewerID == "twice" {
				return nil, reviews.ErrAlreadyReviewed
			}
			return &reviews.Review{ID: uuid.New(), ConversationID: cmd.ConversationID, ReviewerID: cmd.ReviewerID, Rating: cmd.Rating}, nil
		},
	})

	body := `{"conversationId":"` + conv.String() + `","rating":5,"comment":"Ótimo"}`

	tests := []struct {
		name string
		user string
		body string
		want int
	}{
		{"unauthenticated", "", body, http.StatusUnauthorized},
		{"created", "req", body, http.StatusCreated},
		{"duplicate", "twice", body, http.StatusConflict},
		{"malformed", "req", "{", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/reviews", strings.NewReader(tt.body))
			req.Header.Set("X-User", tt.user)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}

	if got.ReviewerID != "twice" || got.ConversationID != conv || got.Rating != 5 {
		t.Errorf("last command = %+v", got)
	}
}

func TestHandlerSubmitIgnoresBodyReviewer(t *testing.T) {
	var got reviews.SubmitCommand
	mux := newMux(&mockSystem{
		submitFn: func(_ context.Context, cmd reviews.SubmitCommand) (*reviews.Review, error) {
			got = cmd
			return &reviews.Review{}, nil
		},
	})

	req := httptest.NewRequest("POST", "/reviews",
		strings.NewReader(`{"conversationId":"`+uuid.NewString()+`","reviewerId":"mallory","rating":4}`))
	req.Header.Set("X-User", "alice")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	if got.ReviewerID != "alice" {
		t.Errorf("reviewer = %q, want alice", got.ReviewerID)
	}
}

func TestHandlerListForUser(t *testing.T) {
	var gotUser string
	var gotPage pagination.PageRequest

	mux := newMux(&mockSystem{
		listFn: func(_ context.Context, userID string, page pagination.PageRequest) (*pagination.PageResult[reviews.Review], error) {
			gotUser, gotPage = userID, page
			result := pagination.NewPageResult([]reviews.Review{{RevieweeID: userID, Rating: 5}}, 1, 1, 20)
			return &result, nil
		},
	})

	req := httptest.NewRequest("GET", "/users/bob/reviews?page=2&pageSize=5", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if gotUser != "bob" || gotPage.Page != 2 || gotPage.PageSize != 5 {
		t.Errorf("user %q page %+v", gotUser, gotPage)
	}

	var result pagination.PageResult[reviews.Review]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data) != 1 || result.Data[0].Rating != 5 {
		t.Errorf("result = %+v", result)
	}
}
