package ratelimit_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/JaimeStill/ineed/pkg/ratelimit"
)

func newLimiter(t *testing.T, requests int) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := ratelimit.Config{Enabled: true, Requests: requests, Window: "1m"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	return ratelimit.New(client, &cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestIncrementWindow(t *testing.T) {
	l, mr := newLimiter(t, 5)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := l.IncrementWindow(ctx, "k", 10*time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if count != want {
			t.Errorf("count = %d, want %d", count, want)
		}
		if ttl <= 0 || ttl > 10*time.Second {
			t.Errorf("ttl = %v", ttl)
		}
	}

	mr.FastForward(11 * time.Second)

	count, _, err := l.IncrementWindow(ctx, "k", 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count after expiry = %d, want 1", count)
	}

	if _, _, err := l.IncrementWindow(ctx, "", time.Second); err == nil {
		t.Error("empty key accepted")
	}
}

func TestAllow(t *testing.T) {
	l, mr := newLimiter(t, 2)
	ctx := context.Background()

	for i, wantAllowed := range []bool{true, true, false} {
		d, err := l.Allow(ctx, "listings", "user-1")
		if err != nil {
			t.Fatal(err)
		}
		if d.Allowed != wantAllowed {
			t.Errorf("call %d: allowed = %v, want %v", i, d.Allowed, wantAllowed)
		}
		if !d.Allowed && d.RetryAfter <= 0 {
			t.Errorf("call %d: missing retry after", i)
		}
	}

	if d, _ := l.Allow(ctx, "listings", "user-2"); !d.Allowed {
		t.Error("subjects share a window")
	}
	if d, _ := l.Allow(ctx, "messages", "user-1"); !d.Allowed {
		t.Error("scopes share a window")
	}

	mr.FastForward(time.Minute)
	if d, _ := l.Allow(ctx, "listings", "user-1"); !d.Allowed || d.Remaining != 1 {
		t.Errorf("after window: %+v", d)
	}
}

func TestMiddleware(t *testing.T) {
	l, mr := newLimiter(t, 1)

	handler := l.Middleware("listings", func(r *http.Request) string {
		return r.Header.Get("X-User")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/listings", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("a"); rec.Code != http.StatusCreated || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("first: %d %v", rec.Code, rec.Header())
	}

	rec := send("a")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: status %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}

	if rec := send(""); rec.Code != http.StatusCreated {
		t.Errorf("anonymous falls back to IP: %d", rec.Code)
	}

	mr.Close()
	if rec := send("a"); rec.Code != http.StatusCreated {
		t.Errorf("redis down should fail open, got %d", rec.Code)
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_RATE_REQUESTS", "5")

	cfg := ratelimit.Config{}
	if err := cfg.Finalize(&ratelimit.Env{Requests: "TEST_RATE_REQUESTS"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Requests != 5 || cfg.WindowDuration() != time.Minute || cfg.Prefix == "" {
		t.Errorf("cfg = %+v", cfg)
	}

	bad := ratelimit.Config{Window: "-1s"}
	if err := bad.Finalize(nil); err == nil {
		t.Error("negative window accepted")
	}
}
