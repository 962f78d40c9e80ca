// Package ratelimit implements a Redis-backed fixed-window request limiter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/JaimeStill/ineed/pkg/handlers"
)

// ErrLimited is reported to clients that exceed their window budget.
var ErrLimited = errors.New("rate limit exceeded")

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter counts requests per key in fixed windows stored in Redis.
type Limiter struct {
	client *goredis.Client
	prefix string
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// New creates a Limiter from cfg.
func New(client *goredis.Client, cfg *Config, logger *slog.Logger) *Limiter {
	return &Limiter{
		client: client,
		prefix: cfg.Prefix,
		limit:  int64(cfg.Requests),
		window: cfg.WindowDuration(),
		logger: logger.With("system", "ratelimit"),
	}
}

// IncrementWindow bumps the counter for key, starting a window of the given
// length on the first hit, and returns the count and remaining TTL.
func (l *Limiter) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window payload")
	}

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment rate key: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("set rate key ttl: %w", err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate key ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}

// Allow records one request for scope and subject.
func (l *Limiter) Allow(ctx context.Context, scope, subject string) (Decision, error) {
	key := l.prefix + ":" + scope + ":" + subject

	count, ttl, err := l.IncrementWindow(ctx, key, l.window)
	if err != nil {
		return Decision{}, err
	}

	if count > l.limit {
		return Decision{RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - count}, nil
}

// Middleware limits requests per subject within scope. keyOf extracts the
// subject; an empty subject falls back to the client IP. Redis failures let
// the request through.
func (l *Limiter) Middleware(scope string, keyOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := keyOf(r)
			if subject == "" {
				subject = ClientIP(r)
			}

			d, err := l.Allow(r.Context(), scope, subject)
			if err != nil {
				l.logger.Warn("rate limit check failed", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.limit, 10))
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(ceilSeconds(d.RetryAfter)))
				handlers.RespondError(w, l.logger, http.StatusTooManyRequests, ErrLimited)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int((d + time.Second - 1) / time.Second)
}
