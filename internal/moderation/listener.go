package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/ineed/pkg/lifecycle"
)

// Channel is the NOTIFY channel the listing trigger publishes event ids on.
const Channel = "listing_events"

const maxReconnectDelay = 30 * time.Second

// Notifications is one live LISTEN session.
type Notifications interface {
	// Next blocks until a payload arrives or the session fails.
	Next(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// Source opens LISTEN sessions.
type Source interface {
	Listen(ctx context.Context, channel string) (Notifications, error)
}

// Dialer opens a dedicated connection outside the pool.
type Dialer interface {
	Dial(ctx context.Context) (*pgx.Conn, error)
}

// PGSource listens on connections opened by d.
func PGSource(d Dialer) Source {
	return pgSource{dialer: d}
}

type pgSource struct {
	dialer Dialer
}

func (s pgSource) Listen(ctx context.Context, channel string) (Notifications, error) {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listen: %w", err)
	}
	return pgNotifications{conn: conn}, nil
}

type pgNotifications struct {
	conn *pgx.Conn
}

func (n pgNotifications) Next(ctx context.Context) (string, error) {
	note, err := n.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return note.Payload, nil
}

func (n pgNotifications) Close(ctx context.Context) error {
	return n.conn.Close(ctx)
}

// Handler processes a single listing change.
type Handler interface {
	Handle(ctx context.Context, ch Change) (Outcome, error)
}

// ListenerOptions tunes a Listener. Lease bounds how long a claimed event is
// hidden from other workers and should exceed one full moderation pass.
type ListenerOptions struct {
	Workers        int
	ReconnectDelay time.Duration
	Lease          time.Duration
}

// Listener delivers listing changes recorded by the database trigger to a
// Handler. Delivery is at least once: an event is marked processed only
// after its handler succeeds.
type Listener struct {
	source  Source
	events  EventStore
	handler Handler
	opts    ListenerOptions
	logger  *slog.Logger
}

func NewListener(source Source, events EventStore, handler Handler, opts ListenerOptions, logger *slog.Logger) *Listener {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.Lease <= 0 {
		opts.Lease = 2 * time.Minute
	}
	return &Listener{
		source:  source,
		events:  events,
		handler: handler,
		opts:    opts,
		logger:  logger.With("system", "moderation-listener"),
	}
}

// Start runs the listener as a lifecycle worker.
func (l *Listener) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting moderation listener", "workers", l.opts.Workers)
	lc.Go(l.Run)
	return nil
}

// Run listens until ctx is cancelled, reconnecting with exponential backoff
// whenever the session fails. A session that got as far as listening resets
// the backoff.
func (l *Listener) Run(ctx context.Context) {
	bo := newBackoff(l.opts.ReconnectDelay, maxReconnectDelay)

	for {
		connected, err := l.listen(ctx)
		if ctx.Err() != nil {
			l.logger.Info("moderation listener stopped")
			return
		}
		if connected {
			bo.reset()
		}

		delay := bo.next()
		l.logger.Warn("listener connection lost", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			l.logger.Info("moderation listener stopped")
			return
		case <-time.After(delay):
		}
	}
}

// listen holds one LISTEN session. It replays the backlog once subscribed so
// events written while disconnected are not lost.
func (l *Listener) listen(ctx context.Context) (bool, error) {
	sub, err := l.source.Listen(ctx, Channel)
	if err != nil {
		return false, err
	}
	defer sub.Close(context.Background())
	l.logger.Info("listening for listing changes", "channel", Channel)

	var g errgroup.Group
	g.SetLimit(l.opts.Workers)
	defer g.Wait()

	if err := l.replay(ctx, &g); err != nil {
		l.logger.Error("backlog replay failed", "error", err)
	}

	for {
		payload, err := sub.Next(ctx)
		if err != nil {
			return true, err
		}

		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			l.logger.Warn("ignoring malformed notification", "payload", payload)
			continue
		}

		g.Go(func() error {
			l.Process(ctx, id)
			return nil
		})
	}
}

func (l *Listener) replay(ctx context.Context, g *errgroup.Group) error {
	ids, err := l.events.Pending(ctx)
	if err != nil {
		return err
	}

	if len(ids) > 0 {
		l.logger.Info("replaying unprocessed listing events", "count", len(ids))
	}

	for _, id := range ids {
		g.Go(func() error {
			l.Process(ctx, id)
			return nil
		})
	}
	return nil
}

// Process claims one event, runs the handler, and records the result. An
// event already processed or leased elsewhere is skipped. The handler runs
// outside any transaction.
func (l *Listener) Process(ctx context.Context, eventID int64) {
	logger := l.logger.With("event_id", eventID)

	ch, err := l.events.Claim(ctx, eventID, l.opts.Lease)
	switch {
	case errors.Is(err, ErrEventUnavailable):
		logger.Debug("event already claimed")
		return
	case errors.Is(err, ErrMalformedEvent):
		logger.Error("discarding malformed listing event", "error", err)
		if err := l.events.Discard(ctx, eventID, err); err != nil {
			logger.Error("record discarded event", "error", err)
		}
		return
	case err != nil:
		logger.Error("claim listing event", "error", err)
		return
	}

	if _, herr := l.handler.Handle(ctx, ch); herr != nil {
		logger.Error("moderation pass failed", "listing_id", ch.ListingID, "error", herr)
		if err := l.events.Fail(ctx, eventID, herr); err != nil {
			logger.Error("record failed event", "error", err)
		}
		return
	}

	if err := l.events.Complete(ctx, eventID); err != nil {
		logger.Error("record processed event", "error", err)
	}
}

type backoff struct {
	base, limit, cur time.Duration
}

func newBackoff(base, limit time.Duration) *backoff {
	return &backoff{base: base, limit: limit, cur: base}
}

func (b *backoff) next() time.Duration {
	d := b.cur
	b.cur = min(b.cur*2, b.limit)
	return d
}

func (b *backoff) reset() {
	b.cur = b.base
}
