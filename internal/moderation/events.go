package moderation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/ineed/pkg/repository"
)

var (
	// ErrEventUnavailable means the event is already processed or leased by
	// another worker.
	ErrEventUnavailable = errors.New("listing event unavailable")
	// ErrMalformedEvent means the stored snapshots could not be decoded.
	// Retrying cannot fix it.
	ErrMalformedEvent = errors.New("malformed listing event")
)

// EventStore is the outbox the listing trigger writes to. Every method is a
// single short statement; no connection is held while a change is handled.
type EventStore interface {
	// Pending lists unprocessed event ids in insertion order.
	Pending(ctx context.Context) ([]int64, error)
	// Claim leases an unprocessed event for lease and counts the attempt.
	Claim(ctx context.Context, id int64, lease time.Duration) (Change, error)
	// Complete marks the event processed.
	Complete(ctx context.Context, id int64) error
	// Fail releases the lease and records cause for the next delivery.
	Fail(ctx context.Context, id int64, cause error) error
	// Discard closes an event that can never succeed, keeping cause.
	Discard(ctx context.Context, id int64, cause error) error
}

type pgEvents struct {
	db *sql.DB
}

// NewEventStore returns the PostgreSQL listing_events store.
func NewEventStore(db *sql.DB) EventStore {
	return &pgEvents{db: db}
}

func (e *pgEvents) Pending(ctx context.Context) ([]int64, error) {
	const q = `SELECT id FROM listing_events WHERE processed_at IS NULL ORDER BY id`

	return repository.QueryMany(ctx, e.db, q, nil, func(s repository.Scanner) (int64, error) {
		var id int64
		err := s.Scan(&id)
		return id, err
	})
}

func (e *pgEvents) Claim(ctx context.Context, id int64, lease time.Duration) (Change, error) {
	const q = `
		UPDATE listing_events
		SET attempts = attempts + 1,
		    leased_until = now() + make_interval(secs => $2)
		WHERE id = $1
		  AND processed_at IS NULL
		  AND (leased_until IS NULL OR leased_until < now())
		RETURNING listing_id, previous, current`

	var (
		ch       Change
		previous []byte
		current  []byte
	)
	err := e.db.QueryRowContext(ctx, q, id, lease.Seconds()).Scan(&ch.ListingID, &previous, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return ch, ErrEventUnavailable
	}
	if err != nil {
		return ch, fmt.Errorf("claim event: %w", err)
	}

	ch.Previous, ch.Current, err = decodeSnapshots(previous, current)
	if err != nil {
		return ch, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return ch, nil
}

func (e *pgEvents) Complete(ctx context.Context, id int64) error {
	return repository.ExecExpectOne(ctx, e.db,
		`UPDATE listing_events SET processed_at = now(), leased_until = NULL, last_error = NULL WHERE id = $1`,
		id,
	)
}

func (e *pgEvents) Fail(ctx context.Context, id int64, cause error) error {
	return repository.ExecExpectOne(ctx, e.db,
		`UPDATE listing_events SET leased_until = NULL, last_error = $2 WHERE id = $1`,
		id, cause.Error(),
	)
}

func (e *pgEvents) Discard(ctx context.Context, id int64, cause error) error {
	return repository.ExecExpectOne(ctx, e.db,
		`UPDATE listing_events SET processed_at = now(), leased_until = NULL, last_error = $2 WHERE id = $1`,
		id, cause.Error(),
	)
}

// decodeSnapshots reads the trigger's jsonb columns. A SQL NULL or JSON null
// previous snapshot marks a creation.
func decodeSnapshots(previous, current []byte) (*Snapshot, Snapshot, error) {
	var (
		prev *Snapshot
		cur  Snapshot
	)

	if len(previous) > 0 && string(previous) != "null" {
		prev = &Snapshot{}
		if err := json.Unmarshal(previous, prev); err != nil {
			return nil, cur, fmt.Errorf("decode previous snapshot: %w", err)
		}
	}

	if err := json.Unmarshal(current, &cur); err != nil {
		return nil, cur, fmt.Errorf("decode current snapshot: %w", err)
	}
	return prev, cur, nil
}
