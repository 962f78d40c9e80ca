package moderation_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/internal/listings"
	"github.com/JaimeStill/ineed/internal/moderation"
)

type claimResult struct {
	ch  moderation.Change
	err error
}

type fakeEvents struct {
	mu        sync.Mutex
	pending   []int64
	claims    map[int64]claimResult
	leases    []time.Duration
	completed []int64
	failed    map[int64]string
	discarded map[int64]string
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{
		claims:    map[int64]claimResult{},
		failed:    map[int64]string{},
		discarded: map[int64]string{},
	}
}

func (e *fakeEvents) Pending(context.Context) ([]int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.pending), nil
}

func (e *fakeEvents) Claim(_ context.Context, id int64, lease time.Duration) (moderation.Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leases = append(e.leases, lease)
	r, ok := e.claims[id]
	if !ok {
		return moderation.Change{}, moderation.ErrEventUnavailable
	}
	delete(e.claims, id)
	return r.ch, r.err
}

func (e *fakeEvents) Complete(_ context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = append(e.completed, id)
	return nil
}

func (e *fakeEvents) Fail(_ context.Context, id int64, cause error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed[id] = cause.Error()
	return nil
}

func (e *fakeEvents) Discard(_ context.Context, id int64, cause error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discarded[id] = cause.Error()
	return nil
}

func (e *fakeEvents) Completed() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := slices.Clone(e.completed)
	slices.Sort(out)
	return out
}

type handlerFunc func(ctx context.Context, ch moderation.Change) (moderation.Outcome, error)

func (f handlerFunc) Handle(ctx context.Context, ch moderation.Change) (moderation.Outcome, error) {
	return f(ctx, ch)
}

type fakeSession struct {
	payloads []string
	closed   bool
}

func (s *fakeSession) Next(context.Context) (string, error) {
	if len(s.payloads) == 0 {
		return "", errors.New("connection lost")
	}
	p := s.payloads[0]
	s.payloads = s.payloads[1:]
	return p, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.closed = true
	return nil
}

type fakeSource struct {
	mu        sync.Mutex
	calls     int
	channel   string
	failFirst int
	sessions  []*fakeSession
}

func (s *fakeSource) Listen(_ context.Context, channel string) (moderation.Notifications, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.channel = channel
	if s.failFirst > 0 {
		s.failFirst--
		return nil, errors.New("connection refused")
	}
	if len(s.sessions) == 0 {
		return nil, errors.New("connection refused")
	}
	sess := s.sessions[0]
	s.sessions = s.sessions[1:]
	return sess, nil
}

func created() moderation.Change {
	return moderation.Change{ListingID: uuid.New(), Current: pending("Bike", "Road bike")}
}

func TestDecodeSnapshots(t *testing.T) {
	current := []byte(`{"title":"Bike","description":"Road bike","status":"pending"}`)

	tests := []struct {
		name     string
		previous []byte
		current  []byte
		wantPrev bool
		wantErr  bool
	}{
		{"sql null previous", nil, current, false, false},
		{"json null previous", []byte("null"), current, false, false},
		{"update", []byte(`{"title":"Old","description":"d","status":"publicado"}`), current, true, false},
		{"malformed previous", []byte(`{"title":`), current, false, true},
		{"malformed current", nil, []byte(`[1,2`), false, true},
		{"missing current", nil, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, cur, err := moderation.DecodeSnapshots(tt.previous, tt.current)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (prev != nil) != tt.wantPrev {
				t.Errorf("previous = %+v, want present %v", prev, tt.wantPrev)
			}
			if prev != nil && prev.Status != listings.StatusPublished {
				t.Errorf("previous status = %q", prev.Status)
			}
			if cur.Title != "Bike" || cur.Status != listings.StatusPending {
				t.Errorf("current = %+v", cur)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	const id = int64(7)

	tests := []struct {
		name          string
		claim         *claimResult
		handlerErr    error
		wantHandled   bool
		wantCompleted bool
		wantFailed    string
		wantDiscarded string
	}{
		{
			name:          "handled",
			claim:         &claimResult{ch: created()},
			wantHandled:   true,
			wantCompleted: true,
		},
		{
			name:        "handler error left for redelivery",
			claim:       &claimResult{ch: created()},
			handlerErr:  errors.New("store down"),
			wantHandled: true,
			wantFailed:  "store down",
		},
		{
			name: "already claimed",
		},
		{
			name:          "malformed snapshot discarded",
			claim:         &claimResult{err: fmt.Errorf("%w: decode current snapshot", moderation.ErrMalformedEvent)},
			wantDiscarded: "malformed",
		},
		{
			name:  "claim failure",
			claim: &claimResult{err: errors.New("pool closed")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := newFakeEvents()
			if tt.claim != nil {
				events.claims[id] = *tt.claim
			}

			handled := false
			h := handlerFunc(func(context.Context, moderation.Change) (moderation.Outcome, error) {
				handled = true
				return moderation.Outcome{}, tt.handlerErr
			})

			l := moderation.NewListener(&fakeSource{}, events, h, moderation.ListenerOptions{Lease: time.Minute}, discard())
			l.Process(context.Background(), id)

			if handled != tt.wantHandled {
				t.Errorf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if got := slices.Contains(events.completed, id); got != tt.wantCompleted {
				t.Errorf("completed = %v, want %v", got, tt.wantCompleted)
			}
			if got := events.failed[id]; got != tt.wantFailed {
				t.Errorf("failed = %q, want %q", got, tt.wantFailed)
			}
			if got := events.discarded[id]; !strings.Contains(got, tt.wantDiscarded) || (got == "") != (tt.wantDiscarded == "") {
				t.Errorf("discarded = %q, want %q", got, tt.wantDiscarded)
			}
			if len(events.leases) != 1 || events.leases[0] != time.Minute {
				t.Errorf("leases = %v", events.leases)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	ms := time.Millisecond

	got := moderation.BackoffDelays(10*ms, 100*ms, 6, -1)
	want := []time.Duration{10 * ms, 20 * ms, 40 * ms, 80 * ms, 100 * ms, 100 * ms}
	if !slices.Equal(got, want) {
		t.Errorf("delays = %v, want %v", got, want)
	}

	got = moderation.BackoffDelays(10*ms, 100*ms, 5, 3)
	want = []time.Duration{10 * ms, 20 * ms, 40 * ms, 10 * ms, 20 * ms}
	if !slices.Equal(got, want) {
		t.Errorf("delays after reset = %v, want %v", got, want)
	}
}

func TestRunReplaysAndDelivers(t *testing.T) {
	events := newFakeEvents()
	events.pending = []int64{1}
	for _, id := range []int64{1, 2, 3} {
		events.claims[id] = claimResult{ch: created()}
	}

	session := &fakeSession{payloads: []string{"2", "bogus", "3"}}
	source := &fakeSource{failFirst: 2, sessions: []*fakeSession{session}}

	var handled atomic.Int32
	h := handlerFunc(func(context.Context, moderation.Change) (moderation.Outcome, error) {
		handled.Add(1)
		return moderation.Outcome{}, nil
	})

	l := moderation.NewListener(source, events, h, moderation.ListenerOptions{
		Workers:        2,
		ReconnectDelay: time.Millisecond,
		Lease:          time.Minute,
	}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for len(events.Completed()) < 3 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("completed = %v after timeout", events.Completed())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if got := events.Completed(); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("completed = %v", got)
	}
	if n := handled.Load(); n != 3 {
		t.Errorf("handled = %d, want 3", n)
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	if source.calls < 3 {
		t.Errorf("listen calls = %d, want at least 3", source.calls)
	}
	if source.channel != moderation.Channel {
		t.Errorf("channel = %q", source.channel)
	}
	if !session.closed {
		t.Error("session not closed")
	}
}
