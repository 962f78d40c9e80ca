package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/ineed/internal/listings"
)

// Snapshot is the moderation-relevant state of a listing at one write.
type Snapshot struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      listings.Status `json:"status"`
}

// Change is one observed listing write. Previous is nil for a creation.
type Change struct {
	ListingID uuid.UUID
	Previous  *Snapshot
	Current   Snapshot
}

// Action is the controller's decision for a change.
type Action int

const (
	ActionNone Action = iota
	ActionModerate
)

func (a Action) String() string {
	if a == ActionModerate {
		return "moderate"
	}
	return "none"
}

// Decide reports whether a write requires moderation. A new pending listing
// is moderated. An existing listing is moderated when it is pending and its
// status, title, or description changed. Everything else, including the
// controller's own status writes, is ignored.
func Decide(prev *Snapshot, next Snapshot) Action {
	if next.Status != listings.StatusPending {
		return ActionNone
	}
	if prev == nil {
		return ActionModerate
	}
	if prev.Status != next.Status ||
		prev.Title != next.Title ||
		prev.Description != next.Description {
		return ActionModerate
	}
	return ActionNone
}

// StatusWriter overwrites the status of a single listing.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status listings.Status) error
}

// Outcome reports what a moderation pass did.
type Outcome struct {
	Action   Action
	Label    Label
	Status   listings.Status
	Fallback bool
}

// Controller runs one moderation pass per change.
type Controller struct {
	classifier Classifier
	store      StatusWriter
	timeout    time.Duration
	logger     *slog.Logger
}

// NewController creates a Controller. timeout bounds each classifier call;
// zero disables the bound.
func NewController(classifier Classifier, store StatusWriter, timeout time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		classifier: classifier,
		store:      store,
		timeout:    timeout,
		logger:     logger.With("system", "moderation"),
	}
}

// Handle evaluates a change and, when moderation is required, writes exactly
// one status. Classifier failures of any kind fall back to revisao. Only a
// failed status write is returned as an error.
func (c *Controller) Handle(ctx context.Context, ch Change) (Outcome, error) {
	out := Outcome{Action: Decide(ch.Previous, ch.Current)}
	if out.Action == ActionNone {
		return out, nil
	}

	logger := c.logger.With("listing_id", ch.ListingID)

	label, status, err := c.classify(ctx, ch.Current)
	if err != nil {
		logger.Warn("classification failed, sending to review", "error", err)
		status = listings.StatusReview
		out.Fallback = true
	}
	out.Label = label
	out.Status = status

	if err := c.store.UpdateStatus(ctx, ch.ListingID, status); err != nil {
		return out, fmt.Errorf("write status %s: %w", status, err)
	}

	logger.Info("listing moderated", "label", label, "status", status, "fallback", out.Fallback)
	return out, nil
}

type verdict struct {
	label Label
	err   error
}

// classify bounds the classifier call by the controller timeout even when
// the classifier ignores its context.
func (c *Controller) classify(ctx context.Context, s Snapshot) (Label, listings.Status, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan verdict, 1)
	go func() {
		label, err := c.classifier.Classify(ctx, Request{Title: s.Title, Description: s.Description})
		done <- verdict{label, err}
	}()

	var v verdict
	select {
	case v = <-done:
	case <-ctx.Done():
		return "", "", fmt.Errorf("%w: %w", ErrClassifierFailed, ctx.Err())
	}
	if v.err != nil {
		return "", "", v.err
	}

	status, err := MapLabel(v.label)
	if err != nil {
		return v.label, "", err
	}
	return v.label, status, nil
}
