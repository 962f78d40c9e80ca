package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/ineed/pkg/formatting"
	"github.com/JaimeStill/ineed/pkg/gemini"
)

// Request is the content submitted for classification.
type Request struct {
	Title       string
	Description string
}

// Classifier labels listing content. Any failure, including a label outside
// Labels, is returned as an error rather than mapped to a default.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Label, error)
}

type result struct {
	Classification Label `json:"classification"`
}

// ModelClassifier classifies content with a generative model constrained to
// a JSON enum schema.
type ModelClassifier struct {
	gen    gemini.Generator
	logger *slog.Logger
}

func NewClassifier(gen gemini.Generator, logger *slog.Logger) *ModelClassifier {
	return &ModelClassifier{
		gen:    gen,
		logger: logger.With("system", "moderation-classifier"),
	}
}

func (c *ModelClassifier) Classify(ctx context.Context, req Request) (Label, error) {
	start := time.Now()

	text, err := c.gen.Generate(ctx, gemini.Request{
		System: policyInstruction,
		Prompt: classificationPrompt(req),
		Schema: classificationSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClassifierFailed, err)
	}

	parsed, err := formatting.Parse[result](text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClassifierFailed, err)
	}

	if _, err := MapLabel(parsed.Classification); err != nil {
		return "", err
	}

	c.logger.Debug("classified", "label", parsed.Classification, "duration", time.Since(start))
	return parsed.Classification, nil
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, req Request) (Label, error)

func (f ClassifierFunc) Classify(ctx context.Context, req Request) (Label, error) {
	return f(ctx, req)
}
