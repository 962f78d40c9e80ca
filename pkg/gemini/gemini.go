// Package gemini wraps the Google GenAI client for structured JSON generation
// with client-side request throttling.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

var (
	// ErrNotConfigured is returned by Generate when no API key was supplied.
	ErrNotConfigured = errors.New("generative model not configured")
	// ErrEmptyResponse indicates the model returned no text.
	ErrEmptyResponse = errors.New("empty model response")
)

// Generator produces JSON text for a prompt constrained by a response schema.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single structured generation call.
type Request struct {
	System string
	Prompt string
	Schema *genai.Schema
}

// Options configures a Client.
type Options struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	Burst             int
}

// Client is a throttled Generator backed by the Gemini API.
type Client struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Client. An empty APIKey yields a Client whose Generate
// always fails with ErrNotConfigured.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	c := &Client{
		model:  opts.Model,
		logger: logger.With("system", "gemini", "model", opts.Model),
	}

	if opts.RequestsPerMinute > 0 {
		every := time.Minute / time.Duration(opts.RequestsPerMinute)
		c.limiter = rate.NewLimiter(rate.Every(every), max(opts.Burst, 1))
	}

	if opts.APIKey == "" {
		c.logger.Warn("no api key configured, generation disabled")
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client

	return c, nil
}

// Configured reports whether the client can reach the model.
func (c *Client) Configured() bool {
	return c.client != nil
}

// Generate waits for a throttle slot, then asks the model for JSON output
// matching req.Schema. Temperature is fixed at zero.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("generation complete", "duration", time.Since(start))
	return text, nil
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
