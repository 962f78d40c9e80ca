// Package assist exposes the writing aids offered while posting a listing:
// description refinement and provider recommendations.
package assist

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/JaimeStill/ineed/pkg/formatting"
	"github.com/JaimeStill/ineed/pkg/gemini"
)

const maxDescriptionLength = 5000

var (
	ErrInvalidInput = errors.New("invalid assist input")
	ErrFailed       = errors.New("assistant unavailable")
)

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type RefineRequest struct {
	Description string `json:"description"`
}

type Refinement struct {
	RefinedDescription string `json:"refinedDescription"`
}

type RecommendRequest struct {
	ListingDescription string `json:"listingDescription"`
}

type Recommendation struct {
	ProviderName        string  `json:"providerName"`
	ProviderDescription string  `json:"providerDescription"`
	MatchScore          float64 `json:"matchScore"`
}

type Recommendations struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// System defines the assistant operations.
type System interface {
	RefineDescription(ctx context.Context, description string) (*Refinement, error)
	// RecommendProviders returns recommendations ordered by MatchScore,
	// highest first, with scores clamped to [0, 1].
	RecommendProviders(ctx context.Context, listingDescription string) (*Recommendations, error)
}

type assistant struct {
	gen     gemini.Generator
	timeout time.Duration
	logger  *slog.Logger
}

func New(gen gemini.Generator, timeout time.Duration, logger *slog.Logger) System {
	return &assistant{
		gen:     gen,
		timeout: timeout,
		logger:  logger.With("system", "assist"),
	}
}

func (a *assistant) RefineDescription(ctx context.Context, description string) (*Refinement, error) {
	description, err := checkInput(description)
	if err != nil {
		return nil, err
	}

	out, err := generate[Refinement](ctx, a, gemini.Request{
		System: refineInstruction,
		Prompt: "Original Description: " + description,
		Schema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"refinedDescription": {Type: genai.TypeString},
			},
			Required: []string{"refinedDescription"},
		},
	})
	if err != nil {
		return nil, err
	}

	out.RefinedDescription = strings.TrimSpace(out.RefinedDescription)
	if out.RefinedDescription == "" {
		return nil, fmt.Errorf("%w: empty refinement", ErrFailed)
	}
	return &out, nil
}

func (a *assistant) RecommendProviders(ctx context.Context, listingDescription string) (*Recommendations, error) {
	listingDescription, err := checkInput(listingDescription)
	if err != nil {
		return nil, err
	}

	out, err := generate[Recommendations](ctx, a, gemini.Request{
		System: recommendInstruction,
		Prompt: "Listing Description: " + listingDescription,
		Schema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"recommendations": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"providerName":        {Type: genai.TypeString},
							"providerDescription": {Type: genai.TypeString},
							"matchScore":          {Type: genai.TypeNumber},
						},
						Required: []string{"providerName", "providerDescription", "matchScore"},
					},
				},
			},
			Required: []string{"recommendations"},
		},
	})
	if err != nil {
		return nil, err
	}

	if out.Recommendations == nil {
		out.Recommendations = []Recommendation{}
	}
	for i := range out.Recommendations {
		out.Recommendations[i].MatchScore = min(max(out.Recommendations[i].MatchScore, 0), 1)
	}
	slices.SortStableFunc(out.Recommendations, func(x, y Recommendation) int {
		return cmp.Compare(y.MatchScore, x.MatchScore)
	})
	return &out, nil
}

func generate[T any](ctx context.Context, a *assistant, req gemini.Request) (T, error) {
	var zero T
	start := time.Now()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.gen.Generate(ctx, req)
	if err != nil {
		a.logger.Warn("generation failed", "error", err, "duration", time.Since(start))
		return zero, fmt.Errorf("%w: %w", ErrFailed, err)
	}

	out, err := formatting.Parse[T](text)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrFailed, err)
	}

	a.logger.Debug("generated", "duration", time.Since(start))
	return out, nil
}

func checkInput(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: description required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(s) > maxDescriptionLength {
		return "", fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	return s, nil
}

const refineInstruction = `You are an expert marketing assistant specializing in refining product and service descriptions. Your goal is to make descriptions clear, concise, and appealing to potential clients or providers.

Refine the description you are given to meet these goals. Keep the original language. Return only the refined description with no introductory or concluding remarks, as JSON: {"refinedDescription": "..."}`

const recommendInstruction = `You are an expert in matching service providers with potential clients.

Given a service listing description, recommend a list of service providers that would be a good fit. Include a match score between 0 and 1 representing how closely each provider fits the listing. Order the list by match score, highest to lowest. Respond as JSON: {"recommendations": [{"providerName": "...", "providerDescription": "...", "matchScore": 0.0}]}`
