package analyst

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// GenerationParams tunes a single generation call.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Generator defines the standard interface for any code-generation backend.
// Implementations return raw model output; callers sanitize fences before
// scoring.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// RateLimitedGenerator wraps a Generator with a token-bucket limiter so
// retry loops cannot hammer the backend.
type RateLimitedGenerator struct {
	inner   Generator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator wraps gen at the given requests-per-second with
// the given burst.
func NewRateLimitedGenerator(gen Generator, rps float64, burst int) *RateLimitedGenerator {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGenerator{
		inner:   gen,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Generate blocks until the limiter admits the call, then delegates.
func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generation rate limit wait: %w", err)
	}
	return g.inner.Generate(ctx, prompt, params)
}
