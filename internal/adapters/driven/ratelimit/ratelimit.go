// Package ratelimit wraps model backends with client-side rate limiting.
package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure the wrappers implement their interfaces.
var (
	_ driven.Classifier       = (*Classifier)(nil)
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
)

// newLimiter builds a token bucket with a burst of at least one request.
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	burst := int(math.Ceil(requestsPerSecond))
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Classifier limits calls to an underlying classifier.
type Classifier struct {
	next    driven.Classifier
	limiter *rate.Limiter
}

// WrapClassifier returns next unchanged when requestsPerSecond is not
// positive, otherwise a limited wrapper.
func WrapClassifier(next driven.Classifier, requestsPerSecond float64) driven.Classifier {
	if requestsPerSecond <= 0 {
		return next
	}
	return &Classifier{next: next, limiter: newLimiter(requestsPerSecond)}
}

// Score waits for a token and delegates.
func (c *Classifier) Score(ctx context.Context, text string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return c.next.Score(ctx, text)
}

// EmbeddingService limits embedding requests. A batch counts as one
// request.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WrapEmbedding returns next unchanged when requestsPerSecond is not
// positive, otherwise a limited wrapper.
func WrapEmbedding(next driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return next
	}
	return &EmbeddingService{EmbeddingService: next, limiter: newLimiter(requestsPerSecond)}
}

// Embed waits for a token and delegates.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token and delegates.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}
