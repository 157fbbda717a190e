package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

// RateLimitedEmbedder paces calls to the inner embedder with a token bucket.
type RateLimitedEmbedder struct {
	inner   domain.Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder allows rps calls per second with the given burst.
// rps <= 0 returns inner unchanged.
func NewRateLimitedEmbedder(inner domain.Embedder, rps float64, burst int) domain.Embedder {
	if rps <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Embed waits for a token, then delegates. A cancelled context aborts the wait.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("rate limit wait: %w", err)
	}
	metrics.EmbeddingRateLimitWait.Observe(time.Since(start).Seconds())

	return r.inner.Embed(ctx, text)
}
