package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// throttledProvider wraps a Provider with a token-bucket rate limit so
// batch runs don't hammer the hosted API.
type throttledProvider struct {
	Provider
	limiter *rate.Limiter
}

// Throttle limits ExtractObjects calls on the wrapped provider to
// requestsPerSecond with the given burst. A non-positive rate returns the
// provider unchanged.
func Throttle(p Provider, requestsPerSecond float64, burst int) Provider {
	if requestsPerSecond <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	return &throttledProvider{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (t *throttledProvider) ExtractObjects(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.Provider.ExtractObjects(ctx, req)
}
