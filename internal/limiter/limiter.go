// limiter/limiter.go
package limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// New returns a limiter allowing rps requests per second with the given burst.
// A non-positive rps disables limiting and New returns nil.
func New(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/rps)), burst)
}

// Wait blocks until the limiter allows the request. A nil limiter never blocks.
func Wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
