package invalidate

import (
	"context"
	"math"
	"time"

	"github.com/jonwraymond/contentops/observe"
)

// RetryConfig configures the retrying invalidator.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the maximum delay between retries.
	// Default: 5s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64
}

// RetryInvalidator decorates an Invalidator with exponential-backoff
// retry. Invalidation targets a shared boundary, so a transient failure
// (a remote store blip, a lock timeout) is worth a few more tries before
// the engine gives up on the pattern.
type RetryInvalidator struct {
	next   Invalidator
	config RetryConfig
	logger observe.Logger
}

// NewRetryInvalidator wraps the next invalidator with retry behavior.
// Zero-valued config fields take their defaults.
func NewRetryInvalidator(next Invalidator, config RetryConfig, logger observe.Logger) (*RetryInvalidator, error) {
	if next == nil {
		return nil, ErrNilInvalidator
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &RetryInvalidator{next: next, config: config, logger: logger}, nil
}

// InvalidatePattern attempts the invalidation, retrying with backoff on
// failure until the attempt budget or the context runs out.
func (r *RetryInvalidator) InvalidatePattern(ctx context.Context, pat string) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := r.next.InvalidatePattern(ctx, pat)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.delay(attempt)
		r.logger.Debug(ctx, "retrying pattern invalidation",
			observe.Field{Key: "pattern", Value: pat},
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "delay", Value: delay.String()},
			observe.Field{Key: "error", Value: err.Error()})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// Keys passes enumeration through when the wrapped invalidator supports
// it, so cascade filtering survives the decoration. Nil reports that the
// wrapped boundary cannot enumerate.
func (r *RetryInvalidator) Keys(ctx context.Context) []string {
	if enum, ok := r.next.(KeyEnumerator); ok {
		return enum.Keys(ctx)
	}
	return nil
}

func (r *RetryInvalidator) delay(attempt int) time.Duration {
	multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
	delay := time.Duration(float64(r.config.InitialDelay) * multiplier)
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}

var _ Invalidator = (*RetryInvalidator)(nil)
