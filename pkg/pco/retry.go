package pco

import (
	"context"
	"fmt"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper. A zero or negative d returns at once.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RetryPolicy re-issues a request after a rate-limit signal, waiting the
// delay the server asked for. Other errors are returned unchanged.
type RetryPolicy struct {
	// Sleep waits between attempts. Nil means ContextSleep.
	Sleep Sleeper
	// MaxAttempts caps the number of attempts. Zero retries forever.
	MaxAttempts int
	// MinWait is the shortest wait between attempts. Zero waits exactly
	// what the server asked for, retrying at once on Retry-After: 0.
	MinWait time.Duration
	// Logger receives a warning for every wait. Nil discards them.
	Logger Logger
}

// Do calls fn until it returns something other than a TooManyRequestsError.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (*Document, error)) (*Document, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	logger := p.Logger
	if logger == nil {
		logger = NopLogger()
	}

	for attempt := 1; ; attempt++ {
		doc, err := fn(ctx)
		if err == nil {
			return doc, nil
		}

		rateErr, limited := IsTooManyRequests(err)
		if !limited {
			return nil, err
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		wait := max(rateErr.RetryAfter, p.MinWait)

		logger.Warn("Rate limited, waiting before retry", map[string]interface{}{
			"retry_after": wait.String(),
			"attempt":     attempt,
			"limit":       rateErr.Limit,
			"count":       rateErr.Count,
		})

		err = sleep(ctx, wait)
		if err != nil {
			return nil, err
		}
	}
}
