package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

var (
	// ErrInvalidConfig is returned when the policy configuration is invalid
	ErrInvalidConfig = errors.New("retry: invalid policy configuration")
)

// Config holds the retry policy configuration
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int
	// BackoffSchedule is an ordered sequence of increasing delays. Attempt
	// n waits BackoffSchedule[n] before attempt n+1; the last value is
	// reused once the schedule is exhausted.
	BackoffSchedule []time.Duration
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		BackoffSchedule: []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxAttempts < 1 {
		return ErrInvalidConfig
	}
	if len(c.BackoffSchedule) == 0 {
		return ErrInvalidConfig
	}
	for i, d := range c.BackoffSchedule {
		if d <= 0 {
			return ErrInvalidConfig
		}
		if i > 0 && d < c.BackoffSchedule[i-1] {
			return ErrInvalidConfig
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Policy
// ---------------------------------------------------------------------------

// Operation is a single document-creation attempt. It must not retry
// internally; bounded re-attempts are the policy's responsibility.
type Operation func(ctx context.Context) (*bridge.DocumentResult, error)

// Policy drives a bounded attempt sequence with fixed-schedule backoff.
// Failures are classified as retryable or fatal via the domain
// classification; a fatal failure or an exhausted sequence yields a
// failed DocumentResult carrying the last error's message.
type Policy struct {
	config Config
	logger *zap.Logger
}

// NewPolicy creates a new retry policy
func NewPolicy(config Config, logger *zap.Logger) (*Policy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		config: config,
		logger: logger,
	}, nil
}

// Execute runs the operation until it succeeds, fails fatally, or the
// attempt budget is exhausted, and converts the outcome into a
// DocumentResult.
//
// The returned error is non-nil only when the context is cancelled
// before or during a backoff wait. A cancelled sequence is not a
// business failure: the caller must leave the order untouched for the
// next poll cycle instead of reporting it failed.
func (p *Policy) Execute(ctx context.Context, name string, op Operation) (*bridge.DocumentResult, error) {
	var lastErr error

	for attempt := 0; attempt < p.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := op(ctx)
		if err == nil {
			if result != nil && !result.Success {
				// A rejection reported through the result itself is a
				// business decision by the gateway and is never retried.
				p.logger.Warn("Operation rejected by gateway",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
					zap.String("error", result.ErrorMessage),
				)
				return result, nil
			}
			if attempt > 0 {
				p.logger.Info("Operation succeeded after retry",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
				)
			}
			return result, nil
		}

		// A context error surfaced through the operation means the shared
		// cancellation signal fired mid-call; abort the sequence.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		lastErr = err

		if !bridge.IsRetryableError(err) {
			p.logger.Warn("Operation failed with fatal error",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return bridge.FailureResult(err.Error()), nil
		}

		if attempt+1 < p.config.MaxAttempts {
			delay := p.backoffDelay(attempt)
			p.logger.Warn("Operation failed, retrying",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if err := p.wait(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	p.logger.Error("Operation failed after all attempts",
		zap.String("operation", name),
		zap.Int("max_attempts", p.config.MaxAttempts),
		zap.Error(lastErr),
	)
	return bridge.FailureResult(lastErr.Error()), nil
}

// backoffDelay returns the delay after the given 0-indexed attempt,
// reusing the last schedule value beyond the schedule length.
func (p *Policy) backoffDelay(attempt int) time.Duration {
	if attempt >= len(p.config.BackoffSchedule) {
		return p.config.BackoffSchedule[len(p.config.BackoffSchedule)-1]
	}
	return p.config.BackoffSchedule[attempt]
}

// wait sleeps for the given delay, returning early with the context
// error if cancellation fires during the wait.
func (p *Policy) wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
