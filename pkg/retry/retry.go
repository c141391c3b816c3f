// Package retry provides simple exponential backoff logic for transient
// conditions such as an idle block waiting for new input or output capacity.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	// Thread-safe random source for jitter
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NonRetryableError wraps errors that should not be retried
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable wraps an error to indicate it should not be retried
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable checks if an error is marked as non-retryable
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Config provides backoff configuration
type Config struct {
	MaxAttempts  int           // Maximum number of attempts (0 = unbounded)
	InitialDelay time.Duration // Initial delay between attempts
	MaxDelay     time.Duration // Maximum delay between attempts
	Multiplier   float64       // Backoff multiplier (typically 2.0)
	AddJitter    bool          // Add random jitter to delays
}

// DefaultConfig returns backoff configuration suitable for normal operations
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Idle returns backoff configuration tuned for scheduler idle waits: short
// initial delay, tight cap, unbounded attempts. Starvation is a liveness
// condition, not an error, so the wait never gives up on its own.
func Idle() Config {
	return Config{
		MaxAttempts:  0,
		InitialDelay: 100 * time.Microsecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Delay returns the backoff delay for the given zero-based attempt number,
// applying the multiplier, cap, and optional jitter.
func (c Config) Delay(attempt int) time.Duration {
	delay := c.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * c.Multiplier)
		if delay >= c.MaxDelay {
			delay = c.MaxDelay
			break
		}
	}

	if half := int64(delay) / 2; c.AddJitter && half > 0 {
		randMu.Lock()
		jitter := time.Duration(randSource.Int63n(half))
		randMu.Unlock()
		delay = delay/2 + jitter
	}

	return delay
}

// Do executes fn with retry and exponential backoff. It stops on success,
// on a NonRetryable error, when MaxAttempts is exhausted, or when the
// context is cancelled.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 0; cfg.MaxAttempts == 0 || attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsNonRetryable(lastErr) {
			return lastErr
		}

		timer := time.NewTimer(cfg.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

// Wait sleeps for the backoff delay of the given attempt, returning early
// with the context error if cancelled or when woken via the wake channel.
func Wait(ctx context.Context, cfg Config, attempt int, wake <-chan struct{}) error {
	timer := time.NewTimer(cfg.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wake:
		return nil
	case <-timer.C:
		return nil
	}
}
