package apierr

import (
	"context"
	"math"
	"time"

	"github.com/tuaneric255-blip/Imaxai/internal/logging"
)

// Default retry policy shared by every tool.
const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 3 * time.Second
)

// maxShift bounds the exponent; Backoff saturates before overflow.
const maxShift = 20

// Policy holds retry parameters for exponential backoff.
//
// Invalid values are normalized:
//   - MaxRetries < 0 becomes 0 (single attempt)
//   - BaseDelay <= 0 becomes 1ms
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// normalize ensures all Policy fields have valid values.
func (p *Policy) normalize() {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Millisecond
	}
}

// Backoff returns BaseDelay * 2^attempt for the given 0-based attempt index.
func (p Policy) Backoff(attempt int) time.Duration {
	p.normalize()
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	if p.BaseDelay > time.Duration(math.MaxInt64>>attempt) {
		return time.Duration(math.MaxInt64)
	}
	return p.BaseDelay << attempt
}

// Attempt describes one failed call that is about to be retried.
type Attempt struct {
	// Index is the 0-based index of the failed attempt.
	Index int
	// Err is the raw failure.
	Err error
	// Class is the classification of Err.
	Class Classified
	// Wait is the delay before the next attempt.
	Wait time.Duration
}

// RetryOption configures RetryWithBackoff.
type RetryOption func(*retryOptions)

type retryOptions struct {
	sleep    func(ctx context.Context, d time.Duration) error
	observer func(Attempt)
	logger   logging.Logger
}

// WithSleep replaces the wait between attempts (for tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(o *retryOptions) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// WithObserver registers a callback invoked before each wait.
// UI layers use it to report "waiting for quota" instead of appearing to hang.
func WithObserver(fn func(Attempt)) RetryOption {
	return func(o *retryOptions) {
		o.observer = fn
	}
}

// WithLogger sets the logger for diagnostic traces.
func WithLogger(l logging.Logger) RetryOption {
	return func(o *retryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryWithBackoff executes fn with bounded exponential backoff.
//
// Fatal failures are returned unchanged after a single attempt. Transient
// failures are retried up to policy.MaxRetries times, waiting the server
// suggested delay when the error carries one and BaseDelay*2^attempt
// otherwise. When retries run out a *GivenUpError is returned.
//
// Attempts are strictly sequential. Invalid Policy values are normalized
// (see Policy documentation).
func RetryWithBackoff[T any](
	ctx context.Context,
	policy Policy,
	fn func(ctx context.Context) (T, error),
	opts ...RetryOption,
) (T, error) {
	policy.normalize()

	o := retryOptions{sleep: sleepContext, logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		class := Classify(err)
		if !class.Kind.Transient() {
			return zero, err
		}

		if attempt >= policy.MaxRetries {
			o.logger.Errorf("giving up after %d attempts: %v", attempt+1, err)
			return zero, &GivenUpError{Attempts: attempt + 1, Kind: class.Kind, Last: err}
		}

		wait := policy.Backoff(attempt)
		if class.HasSuggestion {
			wait = class.Suggested
			o.logger.Infof("server requested wait, sleeping %s", wait)
		}
		o.logger.Warnf("%s (retry %d/%d), waiting %s: %v",
			class.Kind, attempt+1, policy.MaxRetries, wait, err)

		if o.observer != nil {
			o.observer(Attempt{Index: attempt, Err: err, Class: class, Wait: wait})
		}

		if err := o.sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}
