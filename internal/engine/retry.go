package engine

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy is a bounded retry schedule for transient failures.
// Multiplier <= 1 gives a fixed delay between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries a transient failure twice, one second apart.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	Delay:       time.Second,
	Multiplier:  1,
	MaxDelay:    10 * time.Second,
}

// NoRetry runs the operation exactly once.
var NoRetry = RetryPolicy{MaxAttempts: 1}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.Multiplier <= 1 {
		return backoff.NewConstantBackOff(p.Delay)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Delay
	bo.Multiplier = p.Multiplier
	bo.RandomizationFactor = 0
	if p.MaxDelay > 0 {
		bo.MaxInterval = p.MaxDelay
	}
	return bo
}

// Retry runs fn until it succeeds, fails with an error retryable rejects,
// or MaxAttempts is reached. The last error is returned unchanged.
func Retry[T any](ctx context.Context, p RetryPolicy, retryable func(error) bool, fn func() (T, error)) (T, error) {
	if retryable == nil {
		retryable = IsTransientNetError
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	op := func() (T, error) {
		res, err := fn()
		if err != nil && !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}
	notify := func(err error, wait time.Duration) {
		slog.Debug("retrying", slog.Duration("wait", wait), slog.Any("error", err))
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(notify),
	)
}

// IsTransientNetError returns true for connection-level errors worth retrying.
func IsTransientNetError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Connection errors (dial failures, connection refused, etc.)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Timeout errors (net.Error includes OpError, so check after OpError)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
