package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobalert/internal/model"
)

// Policy describes how a failing operation is retried.
type Policy struct {
	MaxRetries  int           // additional attempts after the first failure
	Delay       time.Duration // wait before each retry; base delay when Exponential
	Exponential bool          // double the delay per attempt with ±30% jitter
	// Retryable decides whether an error is worth another attempt.
	// Nil retries every error.
	Retryable func(error) bool
}

// Fixed returns a policy that retries every error maxRetries times with a constant delay.
func Fixed(maxRetries int, delay time.Duration) Policy {
	return Policy{MaxRetries: maxRetries, Delay: delay}
}

// Backoff returns a policy with exponential backoff that only retries transient errors.
func Backoff(maxRetries int, baseDelay time.Duration) Policy {
	return Policy{MaxRetries: maxRetries, Delay: baseDelay, Exponential: true, Retryable: IsRetryable}
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx is cancelled.
// Each failure is logged with the attempt number. The last error is returned.
func Do(ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}

	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		delay := p.delay(attempt, err)
		logger.Warn("retrying after failure",
			"op", op,
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}

	return err
}

// delay computes the wait before a given attempt. Fixed policies always wait
// Delay; exponential ones defer to a Retry-After duration on an HTTP error.
func (p Policy) delay(attempt int, err error) time.Duration {
	if !p.Exponential {
		return p.Delay
	}
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: Delay * 2^(attempt-1)
	delay := p.Delay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// IsRetryable returns true if the error represents a transient failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 and 5xx are transient; other 4xx are not.
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}

// RetrySource is a decorator that retries transient scrape failures with
// exponential backoff and jitter before giving up.
type RetrySource struct {
	inner  model.ListingSource
	policy Policy
	logger *slog.Logger
}

// NewRetrySource wraps a ListingSource with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetrySource(inner model.ListingSource, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	return &RetrySource{
		inner:  inner,
		policy: Backoff(maxRetries, baseDelay),
		logger: logger,
	}
}

// Scrape delegates to the wrapped source, retrying on transient errors.
func (s *RetrySource) Scrape(ctx context.Context, q model.Query) ([]model.Posting, error) {
	var postings []model.Posting
	err := Do(ctx, s.policy, s.logger, "scrape "+q.Term.String(), func(ctx context.Context) error {
		var err error
		postings, err = s.inner.Scrape(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return postings, nil
}
