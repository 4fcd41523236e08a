package delivery

import (
	"context"
	"time"
)

// Decision is the outcome of evaluating a delivery attempt.
type Decision int

const (
	// Delivered means the webhook answered. The status code is not
	// inspected.
	Delivered Decision = iota

	// Retry means the attempt failed in transport and should be repeated.
	Retry

	// Drop means no further attempts will be made.
	Drop
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case Retry:
		return "retry"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Default retry policy.
const (
	DefaultMaxAttempts = 10
	DefaultBackoff     = 100 * time.Millisecond
)

// Result holds the outcome of a single delivery attempt.
type Result struct {
	StatusCode int
	Error      string
	Response   string
	LatencyMs  int

	// Permanent marks failures that happen before anything is sent, such
	// as an unusable URL. They are never retried.
	Permanent bool
}

// OK reports whether the webhook answered with a 2xx status.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Retrier decides what to do after a delivery attempt, with a constant
// backoff between attempts.
type Retrier struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NewRetrier creates a retrier. Non-positive values select the defaults.
func NewRetrier(maxAttempts int, backoff time.Duration) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff < 0 {
		backoff = DefaultBackoff
	}
	return &Retrier{MaxAttempts: maxAttempts, Backoff: backoff}
}

// Decide determines what to do after the given attempt (1-based).
//
//   - any HTTP response → Delivered
//   - permanent failure → Drop
//   - transport failure → Retry while attempt < MaxAttempts, else Drop
func (r *Retrier) Decide(res Result, attempt int) Decision {
	if res.StatusCode != 0 {
		return Delivered
	}
	if res.Permanent {
		return Drop
	}
	if attempt < r.MaxAttempts {
		return Retry
	}
	return Drop
}

// Wait sleeps for the backoff interval. It returns early with ctx's error
// when ctx is done.
func (r *Retrier) Wait(ctx context.Context) error {
	if r.Backoff <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.Backoff)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
