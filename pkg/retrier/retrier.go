// Package retrier provides bounded exponential backoff for calls to external
// exchange APIs. Engine arithmetic never retries; only the edges that talk to
// the network do.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultBase     = 500 * time.Millisecond
	defaultCap      = 10 * time.Second
	defaultFactor   = 2.0
	defaultAttempts = 4
	jitterFraction  = 0.2
)

// Retrier re-runs a failing call with exponentially growing pauses between
// attempts. A small random jitter keeps concurrent callers from retrying in
// lockstep.
type Retrier struct {
	base     time.Duration
	cap      time.Duration
	factor   float64
	attempts int
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithBase sets the pause before the first retry.
func WithBase(d time.Duration) Option {
	return func(r *Retrier) {
		r.base = d
	}
}

// WithCap bounds the pause between attempts.
func WithCap(d time.Duration) Option {
	return func(r *Retrier) {
		r.cap = d
	}
}

// WithFactor sets the backoff growth factor.
func WithFactor(f float64) Option {
	return func(r *Retrier) {
		r.factor = f
	}
}

// WithAttempts sets the total number of attempts, including the first call.
func WithAttempts(n int) Option {
	return func(r *Retrier) {
		r.attempts = n
	}
}

// New creates a Retrier tuned for spot-price lookups; options override the
// defaults.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		base:     defaultBase,
		cap:      defaultCap,
		factor:   defaultFactor,
		attempts: defaultAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.attempts < 1 {
		r.attempts = 1
	}
	return r
}

// Do runs fn until it succeeds or the attempt budget is spent. Context
// cancellation wins over the remaining attempts.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	pause := r.base

	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			jitter := time.Duration((rand.Float64()*2 - 1) * jitterFraction * float64(pause))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause + jitter):
			}

			pause = time.Duration(float64(pause) * r.factor)
			if pause > r.cap {
				pause = r.cap
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}

// DoWithData is Do for calls that return a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		var ferr error
		out, ferr = fn(ctx)
		return ferr
	})
	return out, err
}
