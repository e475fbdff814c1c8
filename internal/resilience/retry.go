// Package resilience provides retry with backoff for calls to the deal feed
// and the text-generation providers.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy is a named retry schedule for one upstream.
type Policy struct {
	// Upstream names the remote side in retry logs ("deal-feed", "analyst").
	Upstream string
	// Attempts counts the first call; values below 1 mean a single call.
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	// Jitter spreads each delay by up to ±Jitter of itself.
	Jitter float64

	// Retryable replaces IsTransient when set.
	Retryable func(err error) bool
	// Sleep replaces the context-aware timer; tests use it to skip waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns the provider schedule (500ms doubling to 10s, 25% jitter)
// allowing retries extra attempts.
func NewPolicy(upstream string, retries int) Policy {
	return Policy{
		Upstream: upstream,
		Attempts: max(retries, 0) + 1,
		Base:     500 * time.Millisecond,
		Cap:      10 * time.Second,
		Jitter:   0.25,
	}
}

// Delay is the wait before retry number n (0-based), without jitter.
func (p Policy) Delay(n int) time.Duration {
	d := p.Base
	for i := 0; i < n && d < math.MaxInt64/2; i++ {
		d *= 2
	}
	if p.Cap > 0 && d > p.Cap {
		return p.Cap
	}
	return d
}

func (p Policy) jittered(n int) time.Duration {
	d := p.Delay(n)
	if p.Jitter <= 0 {
		return d
	}
	spread := time.Duration((rand.Float64()*2 - 1) * p.Jitter * float64(d))
	return max(d+spread, 0)
}

// Run calls fn until it succeeds, fails permanently, runs out of attempts or
// ctx ends. The last error is returned unchanged.
func Run(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	_, err := Call(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call is Run for functions that produce a value.
func Call[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = wait
	}
	attempts := max(p.Attempts, 1)

	var zero T
	for n := 0; ; n++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if n+1 >= attempts || ctx.Err() != nil || !retryable(err) {
			return zero, err
		}

		zap.L().Warn("resilience: retrying",
			zap.String("upstream", p.Upstream),
			zap.String("op", op),
			zap.Int("attempt", n+1),
			zap.Error(err),
		)
		if serr := sleep(ctx, p.jittered(n)); serr != nil {
			return zero, err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
