// Package testutil provides helpers for driving tick-based components in
// tests with bounded, deterministic loops instead of wall-clock sleeps.
package testutil

import (
	"context"
	"fmt"
	"time"
)

// DefaultMaxTicks bounds TickUntil loops in tests that do not care about the
// exact tick count.
const DefaultMaxTicks = 1000

// PollingInterval is the default interval between checks in Poll and
// WaitForState.
const PollingInterval = 10 * time.Millisecond

// Ticker is anything advanced one generation at a time.
type Ticker interface {
	Tick(ctx context.Context) error
}

// TickUntil ticks t until done returns true, checking done before every tick.
// It returns the number of ticks performed, or an error if done is still
// false after maxTicks ticks or a tick fails.
func TickUntil(ctx context.Context, t Ticker, done func() bool, maxTicks int) (int, error) {
	for n := 0; ; n++ {
		if done() {
			return n, nil
		}
		if n >= maxTicks {
			return n, fmt.Errorf("condition not met after %d ticks", maxTicks)
		}
		if err := t.Tick(ctx); err != nil {
			return n, fmt.Errorf("tick %d: %w", n+1, err)
		}
	}
}

// TickN ticks t exactly n times.
func TickN(ctx context.Context, t Ticker, n int) error {
	for i := 0; i < n; i++ {
		if err := t.Tick(ctx); err != nil {
			return fmt.Errorf("tick %d: %w", i+1, err)
		}
	}
	return nil
}

// Poll repeatedly checks a condition until it becomes true or timeout expires.
// It is for components ticked on their own goroutine, such as a wall-clock
// ticker.
func Poll(ctx context.Context, condition func() bool, timeout time.Duration, interval time.Duration) error {
	start := time.Now()
	for {
		if condition() {
			return nil
		}

		if time.Since(start) >= timeout {
			return fmt.Errorf("timeout waiting for condition (threshold: %v)", timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// WaitForState waits until the state getter returns a value that satisfies
// the predicate function, or timeout expires.
//
// Example usage:
//
//	status, err := WaitForState(ctx, req.Status,
//		func(s goap.Status) bool { return s != goap.Running },
//		5*time.Second,
//		PollingInterval)
func WaitForState[T any](ctx context.Context, getter func() T, predicate func(T) bool, timeout time.Duration, interval time.Duration) (T, error) {
	start := time.Now()
	for {
		state := getter()

		if predicate(state) {
			return state, nil
		}

		if time.Since(start) >= timeout {
			var zero T
			return zero, fmt.Errorf("timeout waiting for target state (type %T, threshold: %v)", *new(T), timeout)
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(interval):
		}
	}
}
