package core

// limiter.go serializes import runs that share a sink.
//
// Runs against one transactional sink must not interleave, so the HTTP
// layer holds one RunLimiter per sink. The default capacity is one slot.
// Waiters give up after maxWait with ErrTooManyImports.

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultMaxWait is how long Acquire waits for a slot when none is configured.
const DefaultMaxWait = 30 * time.Second

// RunLimiter is a counting semaphore over import runs.
type RunLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

// NewRunLimiter allows at most capacity concurrent runs.
func NewRunLimiter(capacity int, maxWait time.Duration) *RunLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &RunLimiter{
		slots:   make(chan struct{}, capacity),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. The caller must Release it.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.WithHint(ErrTooManyImports, "another import is running against this database; retry shortly")
	}
}

// TryAcquire takes a slot without waiting.
func (l *RunLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *RunLimiter) Release() {
	select {
	case <-l.slots:
	default:
		panic("core: RunLimiter.Release without Acquire")
	}
}

// Run executes fn while holding a slot.
func (l *RunLimiter) Run(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount is the number of slots in use.
func (l *RunLimiter) ActiveCount() int {
	return len(l.slots)
}

// Available is the number of free slots.
func (l *RunLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no run holds a slot or ctx ends.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a snapshot for health output.
type LimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Capacity  int `json:"capacity"`
}

// Status returns the current limiter state.
func (l *RunLimiter) Status() LimiterStatus {
	active := len(l.slots)
	return LimiterStatus{
		Active:    active,
		Available: cap(l.slots) - active,
		Capacity:  cap(l.slots),
	}
}
