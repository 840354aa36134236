// Package backoff paces reconnects and retries against rpc nodes and redis.
package backoff

import (
	"context"
	"time"
)

// Backoff doubles its wait after every Backoff call, up to limit. It is not safe
// for concurrent use; give every retry loop its own.
type Backoff struct {
	// NextDuration is what the next Backoff call waits.
	NextDuration time.Duration

	start    time.Duration
	limit    time.Duration
	attempts int
}

// NewExponential waits start, 2*start, 4*start... A limit of 0 means uncapped.
func NewExponential(start, limit time.Duration) *Backoff {
	b := &Backoff{start: start, limit: limit}
	b.Reset()
	return b
}

// Reset goes back to the first wait, e.g. after a connection proved healthy.
func (b *Backoff) Reset() {
	b.attempts = 0
	b.NextDuration = b.capped(b.start)
}

// Attempts is the number of completed waits since the last Reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Backoff sleeps for NextDuration and returns ctx.Err() if ctx ends first.
func (b *Backoff) Backoff(ctx context.Context) error {
	timer := time.NewTimer(b.NextDuration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	b.attempts++
	next := b.NextDuration * 2
	if next < b.NextDuration {
		// overflowed
		next = b.NextDuration
	}
	b.NextDuration = b.capped(next)
	return nil
}

func (b *Backoff) capped(d time.Duration) time.Duration {
	if b.limit > 0 && d > b.limit {
		return b.limit
	}
	return d
}
