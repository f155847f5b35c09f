// Package guardrails holds the per-run time budgets of the ingest pipeline
package guardrails

import (
	"context"
	"time"
)

// Timeouts bounds one pipeline run. Zero values add no limit at that level
type Timeouts struct {
	// Run caps the whole run, every stage included
	Run time.Duration

	// Fetch caps draining the API sequence
	Fetch time.Duration

	// Load caps schema checks plus the upsert transaction
	Load time.Duration
}

// ForRun returns a context limited by the run budget
func ForRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Run)
}

// ForFetch returns a sub context for the fetch stage
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForLoad returns a sub context for the load stage
func ForLoad(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Load)
}

// Remaining returns the time left on ctx, zero when there is no deadline or it passed
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout takes the tighter of d and the parent remainder; it never extends the parent.
// d <= 0 yields a plain cancelable child
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
