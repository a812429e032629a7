package context

import (
	"context"
	"testing"
	"time"
)

// WithTest wraps ctx with a deadline 1 second ahead of the test's own,
// so that server sessions and listeners have time to clean up before
// the test binary dies.
func WithTest(ctx context.Context, t *testing.T) (context.Context, func()) {
	if deadline, ok := t.Deadline(); ok {
		dctx, cancel := context.WithDeadline(ctx, deadline.Add(-time.Second))
		return dctx, cancel
	}
	return ctx, func() {}
}
