package context

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds tests running without -timeout.
const DefaultTimeout = 10 * time.Second

// WithTest wraps ctx with a deadline for waiting in a test.
//
// The deadline is 1 second before the test's deadline, to be able to clean-up resources,
// or DefaultTimeout when the test has no deadline.
// The context is cancelled when the test ends.
func WithTest(ctx context.Context, t *testing.T) context.Context {
	deadline, ok := t.Deadline()
	if ok {
		deadline = deadline.Add(-time.Second)
	} else {
		deadline = time.Now().Add(DefaultTimeout)
	}
	dctx, cancel := context.WithDeadline(ctx, deadline)
	t.Cleanup(cancel)
	return dctx
}
