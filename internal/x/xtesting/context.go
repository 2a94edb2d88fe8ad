package xtesting

import (
	"context"
	"testing"
	"time"
)

// ContextForCleanup returns a context for releasing resources after a test
// ends.
//
// It may be called at any point during the test, including from a cleanup
// function. The context is cancelled 3 seconds after the test ends.
func ContextForCleanup(t testing.TB) context.Context {
	t.Helper()

	const grace = 3 * time.Second

	ctx, cancel := context.WithCancelCause(context.Background())

	// testEnded stops the timer goroutine so it does not leak.
	testEnded := make(chan struct{})
	t.Cleanup(func() {
		close(testEnded)
	})

	startTimeout := func() {
		expired := time.NewTimer(grace)
		defer expired.Stop()

		select {
		case <-expired.C:
			cancel(context.DeadlineExceeded)
		case <-testEnded:
			cancel(t.Context().Err())
		}
	}

	if t.Context().Err() == nil {
		// The test is still running; the grace period starts when it ends.
		t.Cleanup(startTimeout)
	} else {
		// Already in the cleanup phase; the grace period starts now.
		go startTimeout()
	}

	return ctx
}
