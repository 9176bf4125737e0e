package resolver

import "sync/atomic"

// CancelToken is a batch-scoped cancellation flag. It is checked between
// entries, so an in-flight provider call always finishes. Resolve clears the
// token when it returns.
type CancelToken struct {
	cancelled atomic.Bool
}

// Cancel requests that the current batch stop after the entry in progress.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called since the last reset.
func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}

func (t *CancelToken) reset() {
	t.cancelled.Store(false)
}
