package analyzer

import (
	"context"
	"sync/atomic"
)

// Progress is a snapshot of a running analysis.
type Progress struct {
	Done   int
	Failed int
	Total  int
	Path   string
}

// ProgressFunc receives a snapshot after each file completes.
type ProgressFunc func(Progress)

// Tracker counts completed and failed files. Safe for concurrent use.
type Tracker struct {
	total    atomic.Int64
	done     atomic.Int64
	failed   atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker that reports to callback, which may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add grows the expected total by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// Tick records path as complete. A non-nil err also counts it as failed.
func (t *Tracker) Tick(path string, err error) {
	failed := t.failed.Load()
	if err != nil {
		failed = t.failed.Add(1)
	}
	done := t.done.Add(1)
	if t.callback != nil {
		t.callback(Progress{
			Done:   int(done),
			Failed: int(failed),
			Total:  int(t.total.Load()),
			Path:   path,
		})
	}
}

// Snapshot returns the current counts.
func (t *Tracker) Snapshot() Progress {
	return Progress{
		Done:   int(t.done.Load()),
		Failed: int(t.failed.Load()),
		Total:  int(t.total.Load()),
	}
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the tracker from ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
