package flowz

import "github.com/pkg/errors"

// Window re-chunks a source stream into a stream of smaller publishers.
// Every skip elements a new window opens; each window receives size
// elements and then completes, except that windows still open when the
// source terminates end early with the source's signal. Depending on the stride the windows are
// contiguous (skip == size), gapped (skip > size, the elements between
// windows are discarded), or overlapping (skip < size, elements are routed
// into several windows at once).
//
// Backpressure runs on both channels: the outer subscriber's demand counts
// windows and is translated into the element volume the upstream must
// produce, while each window's subscriber independently paces the elements
// inside that window.
//
// When to use:
//   - Batch-shaped consumers over an element-shaped stream
//   - Rolling computations that need every stride's worth of context
//   - Sampling one window of activity every skip elements
//
// Example:
//
//	// Contiguous windows of 100
//	windows := flowz.NewWindow(source, 100)
//
//	// One window of 100 out of every 1000 elements
//	sampled := flowz.NewWindow(source, 100).WithSkip(1000)
//
//	// Windows of 100 starting every 10 elements (rolling)
//	rolling := flowz.NewWindow(source, 100).WithSkip(10)
//
// Parameters:
//   - source: The upstream publisher to re-chunk
//   - size: Number of elements per window (must be > 0)
//
// Returns a new Window publisher of windows.
type Window[T any] struct {
	source           Publisher[T]
	size             int
	skip             int
	queueSupplier    QueueSupplier[T]
	overflowSupplier QueueSupplier[Publisher[T]]
}

// NewWindow creates a window operator over source with contiguous windows
// of size elements. Panics if size <= 0.
func NewWindow[T any](source Publisher[T], size int) *Window[T] {
	if size <= 0 {
		panic("flowz: window size must be > 0")
	}
	return &Window[T]{
		source: source,
		size:   size,
		skip:   size,
		queueSupplier: func() (Queue[T], error) {
			return NewBoundedQueue[T](size), nil
		},
		overflowSupplier: func() (Queue[Publisher[T]], error) {
			return NewUnboundedQueue[Publisher[T]](), nil
		},
	}
}

// WithSkip sets the stride between consecutive window starts, counted in
// upstream elements. Defaults to size. Panics if skip <= 0.
func (w *Window[T]) WithSkip(skip int) *Window[T] {
	if skip <= 0 {
		panic("flowz: window skip must be > 0")
	}
	w.skip = skip
	return w
}

// WithQueueSupplier replaces the factory for the per-window element buffer.
// The queue must hold at least size elements for a window to absorb its full
// budget.
func (w *Window[T]) WithQueueSupplier(supplier QueueSupplier[T]) *Window[T] {
	w.queueSupplier = supplier
	return w
}

// WithOverflowSupplier replaces the factory for the queue that holds opened
// but not yet delivered windows. Only the overlapping strategy uses it; a
// capacity of at least ceil(size/skip) is recommended.
func (w *Window[T]) WithOverflowSupplier(supplier QueueSupplier[Publisher[T]]) *Window[T] {
	w.overflowSupplier = supplier
	return w
}

// Subscribe picks the strategy matching the configured stride and attaches
// it between source and sub. Supplier failures at this point terminate sub
// immediately without touching the source.
func (w *Window[T]) Subscribe(sub Subscriber[Publisher[T]]) {
	switch {
	case w.skip == w.size:
		w.source.Subscribe(newWindowExact(sub, w.size, w.queueSupplier))
	case w.skip > w.size:
		w.source.Subscribe(newWindowSkip(sub, w.size, w.skip, w.queueSupplier))
	default:
		overflow, err := w.overflowSupplier()
		if err != nil {
			errorTo(sub, errors.Wrap(err, "flowz: overflow queue supplier"))
			return
		}
		if overflow == nil {
			errorTo(sub, ErrNilQueue)
			return
		}
		w.source.Subscribe(newWindowOverlap(sub, w.size, w.skip, w.queueSupplier, overflow))
	}
}

// newWindowQueue runs the per-window supplier, normalizing its two failure
// modes (error, nil queue) into one error.
func newWindowQueue[T any](supplier QueueSupplier[T]) (Queue[T], error) {
	q, err := supplier()
	if err != nil {
		return nil, errors.Wrap(err, "flowz: window queue supplier")
	}
	if q == nil {
		return nil, ErrNilQueue
	}
	return q, nil
}
