package flowz

import "go.uber.org/atomic"

// windowExact cuts the stream into contiguous windows of exactly size
// elements. At most one window is open at a time; a window opens on the
// element that starts a stride and completes on the element that fills it.
type windowExact[T any] struct {
	outer         Subscriber[Publisher[T]]
	queueSupplier QueueSupplier[T]
	size          int

	// active holds 1 for the outer subscriber plus 1 per open window.
	// The upstream is cancelled on the transition to 0.
	active atomic.Int32
	once   atomic.Bool

	index    int
	upstream Subscription
	window   *Unicast[T]
	done     bool
}

func newWindowExact[T any](outer Subscriber[Publisher[T]], size int, supplier QueueSupplier[T]) *windowExact[T] {
	w := &windowExact[T]{outer: outer, size: size, queueSupplier: supplier}
	w.active.Store(1)
	return w
}

func (w *windowExact[T]) OnSubscribe(s Subscription) {
	if validateSubscription(w.upstream, s) {
		w.upstream = s
		w.outer.OnSubscribe(w)
	}
}

func (w *windowExact[T]) OnNext(value T) {
	if w.done {
		dropNext(value)
		return
	}

	i := w.index
	win := w.window
	if i == 0 {
		w.active.Inc()

		q, err := newWindowQueue(w.queueSupplier)
		if err != nil {
			w.active.Dec()
			w.done = true
			w.Cancel()
			w.outer.OnError(err)
			return
		}

		win = NewUnicast(q, w.release)
		w.window = win
		w.outer.OnNext(win)
	}

	i++
	win.OnNext(value)

	if i == w.size {
		w.index = 0
		w.window = nil
		win.OnComplete()
	} else {
		w.index = i
	}
}

func (w *windowExact[T]) OnError(err error) {
	if w.done {
		dropError(err)
		return
	}
	w.done = true
	if win := w.window; win != nil {
		w.window = nil
		win.OnError(err)
	}
	w.outer.OnError(err)
}

func (w *windowExact[T]) OnComplete() {
	if w.done {
		return
	}
	w.done = true
	if win := w.window; win != nil {
		w.window = nil
		win.OnComplete()
	}
	w.outer.OnComplete()
}

// Request translates outer demand for n windows into n*size upstream
// elements.
func (w *windowExact[T]) Request(n int64) {
	if validRequest(n) {
		w.upstream.Request(mulCap(int64(w.size), n))
	}
}

func (w *windowExact[T]) Cancel() {
	if w.once.CAS(false, true) {
		w.release()
	}
}

func (w *windowExact[T]) release() {
	if w.active.Dec() == 0 {
		w.upstream.Cancel()
	}
}
