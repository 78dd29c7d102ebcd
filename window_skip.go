package flowz

import "go.uber.org/atomic"

// windowSkip cuts windows of size elements starting every skip > size
// elements. The skip-size elements between a window's close and the next
// window's open are consumed from upstream and discarded.
type windowSkip[T any] struct {
	outer         Subscriber[Publisher[T]]
	queueSupplier QueueSupplier[T]
	size          int
	skip          int

	active atomic.Int32
	once   atomic.Bool

	// firstRequest distinguishes the first outer request: the first batch
	// must cover the opening window plus n-1 full strides, while later
	// batches are whole strides.
	firstRequest atomic.Bool

	index    int
	upstream Subscription
	window   *Unicast[T]
	done     bool
}

func newWindowSkip[T any](outer Subscriber[Publisher[T]], size, skip int, supplier QueueSupplier[T]) *windowSkip[T] {
	w := &windowSkip[T]{outer: outer, size: size, skip: skip, queueSupplier: supplier}
	w.active.Store(1)
	return w
}

func (w *windowSkip[T]) OnSubscribe(s Subscription) {
	if validateSubscription(w.upstream, s) {
		w.upstream = s
		w.outer.OnSubscribe(w)
	}
}

func (w *windowSkip[T]) OnNext(value T) {
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

	// win is nil in the gap between a window's close and the stride's end.
	if win != nil {
		win.OnNext(value)
	}

	if i == w.size {
		w.window = nil
		win.OnComplete()
	}

	if i == w.skip {
		w.index = 0
	} else {
		w.index = i
	}
}

func (w *windowSkip[T]) OnError(err error) {
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

func (w *windowSkip[T]) OnComplete() {
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

// Request translates outer demand for n windows into upstream elements.
// The first batch is size*n window elements plus (skip-size)*(n-1) gap
// elements; every later batch is n whole strides.
func (w *windowSkip[T]) Request(n int64) {
	if !validRequest(n) {
		return
	}
	if w.firstRequest.CAS(false, true) {
		u := mulCap(int64(w.size), n)
		v := mulCap(int64(w.skip-w.size), n-1)
		w.upstream.Request(addCap(u, v))
	} else {
		w.upstream.Request(mulCap(int64(w.skip), n))
	}
}

func (w *windowSkip[T]) Cancel() {
	if w.once.CAS(false, true) {
		w.release()
	}
}

func (w *windowSkip[T]) release() {
	if w.active.Dec() == 0 {
		w.upstream.Cancel()
	}
}
