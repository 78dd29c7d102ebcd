package flowz

import "go.uber.org/atomic"

// windowOverlap cuts windows of size elements starting every skip < size
// elements, so up to ceil(size/skip) windows are open at once and every
// element is routed into each of them. Opened windows are staged in an
// overflow queue and moved to the outer subscriber by a serialized drain
// loop, bounded by the outer demand.
type windowOverlap[T any] struct {
	outer         Subscriber[Publisher[T]]
	queueSupplier QueueSupplier[T]
	size          int
	skip          int

	// ready stages opened windows until the drain delivers them.
	ready Queue[Publisher[T]]

	// open holds the currently filling windows, oldest first. Touched only
	// on the upstream signal path.
	open []*Unicast[T]

	active       atomic.Int32
	once         atomic.Bool
	firstRequest atomic.Bool

	// requested is the outstanding outer demand, counted in windows.
	requested atomic.Int64

	// dw is the drain work claim: the entrant that raises it from zero runs
	// the loop, everyone else's entry is absorbed as a missed pass.
	dw atomic.Int32

	index    int
	produced int
	upstream Subscription

	done      atomic.Bool
	err       error
	cancelled atomic.Bool
}

func newWindowOverlap[T any](outer Subscriber[Publisher[T]], size, skip int, supplier QueueSupplier[T], overflow Queue[Publisher[T]]) *windowOverlap[T] {
	w := &windowOverlap[T]{
		outer:         outer,
		size:          size,
		skip:          skip,
		queueSupplier: supplier,
		ready:         overflow,
	}
	w.active.Store(1)
	return w
}

func (w *windowOverlap[T]) OnSubscribe(s Subscription) {
	if validateSubscription(w.upstream, s) {
		w.upstream = s
		w.outer.OnSubscribe(w)
	}
}

func (w *windowOverlap[T]) OnNext(value T) {
	if w.done.Load() {
		dropNext(value)
		return
	}

	i := w.index

	if i == 0 && !w.cancelled.Load() {
		w.active.Inc()

		q, err := newWindowQueue(w.queueSupplier)
		if err != nil {
			w.active.Dec()
			w.done.Store(true)
			w.Cancel()
			w.outer.OnError(err)
			return
		}

		win := NewUnicast(q, w.release)
		w.open = append(w.open, win)
		w.ready.Offer(win)
		w.drain()
	}

	i++

	for _, win := range w.open {
		win.OnNext(value)
	}

	p := w.produced + 1
	if p == w.size {
		// The oldest window just received its size-th element.
		w.produced = p - w.skip
		if len(w.open) > 0 {
			head := w.open[0]
			w.open = append(w.open[:0], w.open[1:]...)
			head.OnComplete()
		}
	} else {
		w.produced = p
	}

	if i == w.skip {
		w.index = 0
	} else {
		w.index = i
	}
}

func (w *windowOverlap[T]) OnError(err error) {
	if w.done.Load() {
		dropError(err)
		return
	}

	for _, win := range w.open {
		win.OnError(err)
	}
	w.open = nil

	w.err = err
	w.done.Store(true)
	w.drain()
}

func (w *windowOverlap[T]) OnComplete() {
	if w.done.Load() {
		return
	}

	for _, win := range w.open {
		win.OnComplete()
	}
	w.open = nil

	w.done.Store(true)
	w.drain()
}

func (w *windowOverlap[T]) drain() {
	if w.dw.Inc() != 1 {
		return
	}

	missed := int32(1)
	for {
		r := w.requested.Load()
		var e int64

		for e != r {
			d := w.done.Load()
			win, ok := w.ready.Poll()
			empty := !ok
			if w.checkTerminated(d, empty) {
				return
			}
			if empty {
				break
			}
			w.outer.OnNext(win)
			e++
		}

		if e == r && w.checkTerminated(w.done.Load(), w.ready.Empty()) {
			return
		}

		if e != 0 && r != Unbounded {
			w.requested.Sub(e)
		}

		missed = w.dw.Sub(missed)
		if missed == 0 {
			return
		}
	}
}

func (w *windowOverlap[T]) checkTerminated(done, empty bool) bool {
	if w.cancelled.Load() {
		w.ready.Clear()
		return true
	}
	if done {
		if err := w.err; err != nil {
			w.ready.Clear()
			w.outer.OnError(err)
			return true
		}
		if empty {
			w.outer.OnComplete()
			return true
		}
	}
	return false
}

// Request translates outer demand for n windows into upstream elements: the
// first batch is size plus skip*(n-1) since the first window overlaps the
// first stride, every later batch is n whole strides. The demand itself is
// tracked in requested and worked off by the drain.
func (w *windowOverlap[T]) Request(n int64) {
	if !validRequest(n) {
		return
	}

	addCapTo(&w.requested, n)

	if w.firstRequest.CAS(false, true) {
		u := mulCap(int64(w.skip), n-1)
		w.upstream.Request(addCap(int64(w.size), u))
	} else {
		w.upstream.Request(mulCap(int64(w.skip), n))
	}

	w.drain()
}

func (w *windowOverlap[T]) Cancel() {
	w.cancelled.Store(true)
	if w.once.CAS(false, true) {
		w.release()
	}
}

func (w *windowOverlap[T]) release() {
	if w.active.Dec() == 0 {
		w.upstream.Cancel()
	}
}
