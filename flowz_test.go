package flowz

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// probePublisher is a manually driven upstream that records the demand and
// cancellation it observes.
type probePublisher[T any] struct {
	mu       sync.Mutex
	sub      Subscriber[T]
	requests []int64
	cancels  int
}

func newProbe[T any]() *probePublisher[T] {
	return &probePublisher[T]{}
}

func (p *probePublisher[T]) Subscribe(sub Subscriber[T]) {
	p.sub = sub
	sub.OnSubscribe(&probeSubscription[T]{p: p})
}

func (p *probePublisher[T]) Emit(values ...T) {
	for _, v := range values {
		p.sub.OnNext(v)
	}
}

func (p *probePublisher[T]) Complete()       { p.sub.OnComplete() }
func (p *probePublisher[T]) Error(err error) { p.sub.OnError(err) }

func (p *probePublisher[T]) Requests() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *probePublisher[T]) Cancels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancels
}

type probeSubscription[T any] struct {
	p *probePublisher[T]
}

func (s *probeSubscription[T]) Request(n int64) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.requests = append(s.p.requests, n)
}

func (s *probeSubscription[T]) Cancel() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.cancels++
}

// innerWindow collects one window's elements with unbounded demand.
type innerWindow struct {
	mu        sync.Mutex
	sub       Subscription
	items     []int
	completed bool
	err       error
}

func (w *innerWindow) OnSubscribe(s Subscription) {
	w.sub = s
	s.Request(Unbounded)
}

func (w *innerWindow) OnNext(value int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, value)
}

func (w *innerWindow) OnError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *innerWindow) OnComplete() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.completed = true
}

func (w *innerWindow) Items() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, len(w.items))
	copy(out, w.items)
	return out
}

func (w *innerWindow) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed
}

func (w *innerWindow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// windowRecorder consumes the outer stream of windows, attaching an
// innerWindow collector to each. initial is the outer demand requested at
// subscribe time; 0 means the test drives demand by hand. onWindow, if set,
// runs after the nth window arrives (1-based), giving cancellation tests a
// synchronous hook.
type windowRecorder struct {
	mu        sync.Mutex
	sub       Subscription
	windows   []*innerWindow
	completed bool
	err       error

	initial  int64
	onWindow func(r *windowRecorder, n int)
}

func (r *windowRecorder) OnSubscribe(s Subscription) {
	r.sub = s
	if r.initial != 0 {
		s.Request(r.initial)
	}
}

func (r *windowRecorder) OnNext(w Publisher[int]) {
	inner := &innerWindow{}
	w.Subscribe(inner)

	r.mu.Lock()
	r.windows = append(r.windows, inner)
	n := len(r.windows)
	cb := r.onWindow
	r.mu.Unlock()

	if cb != nil {
		cb(r, n)
	}
}

func (r *windowRecorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *windowRecorder) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = true
}

func (r *windowRecorder) Windows() []*innerWindow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*innerWindow, len(r.windows))
	copy(out, r.windows)
	return out
}

func (r *windowRecorder) Contents() [][]int {
	var out [][]int
	for _, w := range r.Windows() {
		out = append(out, w.Items())
	}
	return out
}

func (r *windowRecorder) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

func (r *windowRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
