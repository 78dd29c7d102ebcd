package flowz

import (
	"context"

	"go.uber.org/atomic"
)

// Each creates a subscriber that requests unbounded demand and invokes fn
// for every element. Terminal signals are ignored; use Collect or a custom
// Subscriber when errors matter.
func Each[T any](fn func(T)) Subscriber[T] {
	return &eachSubscriber[T]{fn: fn}
}

type eachSubscriber[T any] struct {
	fn func(T)
}

func (e *eachSubscriber[T]) OnSubscribe(s Subscription) { s.Request(Unbounded) }
func (e *eachSubscriber[T]) OnNext(value T)             { e.fn(value) }
func (e *eachSubscriber[T]) OnError(error)              {}
func (e *eachSubscriber[T]) OnComplete()                {}

// Collect subscribes to p with unbounded demand and blocks until the stream
// terminates, returning the gathered elements and the terminal error, if
// any.
//
// Example:
//
//	items, err := flowz.Collect(flowz.FromSlice(1, 2, 3))
func Collect[T any](p Publisher[T]) ([]T, error) {
	c := &collectSubscriber[T]{done: make(chan struct{})}
	p.Subscribe(c)
	<-c.done
	return c.items, c.err
}

type collectSubscriber[T any] struct {
	items []T
	err   error
	done  chan struct{}
}

func (c *collectSubscriber[T]) OnSubscribe(s Subscription) { s.Request(Unbounded) }
func (c *collectSubscriber[T]) OnNext(value T)             { c.items = append(c.items, value) }

func (c *collectSubscriber[T]) OnError(err error) {
	c.err = err
	close(c.done)
}

func (c *collectSubscriber[T]) OnComplete() {
	close(c.done)
}

// ToChannel subscribes to p with unbounded demand and forwards elements to
// the returned channel, which is closed when the stream terminates. ctx is
// only checked while an element waits to be sent: if it is cancelled then,
// the subscription is cancelled and the channel closed; a cancellation while
// no element is pending does not close the channel. A terminal error closes
// the channel without distinction; use Collect when the error is needed.
func ToChannel[T any](ctx context.Context, p Publisher[T]) <-chan T {
	out := make(chan T)
	s := &chanSink[T]{ctx: ctx, out: out}
	p.Subscribe(s)
	return out
}

type chanSink[T any] struct {
	ctx  context.Context
	out  chan T
	sub  Subscription
	once atomic.Bool
}

func (s *chanSink[T]) OnSubscribe(sub Subscription) {
	s.sub = sub
	// Demand is raised off the subscribing goroutine so synchronous
	// publishers cannot block ToChannel before it returns the channel.
	go sub.Request(Unbounded)
}

func (s *chanSink[T]) OnNext(value T) {
	if s.once.Load() {
		return
	}
	select {
	case s.out <- value:
	case <-s.ctx.Done():
		s.sub.Cancel()
		s.terminate()
	}
}

func (s *chanSink[T]) OnError(error) { s.terminate() }
func (s *chanSink[T]) OnComplete()   { s.terminate() }

func (s *chanSink[T]) terminate() {
	if s.once.CAS(false, true) {
		close(s.out)
	}
}
