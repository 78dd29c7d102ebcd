package flowz

import (
	"context"

	"go.uber.org/atomic"
)

// FromSlice creates a cold publisher that replays items to each subscriber
// under that subscriber's demand. Every subscriber receives the full
// sequence from the start.
//
// Example:
//
//	source := flowz.FromSlice(1, 2, 3)
//	items, _ := flowz.Collect(source) // [1 2 3]
func FromSlice[T any](items ...T) Publisher[T] {
	return slicePublisher[T](items)
}

type slicePublisher[T any] []T

func (p slicePublisher[T]) Subscribe(sub Subscriber[T]) {
	sub.OnSubscribe(&sliceSubscription[T]{items: p, sub: sub})
}

// sliceSubscription emits on the requesting goroutine, serialized by a work
// claim so that reentrant requests from OnNext do not interleave emissions.
type sliceSubscription[T any] struct {
	items []T
	sub   Subscriber[T]
	pos   int

	requested atomic.Int64
	wip       atomic.Int32
	cancelled atomic.Bool
}

func (s *sliceSubscription[T]) Request(n int64) {
	if !validRequest(n) {
		return
	}
	addCapTo(&s.requested, n)
	s.drain()
}

func (s *sliceSubscription[T]) Cancel() {
	s.cancelled.Store(true)
}

func (s *sliceSubscription[T]) drain() {
	if s.wip.Inc() != 1 {
		return
	}
	missed := int32(1)
	for {
		r := s.requested.Load()
		var e int64

		for e != r && s.pos < len(s.items) {
			if s.cancelled.Load() {
				return
			}
			s.sub.OnNext(s.items[s.pos])
			s.pos++
			e++
		}

		if s.pos == len(s.items) {
			if !s.cancelled.Load() {
				s.sub.OnComplete()
			}
			return
		}

		if e != 0 && r != Unbounded {
			s.requested.Sub(e)
		}

		missed = s.wip.Sub(missed)
		if missed == 0 {
			return
		}
	}
}

// FromChannel creates a publisher fed by a channel. Elements are read from
// in only while the subscriber has outstanding demand, so channel capacity
// becomes upstream backpressure. Closing in completes the stream; context
// cancellation errors it with ctx.Err().
//
// Example:
//
//	events := make(chan Event, 64)
//	source := flowz.FromChannel(ctx, events)
//	windows := flowz.NewWindow(source, 100)
func FromChannel[T any](ctx context.Context, in <-chan T) Publisher[T] {
	return &chanPublisher[T]{ctx: ctx, in: in}
}

type chanPublisher[T any] struct {
	ctx context.Context
	in  <-chan T
}

func (p *chanPublisher[T]) Subscribe(sub Subscriber[T]) {
	s := &chanSubscription[T]{
		sub:    sub,
		ctx:    p.ctx,
		in:     p.in,
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	sub.OnSubscribe(s)
	go s.pump()
}

type chanSubscription[T any] struct {
	sub Subscriber[T]
	ctx context.Context
	in  <-chan T

	requested atomic.Int64
	notify    chan struct{}
	quit      chan struct{}
	once      atomic.Bool
}

func (s *chanSubscription[T]) Request(n int64) {
	if !validRequest(n) {
		return
	}
	addCapTo(&s.requested, n)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *chanSubscription[T]) Cancel() {
	if s.once.CAS(false, true) {
		close(s.quit)
	}
}

func (s *chanSubscription[T]) pump() {
	for {
		if s.requested.Load() == 0 {
			select {
			case <-s.notify:
				continue
			case <-s.quit:
				return
			case <-s.ctx.Done():
				s.sub.OnError(s.ctx.Err())
				return
			}
		}

		select {
		case v, ok := <-s.in:
			if !ok {
				s.sub.OnComplete()
				return
			}
			s.sub.OnNext(v)
			if s.requested.Load() != Unbounded {
				s.requested.Dec()
			}
		case <-s.quit:
			return
		case <-s.ctx.Done():
			s.sub.OnError(s.ctx.Err())
			return
		}
	}
}
