package flowz

import (
	"go.uber.org/atomic"
)

// Unicast is a hot publisher that buffers pushed elements in a queue and
// replays them to its single subscriber under that subscriber's demand.
// Elements arrive via OnNext whether or not the subscriber has attached yet,
// which is exactly the shape a window needs: the operator fills the window
// while the downstream decides when (and how fast) to read it.
//
// Exactly one subscriber is allowed over the publisher's lifetime; a second
// Subscribe is failed immediately with ErrMultipleSubscribers.
//
// When to use:
//   - Handing a consumer a stream that is being produced right now
//   - Decoupling the production rate from a single consumer's demand
//   - Building operators that emit sub-streams (windowing, grouping)
//
// Example:
//
//	u := flowz.NewUnicast(flowz.NewBoundedQueue[int](8), nil)
//
//	u.OnNext(1) // buffered, no subscriber yet
//	u.OnNext(2)
//	u.OnComplete()
//
//	items, _ := flowz.Collect[int](u) // [1 2]
type Unicast[T any] struct {
	queue Queue[T]

	// onTerminate fires exactly once, on the first of: terminal signal
	// received, downstream cancel. The window operator uses it to release
	// the window's unit of the active count.
	onTerminate func()
	terminated  atomic.Bool

	sub        Subscriber[T]
	subscribed atomic.Bool
	once       atomic.Bool

	requested atomic.Int64
	wip       atomic.Int32

	done      atomic.Bool
	err       error
	cancelled atomic.Bool
}

// NewUnicast creates a Unicast over q. onTerminate, if non-nil, is invoked
// exactly once when the publisher terminates for any reason.
func NewUnicast[T any](q Queue[T], onTerminate func()) *Unicast[T] {
	return &Unicast[T]{queue: q, onTerminate: onTerminate}
}

// Subscribe attaches the single allowed subscriber. Signals buffered before
// attachment are replayed in order under the subscriber's demand.
func (u *Unicast[T]) Subscribe(sub Subscriber[T]) {
	if !u.once.CAS(false, true) {
		errorTo(sub, ErrMultipleSubscribers)
		return
	}
	u.sub = sub
	u.subscribed.Store(true)
	sub.OnSubscribe(u)
	u.drain()
}

// OnNext buffers value for the subscriber. After termination the value is
// routed to the dropped-element hook. A full queue terminates the publisher
// with ErrOverflow.
func (u *Unicast[T]) OnNext(value T) {
	if u.done.Load() || u.cancelled.Load() {
		dropNext(value)
		return
	}
	if !u.queue.Offer(value) {
		u.OnError(ErrOverflow)
		return
	}
	u.drain()
}

// OnError terminates the publisher; the error reaches the subscriber once
// all buffered elements have been consumed.
func (u *Unicast[T]) OnError(err error) {
	if u.done.Load() || u.cancelled.Load() {
		dropError(err)
		return
	}
	u.err = err
	u.done.Store(true)
	u.doTerminate()
	u.drain()
}

// OnComplete terminates the publisher normally; completion reaches the
// subscriber once all buffered elements have been consumed.
func (u *Unicast[T]) OnComplete() {
	if u.done.Load() || u.cancelled.Load() {
		return
	}
	u.done.Store(true)
	u.doTerminate()
	u.drain()
}

// Request implements Subscription for the attached subscriber.
func (u *Unicast[T]) Request(n int64) {
	if !validRequest(n) {
		return
	}
	addCapTo(&u.requested, n)
	u.drain()
}

// Cancel implements Subscription for the attached subscriber.
func (u *Unicast[T]) Cancel() {
	u.cancelled.Store(true)
	u.doTerminate()
	if u.wip.Inc() == 1 {
		u.queue.Clear()
	}
}

func (u *Unicast[T]) doTerminate() {
	if u.onTerminate != nil && u.terminated.CAS(false, true) {
		u.onTerminate()
	}
}

func (u *Unicast[T]) drain() {
	if u.wip.Inc() != 1 {
		return
	}
	missed := int32(1)
	for {
		if u.subscribed.Load() {
			sub := u.sub
			r := u.requested.Load()
			var e int64

			for e != r {
				d := u.done.Load()
				v, ok := u.queue.Poll()
				empty := !ok
				if u.checkTerminated(d, empty, sub) {
					return
				}
				if empty {
					break
				}
				sub.OnNext(v)
				e++
			}

			if e == r && u.checkTerminated(u.done.Load(), u.queue.Empty(), sub) {
				return
			}
			if e != 0 && r != Unbounded {
				u.requested.Sub(e)
			}
		}

		missed = u.wip.Sub(missed)
		if missed == 0 {
			return
		}
	}
}

func (u *Unicast[T]) checkTerminated(done, empty bool, sub Subscriber[T]) bool {
	if u.cancelled.Load() {
		u.queue.Clear()
		return true
	}
	if done && empty {
		if err := u.err; err != nil {
			sub.OnError(err)
		} else {
			sub.OnComplete()
		}
		return true
	}
	return false
}
