// Package flowz provides type-safe, demand-driven stream processing
// primitives for Go: publishers, subscribers, and operators that carry
// backpressure end to end instead of relying on channel capacity alone.
//
// The core abstraction is the Publisher/Subscriber pair. A Subscriber
// attaches to a Publisher and receives a Subscription through which it
// signals demand with Request and releases interest with Cancel. A
// Publisher never emits more elements than have been requested, which
// makes flow control explicit in both directions of an operator chain.
//
// Basic usage:
//
//	source := flowz.FromSlice(1, 2, 3, 4, 5, 6, 7, 8)
//
//	// Re-chunk the stream into windows of 3 elements
//	windows := flowz.NewWindow(source, 3)
//
//	// Windows are buffered, so they can be read after the source is done
//	var ws []flowz.Publisher[int]
//	windows.Subscribe(flowz.Each(func(w flowz.Publisher[int]) {
//		ws = append(ws, w)
//	}))
//
//	for _, w := range ws {
//		items, _ := flowz.Collect(w)
//		fmt.Println(items) // [1 2 3], then [4 5 6], then [7 8]
//	}
//
// The package provides:
//   - Count-based windowing with exact, gapped, and overlapping strides
//   - A hot single-subscriber Unicast publisher backed by a bounded queue
//   - Bounded and unbounded FIFO queues
//   - Sources and sinks bridging publishers to slices and channels
//   - Process-wide hooks for signals dropped after termination
package flowz

import "math"

// Unbounded is the demand value at which request accounting saturates.
// Requesting Unbounded elements disables backpressure for that subscription.
const Unbounded = int64(math.MaxInt64)

// Subscription links one Subscriber to one Publisher. Both methods are safe
// to call from any goroutine and may be called concurrently with signal
// delivery.
type Subscription interface {
	// Request signals demand for up to n more elements. n must be positive;
	// invalid demand is reported to the bad-request hook and otherwise
	// ignored. Demand accumulates and saturates at Unbounded.
	Request(n int64)

	// Cancel releases the subscriber's interest. Idempotent. No further
	// elements are delivered after cancellation is observed.
	Cancel()
}

// Subscriber receives the signals of one subscription. The publisher
// guarantees OnSubscribe is called first, OnNext calls are serialized, and
// OnError/OnComplete is called at most once, after which no further signals
// follow.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// Publisher is a demand-driven source of elements.
type Publisher[T any] interface {
	// Subscribe attaches the subscriber and begins signal delivery with
	// OnSubscribe. Publishers in this package deliver signals on whichever
	// goroutine produces them; they do no scheduling of their own.
	Subscribe(sub Subscriber[T])
}

// Queue is the FIFO contract consumed by Unicast and the window operator.
// Implementations must be safe for one producer and one consumer operating
// concurrently.
type Queue[T any] interface {
	// Offer appends value, reporting false when the queue is at capacity.
	Offer(value T) bool

	// Poll removes and returns the head, reporting false when empty.
	Poll() (T, bool)

	// Empty reports whether the queue holds no elements.
	Empty() bool

	// Len returns the number of queued elements.
	Len() int

	// Clear discards all queued elements and releases their references.
	Clear()
}

// QueueSupplier produces a fresh queue for each new consumer. A supplier
// may fail with an error; returning a nil queue without an error is a
// contract violation surfaced as ErrNilQueue.
type QueueSupplier[T any] func() (Queue[T], error)
