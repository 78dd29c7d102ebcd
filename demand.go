package flowz

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Sentinel errors surfaced through subscriber OnError signals.
var (
	// ErrNilQueue reports a QueueSupplier that returned a nil queue
	// without an error.
	ErrNilQueue = errors.New("flowz: queue supplier returned a nil queue")

	// ErrMultipleSubscribers reports a second Subscribe on a
	// single-subscriber publisher.
	ErrMultipleSubscribers = errors.New("flowz: publisher allows only one subscriber")

	// ErrOverflow reports an element that could not be buffered because
	// the backing queue was full.
	ErrOverflow = errors.New("flowz: queue overflow, consumer is too slow")
)

// addCap returns a + b, saturating at Unbounded.
func addCap(a, b int64) int64 {
	sum := a + b
	if sum < 0 {
		return Unbounded
	}
	return sum
}

// mulCap returns a * b, saturating at Unbounded.
func mulCap(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	product := a * b
	if product/b != a || product < 0 {
		return Unbounded
	}
	return product
}

// addCapTo atomically adds n to v, saturating at Unbounded.
func addCapTo(v *atomic.Int64, n int64) {
	for {
		r := v.Load()
		if r == Unbounded {
			return
		}
		if v.CAS(r, addCap(r, n)) {
			return
		}
	}
}

// validRequest reports whether n is legal demand. Invalid demand is routed
// to the bad-request hook; the caller must treat it as a no-op.
func validRequest(n int64) bool {
	if n <= 0 {
		badRequest(n)
		return false
	}
	return true
}

// validateSubscription enforces set-before-signal: the first subscription
// wins, later ones are cancelled and reported as duplicates.
func validateSubscription(current, next Subscription) bool {
	if current != nil {
		next.Cancel()
		duplicateSubscription()
		return false
	}
	return true
}

// inertSubscription accepts and ignores all demand. It backs subscriptions
// that terminate before any element can flow.
type inertSubscription struct{}

func (inertSubscription) Request(n int64) { validRequest(n) }
func (inertSubscription) Cancel()         {}

// errorTo terminates sub immediately: OnSubscribe with an inert
// subscription, then OnError. Used for subscribe-time failures that must
// not touch upstream.
func errorTo[T any](sub Subscriber[T], err error) {
	sub.OnSubscribe(inertSubscription{})
	sub.OnError(err)
}

// completeTo terminates sub immediately with an empty sequence.
func completeTo[T any](sub Subscriber[T]) {
	sub.OnSubscribe(inertSubscription{})
	sub.OnComplete()
}
