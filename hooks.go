package flowz

import (
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Hooks receive protocol events that have no downstream to flow to: elements
// and errors arriving after a subscription terminated, invalid demand, and
// duplicate subscription attempts. They exist so that misbehaving producers
// are observable instead of silent.
//
// All fields are optional. A nil callback falls through to a structured log
// on Logger; a nil Logger discards. Timestamps come from Clock so tests can
// pin them.
//
//nolint:govet // fieldalignment: struct layout optimized for readability over memory
type Hooks struct {
	// Clock stamps every hook record. Defaults to RealClock.
	Clock Clock

	// Logger receives the default structured records. Defaults to a Nop
	// logger; install a real one with SetLogger.
	Logger *zap.Logger

	// NextDropped is invoked for each element discarded after termination.
	NextDropped func(value any, at time.Time)

	// ErrorDropped is invoked for each error discarded after termination.
	ErrorDropped func(err error, at time.Time)

	// BadRequest is invoked when a subscription receives demand n <= 0.
	BadRequest func(n int64, at time.Time)

	// DuplicateSubscription is invoked when a subscriber that is already
	// subscribed receives a second OnSubscribe.
	DuplicateSubscription func(at time.Time)
}

var activeHooks = atomic.NewPointer(defaultHooks())

func defaultHooks() *Hooks {
	return &Hooks{Clock: RealClock, Logger: zap.NewNop()}
}

// SetHooks installs h process-wide. Zero fields keep their defaults.
// Safe for concurrent use; in-flight signals may still observe the
// previous hook set.
func SetHooks(h Hooks) {
	if h.Clock == nil {
		h.Clock = RealClock
	}
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	activeHooks.Store(&h)
}

// SetLogger replaces only the hook logger, keeping callbacks intact.
// A nil logger discards.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := *activeHooks.Load()
	h.Logger = logger
	activeHooks.Store(&h)
}

// ResetHooks restores the default hook set.
func ResetHooks() {
	activeHooks.Store(defaultHooks())
}

func dropNext(value any) {
	h := activeHooks.Load()
	if h.NextDropped != nil {
		h.NextDropped(value, h.Clock.Now())
		return
	}
	h.Logger.Warn("element dropped after termination",
		zap.Any("value", value),
		zap.Time("at", h.Clock.Now()))
}

func dropError(err error) {
	h := activeHooks.Load()
	if h.ErrorDropped != nil {
		h.ErrorDropped(err, h.Clock.Now())
		return
	}
	h.Logger.Warn("error dropped after termination",
		zap.Error(err),
		zap.Time("at", h.Clock.Now()))
}

func badRequest(n int64) {
	h := activeHooks.Load()
	if h.BadRequest != nil {
		h.BadRequest(n, h.Clock.Now())
		return
	}
	h.Logger.Warn("non-positive demand requested",
		zap.Int64("n", n),
		zap.Time("at", h.Clock.Now()))
}

func duplicateSubscription() {
	h := activeHooks.Load()
	if h.DuplicateSubscription != nil {
		h.DuplicateSubscription(h.Clock.Now())
		return
	}
	h.Logger.Warn("subscription already set, cancelling the newcomer",
		zap.Time("at", h.Clock.Now()))
}
