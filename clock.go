// Package flowz uses an injectable clock for every timestamp it records,
// keeping time-dependent behavior deterministic under test.
package flowz

import "github.com/zoobzio/clockz"

// Clock provides time operations for deterministic testing.
type Clock = clockz.Clock

// RealClock is the default Clock using standard time.
var RealClock Clock = clockz.RealClock
