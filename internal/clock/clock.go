// Package clock provides an injectable time source so packages that
// classify activity windows, stamp export runs, or age out cached
// entries can be driven deterministically in tests.
package clock

import "time"

// Clock is the minimal time source the rest of the module depends on.
type Clock interface {
	Now() time.Time
}

// Real returns the system wall clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Fixed returns a Clock that always reports t, for deterministic tests
// against discovery's activity windows and export run timestamps.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }
