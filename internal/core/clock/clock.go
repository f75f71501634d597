// Package clock abstracts wall-clock time so expiry checks and due-date
// defaults stay deterministic under test.
package clock

import "time"

// Clock is the time source injected into services that read "now".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the real wall clock (UTC).
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant. Zero value is usable.
type Fixed struct {
	Instant time.Time
}

// NewFixed creates a fixed clock at t.
func NewFixed(t time.Time) *Fixed { return &Fixed{Instant: t} }

func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }

// Set pins the fixed clock to t.
func (f *Fixed) Set(t time.Time) { f.Instant = t }
