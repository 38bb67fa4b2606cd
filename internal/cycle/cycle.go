// Package cycle implements the generative model for synthetic
// menstrual-cycle timelines: per-user samplers, the event hook that
// injects rare anomalies, and the generator that composes them into an
// ordered sequence of dated cycles.
package cycle

import "time"

// Sampler draws a duration in days. Every call is an independent fresh
// draw; implementations must not cache.
type Sampler func() float64

// Profile bundles one simulated user's samplers and optional event
// hook. A Profile is immutable after construction; the samplers are
// its only source of randomness and may be shared across multiple
// Generate calls for resampling.
type Profile struct {
	Description string
	CycleLength Sampler
	BleedLength Sampler
	Hook        EventHook
}

// Override is a complete replacement for one sampled cycle. A hook
// either returns a fully populated Override or reports none; the
// three fields are never meaningful in isolation.
type Override struct {
	CycleDays float64
	BleedDays float64
	Note      string
}

// EventHook is consulted exactly once per generated cycle, after the
// cycle's length and bleed have been sampled and before they are
// committed to the output.
type EventHook interface {
	Fire(p *Profile) (Override, bool)
}

// Record is one generated cycle. Records are pure output values;
// Start dates are strictly increasing within a generated sequence.
type Record struct {
	Start     time.Time
	BleedDays float64
	Note      string // empty when the cycle was unremarkable
}
