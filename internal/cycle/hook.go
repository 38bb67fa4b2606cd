package cycle

import "math/rand/v2"

// Anomaly is an EventHook that, with probability P per cycle, replaces
// the sampled cycle with a stretched one carrying an explanatory note.
// Each decision is independent of cycle index and prior firings.
//
// P should sit well above the real-world rate of the event being
// mimicked: the point is that the majority of such records in a
// poisoned dataset are chaff from this generator, not real users.
type Anomaly struct {
	P          float64
	StretchMin float64
	StretchMax float64
	Note       string

	rng *rand.Rand
}

// NewAnomaly builds an Anomaly drawing from rng. Stretch bounds are
// the multiplier range applied to a fresh cycle-length draw when the
// hook fires.
func NewAnomaly(p, stretchMin, stretchMax float64, note string, rng *rand.Rand) *Anomaly {
	return &Anomaly{
		P:          p,
		StretchMin: stretchMin,
		StretchMax: stretchMax,
		Note:       note,
		rng:        rng,
	}
}

// Fire implements EventHook. On a hit it resamples both durations from
// the profile, stretches the cycle length by U(StretchMin, StretchMax),
// and attaches the note.
func (a *Anomaly) Fire(p *Profile) (Override, bool) {
	if a.rng.Float64() >= a.P {
		return Override{}, false
	}
	stretch := a.StretchMin + a.rng.Float64()*(a.StretchMax-a.StretchMin)
	return Override{
		CycleDays: p.CycleLength() * stretch,
		BleedDays: p.BleedLength(),
		Note:      a.Note,
	}, true
}
