// Package population derives per-user distribution parameters from
// published population statistics and binds them into usable profiles.
package population

import (
	"fmt"
	"math/rand/v2"

	"github.com/simonwyatt/fake-menstruator/internal/cycle"
)

// Statistics from https://www.nature.com/articles/s41746-019-0152-7, table 2.
// These are the mu/sigma of all cycles in the study, not of each
// individual's own parameter distribution, which is what a hierarchical
// model really wants. Good enough for a first pass.
const (
	CycleLengthMean      = 29.3
	CycleLengthStddev    = 5.2
	CycleVariationMean   = 2.6
	CycleVariationStddev = 2.5
	BleedLengthMean      = 4.0
	BleedLengthStddev    = 1.5
)

// DefaultAnomalyP is the per-cycle probability of the incomplete
// pregnancy anomaly. It deliberately exceeds any real-world base rate
// so that most flagged records in a poisoned dataset are chaff.
const DefaultAnomalyP = 0.025

const (
	anomalyNote       = "Was pregnant, aborted or miscarried"
	anomalyStretchMin = 2
	anomalyStretchMax = 3
)

// Params are one simulated user's distribution parameters, everything
// needed to rebuild the user's samplers later.
type Params struct {
	CycleMu    float64
	CycleSigma float64
	BleedMu    float64
	BleedSigma float64
	AnomalyP   float64
}

// Derive draws one user's parameters hierarchically: the user's mean
// cycle length and own cycle-to-cycle variation come from the
// population-level Gaussians above. Bleed length stays at the
// population level rather than being personalized; changing that would
// alter the statistical shape the output must blend into.
func Derive(rng *rand.Rand) Params {
	return Params{
		CycleMu:    CycleLengthMean + CycleLengthStddev*rng.NormFloat64(),
		CycleSigma: CycleVariationMean + CycleVariationStddev*rng.NormFloat64(),
		BleedMu:    BleedLengthMean,
		BleedSigma: BleedLengthStddev,
		AnomalyP:   DefaultAnomalyP,
	}
}

// Describe summarizes the parameters for display.
func (p Params) Describe() string {
	return fmt.Sprintf("Cycle length %.1f+-%.1f days; bleed length %.1f+-%.1f days.",
		p.CycleMu, p.CycleSigma, p.BleedMu, p.BleedSigma)
}

// NewProfile binds Gaussian samplers for params to rng, along with the
// anomaly hook when AnomalyP is positive.
func NewProfile(params Params, rng *rand.Rand) *cycle.Profile {
	p := &cycle.Profile{
		Description: params.Describe(),
		CycleLength: gauss(rng, params.CycleMu, params.CycleSigma),
		BleedLength: gauss(rng, params.BleedMu, params.BleedSigma),
	}
	if params.AnomalyP > 0 {
		p.Hook = cycle.NewAnomaly(params.AnomalyP, anomalyStretchMin, anomalyStretchMax, anomalyNote, rng)
	}
	return p
}

// DeriveProfile derives a fresh user and binds their samplers in one step.
func DeriveProfile(rng *rand.Rand) (*cycle.Profile, Params) {
	params := Derive(rng)
	return NewProfile(params, rng), params
}

func gauss(rng *rand.Rand, mu, sigma float64) cycle.Sampler {
	return func() float64 {
		return mu + sigma*rng.NormFloat64()
	}
}
