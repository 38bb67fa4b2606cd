package population

import (
	"math/rand/v2"
	"testing"
)

func TestDerive_DeterministicForSeed(t *testing.T) {
	a := Derive(rand.New(rand.NewPCG(9, 9)))
	b := Derive(rand.New(rand.NewPCG(9, 9)))

	if a != b {
		t.Errorf("same seed produced different params: %+v vs %+v", a, b)
	}
}

func TestDerive_BleedStaysPopulationLevel(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 11))
	for i := 0; i < 50; i++ {
		p := Derive(rng)
		if p.BleedMu != BleedLengthMean || p.BleedSigma != BleedLengthStddev {
			t.Fatalf("bleed params personalized: %+v", p)
		}
		if p.AnomalyP != DefaultAnomalyP {
			t.Fatalf("anomaly p = %v, want %v", p.AnomalyP, DefaultAnomalyP)
		}
	}
}

func TestDerive_CycleParamsVaryAcrossUsers(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 13))
	a, b := Derive(rng), Derive(rng)

	if a.CycleMu == b.CycleMu && a.CycleSigma == b.CycleSigma {
		t.Errorf("two derived users share identical cycle params: %+v", a)
	}
}

func TestDescribe(t *testing.T) {
	p := Params{CycleMu: 29.3, CycleSigma: 2.6, BleedMu: 4.0, BleedSigma: 1.5}

	want := "Cycle length 29.3+-2.6 days; bleed length 4.0+-1.5 days."
	if got := p.Describe(); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestNewProfile_BindsSamplersAndHook(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 17))
	params := Params{CycleMu: 28, CycleSigma: 2, BleedMu: 4, BleedSigma: 1, AnomalyP: 0.025}

	p := NewProfile(params, rng)

	if p.Description != params.Describe() {
		t.Errorf("description = %q, want %q", p.Description, params.Describe())
	}
	if p.Hook == nil {
		t.Error("expected anomaly hook to be bound")
	}

	// Samplers must produce fresh draws each call.
	same := true
	first := p.CycleLength()
	for i := 0; i < 10; i++ {
		if p.CycleLength() != first {
			same = false
			break
		}
	}
	if same {
		t.Error("cycle sampler returned identical values across draws")
	}
}

func TestNewProfile_NoHookWhenPZero(t *testing.T) {
	rng := rand.New(rand.NewPCG(19, 19))
	p := NewProfile(Params{CycleMu: 28, CycleSigma: 2, BleedMu: 4, BleedSigma: 1}, rng)

	if p.Hook != nil {
		t.Error("expected no hook for zero anomaly probability")
	}
}

func TestDeriveProfile(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 23))
	profile, params := DeriveProfile(rng)

	if profile.Description != params.Describe() {
		t.Errorf("description %q does not match params %+v", profile.Description, params)
	}
}
