package cycle

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

func TestAnomaly_FrequencyConvergesToP(t *testing.T) {
	const p = 0.5
	const trials = 10000

	rng := rand.New(rand.NewPCG(1, 2))
	profile := &Profile{
		CycleLength: constSampler(28),
		BleedLength: constSampler(5),
		Hook:        NewAnomaly(p, 2, 3, "anomalous", rng),
	}

	records := NewGenerator().Generate(profile, date(2024, time.January, 1), trials, 0)

	noted := 0
	for _, rec := range records {
		if rec.Note != "" {
			noted++
		}
	}

	frac := float64(noted) / trials
	if math.Abs(frac-p) > 0.02 {
		t.Errorf("anomaly fraction = %.4f, want %.2f +- 0.02", frac, p)
	}
}

func TestAnomaly_StretchWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	profile := &Profile{
		CycleLength: constSampler(28),
		BleedLength: constSampler(5),
	}
	hook := NewAnomaly(1.0, 2, 3, "anomalous", rng)

	for i := 0; i < 100; i++ {
		ov, ok := hook.Fire(profile)
		if !ok {
			t.Fatalf("hook with p=1 did not fire on attempt %d", i)
		}
		if ov.CycleDays < 2*28 || ov.CycleDays > 3*28 {
			t.Errorf("stretched cycle = %.2f days, want within [56, 84]", ov.CycleDays)
		}
		if ov.BleedDays != 5 {
			t.Errorf("override bleed = %v, want fresh draw 5", ov.BleedDays)
		}
		if ov.Note != "anomalous" {
			t.Errorf("note = %q, want %q", ov.Note, "anomalous")
		}
	}
}

func TestAnomaly_NeverFiresAtZeroP(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	profile := &Profile{
		CycleLength: constSampler(28),
		BleedLength: constSampler(5),
	}
	hook := NewAnomaly(0, 2, 3, "anomalous", rng)

	for i := 0; i < 1000; i++ {
		if _, ok := hook.Fire(profile); ok {
			t.Fatalf("hook with p=0 fired on attempt %d", i)
		}
	}
}
