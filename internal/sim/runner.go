// Package sim ties the generative core to persistence: deriving and
// storing profiles, and generating persisted cycle batches for them.
package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/simonwyatt/fake-menstruator/internal/cycle"
	"github.com/simonwyatt/fake-menstruator/internal/population"
	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

// RandomCycleDay tells GenerateBatch to pick the initial cycle day
// uniformly in [0, cycle_length), mimicking an anchor date that falls
// at an arbitrary point of an in-progress cycle.
const RandomCycleDay = -1

// ProfileStore is the storage surface the runner needs.
type ProfileStore interface {
	SaveProfile(p storage.Profile) error
	GetProfile(id string) (storage.Profile, error)
	SaveCycles(cycles []storage.Cycle) error
	NextSeq(profileID string) (int, error)
}

// Runner owns a random stream and a generator. It is not safe for
// concurrent use; parallel simulations each get their own Runner (see
// NewProfiles).
type Runner struct {
	store ProfileStore
	rng   *rand.Rand
	gen   *cycle.Generator
	clock cycle.Clock
}

// New creates a Runner drawing from rng.
func New(store ProfileStore, rng *rand.Rand) *Runner {
	return NewWithClock(store, rng, systemClock{})
}

// NewWithClock creates a Runner with a custom clock (for testing).
func NewWithClock(store ProfileStore, rng *rand.Rand, clock cycle.Clock) *Runner {
	return &Runner{
		store: store,
		rng:   rng,
		gen:   cycle.NewGeneratorWithClock(clock),
		clock: clock,
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewProfiles derives and persists n fresh profiles. Derivation runs
// in parallel workers, each owning a child random stream seeded from
// the Runner's stream so runs stay reproducible for a fixed seed.
func (r *Runner) NewProfiles(ctx context.Context, n int, label string) ([]storage.Profile, error) {
	if n <= 0 {
		return nil, fmt.Errorf("profile count must be positive, got %d", n)
	}

	// Seeds are drawn up front, in order, so the derived parameters do
	// not depend on goroutine scheduling.
	seeds := make([][2]uint64, n)
	for i := range seeds {
		seeds[i] = [2]uint64{r.rng.Uint64(), r.rng.Uint64()}
	}

	profiles := make([]storage.Profile, n)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			childRng := rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))
			params := population.Derive(childRng)
			rec := storage.Profile{
				ID:          uuid.NewString(),
				CreatedAt:   r.clock.Now(),
				Label:       label,
				Description: params.Describe(),
				CycleMu:     params.CycleMu,
				CycleSigma:  params.CycleSigma,
				BleedMu:     params.BleedMu,
				BleedSigma:  params.BleedSigma,
				AnomalyP:    params.AnomalyP,
			}
			mu.Lock()
			err := r.store.SaveProfile(rec)
			if err == nil {
				profiles[i] = rec
			}
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("saving profile: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// GenerateBatch rebuilds the samplers for a stored profile, generates
// count cycles, persists them with continuing sequence numbers, and
// returns the stored rows. A zero start anchors at the current date;
// initialCycleDay may be RandomCycleDay.
func (r *Runner) GenerateBatch(profileID string, start time.Time, count, initialCycleDay int) ([]storage.Cycle, error) {
	if count < 0 {
		return nil, fmt.Errorf("cycle count must be non-negative, got %d", count)
	}

	rec, err := r.store.GetProfile(profileID)
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", profileID, err)
	}

	profile := population.NewProfile(Params(rec), r.rng)

	if initialCycleDay == RandomCycleDay {
		initialCycleDay = r.randomCycleDay(profile)
	}

	records := r.gen.Generate(profile, start, count, initialCycleDay)

	seq, err := r.store.NextSeq(profileID)
	if err != nil {
		return nil, fmt.Errorf("computing next sequence: %w", err)
	}

	now := r.clock.Now()
	rows := make([]storage.Cycle, len(records))
	for i, c := range records {
		rows[i] = storage.Cycle{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			Seq:       seq + i,
			StartDate: c.Start,
			BleedDays: c.BleedDays,
			Note:      c.Note,
			CreatedAt: now,
		}
	}

	if err := r.store.SaveCycles(rows); err != nil {
		return nil, fmt.Errorf("saving cycles: %w", err)
	}
	return rows, nil
}

// randomCycleDay draws a day uniformly in [0, cycle_length) from one
// fresh cycle-length sample.
func (r *Runner) randomCycleDay(p *cycle.Profile) int {
	length := int(p.CycleLength())
	if length < 1 {
		return 0
	}
	return r.rng.IntN(length)
}

// Params converts a stored profile row back into derivation parameters.
func Params(p storage.Profile) population.Params {
	return population.Params{
		CycleMu:    p.CycleMu,
		CycleSigma: p.CycleSigma,
		BleedMu:    p.BleedMu,
		BleedSigma: p.BleedSigma,
		AnomalyP:   p.AnomalyP,
	}
}
