// Package remind turns persisted cycles into a schedule of data-entry
// reminders, so chaff gets logged into the target app at believable
// times.
package remind

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

type Kind string

const (
	// KindLogStart: the profile's next cycle begins; log a period start.
	KindLogStart Kind = "log_start"
	// KindLogEnd: bleeding ends; log the period as finished.
	KindLogEnd Kind = "log_end"
	// KindConfirm: a checkpoint a few days past the expected start to
	// verify the entry actually went into the target app.
	KindConfirm Kind = "confirm"
)

// confirmGraceDays is how long after an expected start the confirm
// checkpoint falls.
const confirmGraceDays = 3

// Reminder is one due data-entry action for one profile.
type Reminder struct {
	ProfileID string
	Kind      Kind
	Due       time.Time
	Message   string
}

// CycleSource is the storage surface the planner reads from.
type CycleSource interface {
	ListProfiles() ([]storage.Profile, error)
	ListCycles(profileID string) ([]storage.Cycle, error)
}

// Planner computes upcoming reminders from persisted cycles. It is
// pure: all state lives in storage, all time comes in as an argument.
type Planner struct {
	horizon time.Duration
}

// NewPlanner creates a Planner looking horizonDays ahead.
func NewPlanner(horizonDays int) *Planner {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	return &Planner{horizon: time.Duration(horizonDays) * 24 * time.Hour}
}

// Upcoming returns every reminder falling in [now, now+horizon),
// soonest first. Cycle starts before now are already logged (or
// missed) and are skipped; a bleed end can still fall in the window
// when its start does not.
func (p *Planner) Upcoming(src CycleSource, now time.Time) ([]Reminder, error) {
	profiles, err := src.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	limit := now.Add(p.horizon)
	var due []Reminder

	for _, prof := range profiles {
		cycles, err := src.ListCycles(prof.ID)
		if err != nil {
			return nil, fmt.Errorf("listing cycles for %s: %w", prof.ID, err)
		}
		for _, c := range cycles {
			if in(c.StartDate, now, limit) {
				due = append(due, Reminder{
					ProfileID: prof.ID,
					Kind:      KindLogStart,
					Due:       c.StartDate,
					Message: fmt.Sprintf("log period start for profile %s (cycle %d, %s)",
						shortID(prof.ID), c.Seq, c.StartDate.Format("2006-01-02")),
				})
			}
			end := c.StartDate.AddDate(0, 0, int(math.Ceil(c.BleedDays)))
			if in(end, now, limit) {
				due = append(due, Reminder{
					ProfileID: prof.ID,
					Kind:      KindLogEnd,
					Due:       end,
					Message: fmt.Sprintf("log period end for profile %s (cycle %d, %s)",
						shortID(prof.ID), c.Seq, end.Format("2006-01-02")),
				})
			}
			confirm := c.StartDate.AddDate(0, 0, confirmGraceDays)
			if in(confirm, now, limit) {
				due = append(due, Reminder{
					ProfileID: prof.ID,
					Kind:      KindConfirm,
					Due:       confirm,
					Message: fmt.Sprintf("confirm entry for profile %s went in (cycle %d expected to start %s)",
						shortID(prof.ID), c.Seq, c.StartDate.Format("2006-01-02")),
				})
			}
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].Due.Equal(due[j].Due) {
			return due[i].Due.Before(due[j].Due)
		}
		return due[i].ProfileID < due[j].ProfileID
	})
	return due, nil
}

func in(t, from, until time.Time) bool {
	return !t.Before(from) && t.Before(until)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
