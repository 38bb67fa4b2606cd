package remind

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

type mockSource struct {
	profiles []storage.Profile
	cycles   map[string][]storage.Cycle
}

func (m *mockSource) ListProfiles() ([]storage.Profile, error) {
	return m.profiles, nil
}

func (m *mockSource) ListCycles(profileID string) ([]storage.Cycle, error) {
	return m.cycles[profileID], nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpcoming_WindowFiltering(t *testing.T) {
	src := &mockSource{
		profiles: []storage.Profile{{ID: "p-1"}},
		cycles: map[string][]storage.Cycle{
			"p-1": {
				{ProfileID: "p-1", Seq: 1, StartDate: day(2024, time.January, 2), BleedDays: 4},  // fully past
				{ProfileID: "p-1", Seq: 2, StartDate: day(2024, time.January, 12), BleedDays: 4}, // start + end in window
				{ProfileID: "p-1", Seq: 3, StartDate: day(2024, time.January, 25), BleedDays: 4}, // beyond horizon
			},
		},
	}

	now := day(2024, time.January, 10)
	due, err := NewPlanner(7).Upcoming(src, now)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}

	if len(due) != 3 {
		t.Fatalf("expected 3 reminders, got %d: %+v", len(due), due)
	}
	if due[0].Kind != KindLogStart || !due[0].Due.Equal(day(2024, time.January, 12)) {
		t.Errorf("first reminder = %+v, want log_start on 2024-01-12", due[0])
	}
	if due[1].Kind != KindConfirm || !due[1].Due.Equal(day(2024, time.January, 15)) {
		t.Errorf("second reminder = %+v, want confirm on 2024-01-15", due[1])
	}
	if due[2].Kind != KindLogEnd || !due[2].Due.Equal(day(2024, time.January, 16)) {
		t.Errorf("third reminder = %+v, want log_end on 2024-01-16", due[2])
	}
}

func TestUpcoming_EndWithoutStart(t *testing.T) {
	// Bleeding began before now but is still running; the start is
	// already past, the confirm and end still fall inside the window.
	src := &mockSource{
		profiles: []storage.Profile{{ID: "p-1"}},
		cycles: map[string][]storage.Cycle{
			"p-1": {
				{ProfileID: "p-1", Seq: 1, StartDate: day(2024, time.January, 9), BleedDays: 5},
			},
		},
	}

	due, err := NewPlanner(7).Upcoming(src, day(2024, time.January, 10))
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}

	if len(due) != 2 {
		t.Fatalf("expected 2 reminders, got %d: %+v", len(due), due)
	}
	if due[0].Kind != KindConfirm || !due[0].Due.Equal(day(2024, time.January, 12)) {
		t.Errorf("first reminder = %+v, want confirm on 2024-01-12", due[0])
	}
	if due[1].Kind != KindLogEnd || !due[1].Due.Equal(day(2024, time.January, 14)) {
		t.Errorf("second reminder = %+v, want log_end on 2024-01-14", due[1])
	}
}

func TestUpcoming_FractionalBleedRoundsUp(t *testing.T) {
	src := &mockSource{
		profiles: []storage.Profile{{ID: "p-1"}},
		cycles: map[string][]storage.Cycle{
			"p-1": {
				{ProfileID: "p-1", Seq: 1, StartDate: day(2024, time.January, 12), BleedDays: 3.2},
			},
		},
	}

	due, err := NewPlanner(10).Upcoming(src, day(2024, time.January, 10))
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}

	var end *Reminder
	for i := range due {
		if due[i].Kind == KindLogEnd {
			end = &due[i]
		}
	}
	if end == nil {
		t.Fatal("no log_end reminder produced")
	}
	if !end.Due.Equal(day(2024, time.January, 16)) {
		t.Errorf("end due = %s, want 2024-01-16 (ceil of 3.2 days)", end.Due.Format("2006-01-02"))
	}
}

func TestUpcoming_SortedAcrossProfiles(t *testing.T) {
	src := &mockSource{
		profiles: []storage.Profile{{ID: "p-b"}, {ID: "p-a"}},
		cycles: map[string][]storage.Cycle{
			"p-a": {{ProfileID: "p-a", Seq: 1, StartDate: day(2024, time.January, 11), BleedDays: 0}},
			"p-b": {{ProfileID: "p-b", Seq: 1, StartDate: day(2024, time.January, 13), BleedDays: 0}},
		},
	}

	due, err := NewPlanner(7).Upcoming(src, day(2024, time.January, 10))
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}

	for i := 1; i < len(due); i++ {
		if due[i].Due.Before(due[i-1].Due) {
			t.Errorf("reminders not sorted: %+v", due)
		}
	}
	if len(due) == 0 || due[0].ProfileID != "p-a" {
		t.Errorf("expected p-a first, got %+v", due)
	}
}

func TestUpcoming_Empty(t *testing.T) {
	due, err := NewPlanner(7).Upcoming(&mockSource{}, day(2024, time.January, 10))
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected no reminders, got %d", len(due))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_InvalidSpec(t *testing.T) {
	sched := NewScheduler(NewPlanner(7), &mockSource{}, "not a cron spec", discardLogger())

	if err := sched.Start(context.Background()); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sched := NewScheduler(NewPlanner(7), &mockSource{}, "0 9 * * *", discardLogger())

	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
