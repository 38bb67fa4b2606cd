package remind

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the planner on a cron spec and logs due reminders.
type Scheduler struct {
	cronEngine *cron.Cron
	planner    *Planner
	src        CycleSource
	spec       string
	logger     *slog.Logger
}

// NewScheduler creates a Scheduler firing per cronSpec (standard
// 5-field spec, local time).
func NewScheduler(planner *Planner, src CycleSource, cronSpec string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		planner:    planner,
		src:        src,
		spec:       cronSpec,
		logger:     logger,
	}
}

// Start registers the cron job and runs until ctx is cancelled. The
// planner also runs once immediately so a fresh start reports anything
// already due.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.runOnce); err != nil {
		return fmt.Errorf("adding reminder cron job %q: %w", s.spec, err)
	}

	s.logger.Info("reminder scheduler started", "spec", s.spec)
	s.runOnce()
	s.cronEngine.Start()

	<-ctx.Done()

	stopCtx := s.cronEngine.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("reminder job did not finish before shutdown timeout")
	}
	s.logger.Info("reminder scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce() {
	due, err := s.planner.Upcoming(s.src, time.Now())
	if err != nil {
		s.logger.Error("planning reminders failed", "error", err)
		return
	}
	if len(due) == 0 {
		s.logger.Info("no reminders due")
		return
	}
	for _, r := range due {
		s.logger.Info("reminder due",
			"profile", shortID(r.ProfileID),
			"kind", string(r.Kind),
			"due", r.Due.Format("2006-01-02"),
			"message", r.Message,
		)
	}
}
