package scheduler

import (
	"fmt"
	"time"

	"clan-rental-backend/internal/config"
	"clan-rental-backend/internal/jobs"
	"clan-rental-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler and registers every job that has a
// schedule in cfg.
func NewScheduler(jobRunner *jobs.JobRunner, cfg config.SchedulerConfig) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs(cfg config.SchedulerConfig) error {
	schedules := map[string]string{
		jobs.JobSendOverdueReminders: cfg.SendOverdueReminders,
	}

	for name, spec := range schedules {
		if spec == "" {
			logger.Warn("Job has no schedule, skipping", "job", name)
			continue
		}
		if _, err := s.cron.AddFunc(spec, s.jobs.Func(name)); err != nil {
			return fmt.Errorf("register job %s with schedule %q: %w", name, spec, err)
		}
		logger.Info("Registered cron job", "job", name, "schedule", spec)
	}
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
