package jobs

import (
	"context"
	"errors"
	"time"

	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/metrics"
	"clan-rental-backend/internal/service"
)

const JobSendOverdueReminders = "send-overdue-reminders"

var errJobPanicked = errors.New("job panicked")

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	// reminderWindow is the interval between reminder runs; each overdue
	// phase is reported only in the run that first sees it.
	reminderWindow time.Duration
	timeout        time.Duration
	now            func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Rental        service.RentalService
	Notifications service.NotificationService
	Email         service.EmailService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, reminderWindow time.Duration) *JobRunner {
	if reminderWindow <= 0 {
		reminderWindow = time.Hour
	}
	return &JobRunner{
		services:       services,
		reminderWindow: reminderWindow,
		timeout:        5 * time.Minute,
		now:            time.Now,
	}
}

// Jobs lists the job names accepted by Run.
func (jr *JobRunner) Jobs() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		JobSendOverdueReminders: jr.SendOverdueReminders,
	}
}

// Run executes one named job synchronously; used by --run-once.
func (jr *JobRunner) Run(ctx context.Context, name string) (bool, error) {
	fn, ok := jr.Jobs()[name]
	if !ok {
		return false, nil
	}
	return true, jr.runWithRecovery(ctx, name, fn)
}

// Func adapts a named job to the cron callback signature.
func (jr *JobRunner) Func(name string) func() {
	fn := jr.Jobs()[name]
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
		defer cancel()
		_ = jr.runWithRecovery(ctx, name, fn)
	}
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(ctx context.Context, jobName string, jobFunc func(ctx context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = errJobPanicked
		}
		metrics.RecordJobRun(jobName, time.Since(start), err == nil)
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}
