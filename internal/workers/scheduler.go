package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/queue"
)

// syncJobLifetime bounds how long a scheduled sync job stays valid in the queue.
const syncJobLifetime = 12 * time.Hour

// ConnectedUserLister lists users whose calendars can be synced.
type ConnectedUserLister interface {
	ListWithCalendarConnected(ctx context.Context) ([]uuid.UUID, error)
}

// Scheduler enqueues a calendar_sync job for every connected user on a cron schedule.
// Each sync job is followed by an analysis job once it completes.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	users    ConnectedUserLister
	jobQueue queue.JobQueue
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler validates spec (standard five-field cron syntax) and builds a scheduler
// evaluating it in loc.
func NewScheduler(spec string, loc *time.Location, users ConnectedUserLister, jobQueue queue.JobQueue, logger *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid analysis schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		users:    users,
		jobQueue: jobQueue,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start registers the schedule and starts the cron loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.ScheduleSyncJobs(ctx); err != nil {
			s.logger.Error("schedule_sync_jobs_failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler_started", zap.String("schedule", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// ScheduleSyncJobs enqueues one sync job per connected user and returns how many
// were enqueued. Failures for individual users are logged and skipped.
func (s *Scheduler) ScheduleSyncJobs(ctx context.Context) (int, error) {
	userIDs, err := s.users.ListWithCalendarConnected(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list connected users: %w", err)
	}

	notAfter := s.now().Add(syncJobLifetime)
	enqueued := 0
	for _, userID := range userIDs {
		job := queue.NewJob(queue.JobTypeCalendarSync, userID)
		job.NotAfter = &notAfter
		job.Metadata["trigger"] = "schedule"

		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			s.logger.Warn("failed_to_schedule_sync_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	s.logger.Info("scheduled_sync_jobs",
		zap.Int("user_count", len(userIDs)),
		zap.Int("enqueued", enqueued),
	)
	return enqueued, nil
}
