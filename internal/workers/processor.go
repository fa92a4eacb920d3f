package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/queue"
	"github.com/enp09/duende/internal/services/ai"
	"github.com/enp09/duende/internal/services/analysis"
	"github.com/enp09/duende/internal/services/calendar"
)

// DefaultLockRetryDelay is how long an analysis job waits when another run holds the lock.
const DefaultLockRetryDelay = 30 * time.Second

// CalendarSyncer pulls a user's events into the store.
type CalendarSyncer interface {
	Sync(ctx context.Context, userID uuid.UUID) (int, error)
}

// CalendarAnalyzer runs threshold analysis for a user.
type CalendarAnalyzer interface {
	Analyze(ctx context.Context, userID uuid.UUID) (*analysis.Result, error)
}

// CalendarProcessor handles calendar_sync and calendar_analysis jobs.
type CalendarProcessor struct {
	syncer         CalendarSyncer
	analyzer       CalendarAnalyzer
	jobQueue       queue.JobQueue
	logger         *zap.Logger
	now            func() time.Time
	lockRetryDelay time.Duration
}

// NewCalendarProcessor creates a processor. jobQueue is used for follow-up and
// delayed retry jobs.
func NewCalendarProcessor(syncer CalendarSyncer, analyzer CalendarAnalyzer, jobQueue queue.JobQueue, logger *zap.Logger) *CalendarProcessor {
	return &CalendarProcessor{
		syncer:         syncer,
		analyzer:       analyzer,
		jobQueue:       jobQueue,
		logger:         logger,
		now:            time.Now,
		lockRetryDelay: DefaultLockRetryDelay,
	}
}

// ProcessJob dispatches a delivered job by type and acknowledges it. A returned
// error has already been reflected in the message's ack state.
func (p *CalendarProcessor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeCalendarSync:
		return p.processSync(ctx, msg, job)
	case queue.JobTypeCalendarAnalysis:
		return p.processAnalysis(ctx, msg, job)
	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *CalendarProcessor) processSync(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	n, err := p.syncer.Sync(ctx, job.UserID)
	switch {
	case errors.Is(err, calendar.ErrCalendarNotConnected), errors.Is(err, database.ErrNotFound):
		p.logger.Info("calendar_sync_skipped",
			zap.String("job_id", job.ID.String()),
			zap.String("user_id", job.UserID.String()),
			zap.String("reason", err.Error()),
		)
		return p.ack(msg, job)
	case calendar.IsUnauthorized(err):
		p.logger.Warn("calendar_reauth_required",
			zap.String("job_id", job.ID.String()),
			zap.String("user_id", job.UserID.String()),
		)
		return p.ack(msg, job)
	case err != nil:
		return p.handleJobError(ctx, msg, job, err)
	}

	if err := p.jobQueue.Enqueue(ctx, job.FollowUp(queue.JobTypeCalendarAnalysis)); err != nil {
		return p.handleJobError(ctx, msg, job, fmt.Errorf("failed to enqueue analysis: %w", err))
	}

	p.logger.Info("calendar_sync_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int("events", n),
	)
	return p.ack(msg, job)
}

func (p *CalendarProcessor) processAnalysis(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	result, err := p.analyzer.Analyze(ctx, job.UserID)
	switch {
	case errors.Is(err, analysis.ErrAnalysisInProgress):
		return p.deferLocked(ctx, msg, job)
	case errors.Is(err, analysis.ErrUserNotFound):
		p.logger.Info("calendar_analysis_skipped",
			zap.String("job_id", job.ID.String()),
			zap.String("user_id", job.UserID.String()),
			zap.String("reason", "user not found"),
		)
		return p.ack(msg, job)
	case err != nil:
		return p.handleJobError(ctx, msg, job, err)
	}

	p.logger.Info("calendar_analysis_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int("violations", result.Count),
		zap.Int("suggestions", len(result.Suggestions)),
	)
	return p.ack(msg, job)
}

// deferLocked re-enqueues an analysis job that lost the per-user lock race. When
// retries run out the job is dropped, since the lock holder is doing the same work.
func (p *CalendarProcessor) deferLocked(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	if !job.CanRetry() {
		p.logger.Info("calendar_analysis_dropped_locked", zap.String("job_id", job.ID.String()))
		return p.ack(msg, job)
	}
	retry := job.Retry(p.now().Add(p.lockRetryDelay))
	if err := p.jobQueue.Enqueue(ctx, retry); err != nil {
		p.nack(msg, job, true)
		return fmt.Errorf("analysis locked, failed to re-enqueue: %w", err)
	}
	p.logger.Debug("calendar_analysis_deferred",
		zap.String("job_id", job.ID.String()),
		zap.Time("not_before", *retry.NotBefore),
	)
	return p.ack(msg, job)
}

// handleJobError retries a failed job with backoff through a delayed re-enqueue, or
// dead-letters it once retries are exhausted.
func (p *CalendarProcessor) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("user_id", job.UserID.String()),
		zap.Int("attempt", job.RetryCount+1),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	}

	if !job.CanRetry() {
		p.logger.Error("job_dead_lettered", fields...)
		p.nack(msg, job, false)
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	delay := ai.GetRetryDelay(err, job.RetryCount)
	retry := job.Retry(p.now().Add(delay))
	if enqueueErr := p.jobQueue.Enqueue(ctx, retry); enqueueErr != nil {
		p.logger.Error("job_retry_enqueue_failed", append(fields, zap.NamedError("enqueue_error", enqueueErr))...)
		p.nack(msg, job, true)
		return fmt.Errorf("job failed, re-enqueue failed: %w", enqueueErr)
	}

	p.logger.Warn("job_retry_scheduled", append(fields, zap.Duration("delay", delay))...)
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
	}
	return fmt.Errorf("job failed (will retry): %w", err)
}

func (p *CalendarProcessor) ack(msg queue.MessageInterface, job *queue.Job) error {
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job %s: %w", job.ID, err)
	}
	return nil
}

func (p *CalendarProcessor) nack(msg queue.MessageInterface, job *queue.Job, requeue bool) {
	if err := msg.Nack(requeue); err != nil {
		p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

// Run consumes messages until ctx is cancelled or the delivery channel closes.
func (p *CalendarProcessor) Run(ctx context.Context, messages <-chan queue.MessageInterface, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-messages:
			if !ok {
				p.logger.Info("message_channel_closed")
				return
			}
			if err := p.ProcessJob(ctx, msg); err != nil {
				job := msg.GetJob()
				p.logger.Error("job_processing_failed",
					zap.Error(err),
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
				)
			}
		}
	}
}
