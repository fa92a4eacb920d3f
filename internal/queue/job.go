package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeCalendarSync pulls a user's upcoming events from their provider
	JobTypeCalendarSync JobType = "calendar_sync"
	// JobTypeCalendarAnalysis runs threshold detection over a user's stored events
	JobTypeCalendarAnalysis JobType = "calendar_analysis"
)

// DefaultMaxRetries is how many times a failed job is retried before dead-lettering.
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // earliest processing time, nil = immediate
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // latest processing time, nil = never expires
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	return j.ShouldProcessAt(time.Now())
}

// ShouldProcessAt reports whether now lies inside the job's [NotBefore, NotAfter] window.
func (j *Job) ShouldProcessAt(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.IsExpiredAt(now)
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	return j.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether now is past NotAfter.
func (j *Job) IsExpiredAt(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry returns a copy of the job scheduled for notBefore with the retry count bumped.
// The ID is kept so log lines for every attempt correlate.
func (j *Job) Retry(notBefore time.Time) *Job {
	next := *j
	next.NotBefore = &notBefore
	next.RetryCount++
	return &next
}

// FollowUp creates a new job of another type for the same user.
func (j *Job) FollowUp(jobType JobType) *Job {
	next := NewJob(jobType, j.UserID)
	next.Metadata["parent_job_id"] = j.ID.String()
	return next
}
