// Package analysis runs the threshold detector for a user and turns its
// violations into deduplicated suggestions.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/detector"
	"github.com/enp09/duende/internal/models"
)

// ErrUserNotFound is returned when the analyzed user does not exist.
var ErrUserNotFound = errors.New("user not found")

const (
	DefaultWindow        = 7 * 24 * time.Hour
	DefaultDedupWindow   = 24 * time.Hour
	DefaultSuggestionTTL = 48 * time.Hour
	DefaultLockTTL       = 30 * time.Second
)

// Options tunes a Service. Zero values use the package defaults.
type Options struct {
	Window          time.Duration
	DedupWindow     time.Duration
	SuggestionTTL   time.Duration
	LockTTL         time.Duration
	DefaultLocation *time.Location
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.DedupWindow <= 0 {
		o.DedupWindow = DefaultDedupWindow
	}
	if o.SuggestionTTL <= 0 {
		o.SuggestionTTL = DefaultSuggestionTTL
	}
	if o.LockTTL <= 0 {
		o.LockTTL = DefaultLockTTL
	}
	if o.DefaultLocation == nil {
		o.DefaultLocation = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Result is the outcome of one analysis run.
type Result struct {
	Violations  []models.Violation   `json:"violations"`
	Suggestions []*models.Suggestion `json:"suggestions"`
	Count       int                  `json:"count"`
}

// Service analyzes a user's upcoming calendar.
type Service struct {
	users       database.UserRepositoryInterface
	settings    database.SettingsRepositoryInterface
	events      database.CalendarEventRepositoryInterface
	suggestions database.SuggestionRepositoryInterface
	locker      Locker
	logger      *zap.Logger
	tracer      trace.Tracer
	opts        Options
}

// NewService creates an analysis service.
func NewService(
	users database.UserRepositoryInterface,
	settings database.SettingsRepositoryInterface,
	events database.CalendarEventRepositoryInterface,
	suggestions database.SuggestionRepositoryInterface,
	locker Locker,
	logger *zap.Logger,
	opts Options,
) *Service {
	return &Service{
		users:       users,
		settings:    settings,
		events:      events,
		suggestions: suggestions,
		locker:      locker,
		logger:      logger,
		tracer:      otel.Tracer("github.com/enp09/duende/internal/services/analysis"),
		opts:        opts.withDefaults(),
	}
}

// Analyze detects violations in the user's next analysis window and records a
// suggestion for each, reusing pending suggestions of the same type created within
// the dedup window. With a Locker, concurrent calls for one user fail with
// ErrAnalysisInProgress.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	started := s.opts.Now()

	if s.locker != nil {
		unlock, err := s.locker.Acquire(ctx, userID.String(), s.opts.LockTTL)
		if err != nil {
			recordError(span, err)
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("analysis_unlock_failed", zap.String("user_id", userID.String()), zap.Error(err))
			}
		}()
	}

	violations, err := s.Preview(ctx, userID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	now := s.opts.Now()
	suggestions, created, err := s.recordSuggestions(ctx, userID, violations, now)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("analysis.violations", len(violations)),
		attribute.Int("analysis.suggestions_created", created),
	)
	s.logger.Info("analysis_completed",
		zap.String("user_id", userID.String()),
		zap.Int("violations", len(violations)),
		zap.Int("suggestions_created", created),
		zap.Int("suggestions_reused", len(suggestions)-created),
		zap.Duration("duration", s.opts.Now().Sub(started)),
	)

	return &Result{
		Violations:  violations,
		Suggestions: suggestions,
		Count:       len(violations),
	}, nil
}

// Preview loads the user's settings and upcoming events and runs the detector
// without recording anything.
func (s *Service) Preview(ctx context.Context, userID uuid.UUID) ([]models.Violation, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	settings, err := s.settings.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	now := s.opts.Now()
	events, err := s.events.ListByUserBetween(ctx, userID, now, now.Add(s.opts.Window))
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar events: %w", err)
	}

	loc := user.Location(s.opts.DefaultLocation)
	localized := make([]models.CalendarEvent, len(events))
	for i := range events {
		localized[i] = events[i].In(loc)
	}

	s.logger.Debug("analysis_events_loaded",
		zap.String("user_id", userID.String()),
		zap.Int("events", len(localized)),
		zap.String("timezone", loc.String()),
		zap.Bool("has_settings", settings != nil),
	)

	return detector.Detect(localized, detector.ConfigFromSettings(settings)), nil
}

// recordSuggestions processes violations in order so a second violation of the same
// type in one run reuses the suggestion created for the first.
func (s *Service) recordSuggestions(ctx context.Context, userID uuid.UUID, violations []models.Violation, now time.Time) ([]*models.Suggestion, int, error) {
	since := now.Add(-s.opts.DedupWindow)
	suggestions := make([]*models.Suggestion, 0, len(violations))
	created := 0

	for _, v := range violations {
		existing, err := s.suggestions.FindRecentPending(ctx, userID, v.Type, since)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to check existing suggestions: %w", err)
		}
		if existing != nil {
			suggestions = append(suggestions, existing)
			continue
		}

		suggestion := models.NewSuggestionFromViolation(userID, v, now, s.opts.SuggestionTTL)
		if err := s.suggestions.Create(ctx, suggestion); err != nil {
			return nil, 0, fmt.Errorf("failed to create suggestion: %w", err)
		}
		suggestions = append(suggestions, suggestion)
		created++
	}

	return suggestions, created, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
