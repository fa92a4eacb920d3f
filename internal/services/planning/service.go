// Package planning stores the weekly planning answers and the protection blocks
// the user reserves for the current week.
package planning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
)

var (
	// ErrUserNotFound is returned when the planning user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidBlock is returned when a protection block cannot be placed in the week.
	ErrInvalidBlock = errors.New("invalid protection block")
)

// NutritionProtectedLunch is the nutrition answer reported when the user wants a protected lunch.
const NutritionProtectedLunch = "protected lunch"

// Options tunes a Service. Zero values use UTC and the wall clock.
type Options struct {
	DefaultLocation *time.Location
	Now             func() time.Time
}

// Plan is the current week's planning state.
type Plan struct {
	Answers          models.PlanningAnswers   `json:"answers"`
	ProtectionBlocks []models.ProtectionBlock `json:"protection_blocks"`
	HasExistingData  bool                     `json:"has_existing_data"`
}

// Service saves and loads weekly plans.
type Service struct {
	users      database.UserRepositoryInterface
	settings   database.SettingsRepositoryInterface
	blocks     database.ProtectionBlockRepositoryInterface
	intentions database.IntentionRepositoryInterface
	logger     *zap.Logger
	tracer     trace.Tracer
	opts       Options
}

// NewService creates a planning service.
func NewService(
	users database.UserRepositoryInterface,
	settings database.SettingsRepositoryInterface,
	blocks database.ProtectionBlockRepositoryInterface,
	intentions database.IntentionRepositoryInterface,
	logger *zap.Logger,
	opts Options,
) *Service {
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		users:      users,
		settings:   settings,
		blocks:     blocks,
		intentions: intentions,
		logger:     logger,
		tracer:     otel.Tracer("github.com/enp09/duende/internal/services/planning"),
		opts:       opts,
	}
}

// Save applies answers to the user's settings and records a weekly intention when one
// is given. A non-nil blocks slice replaces this week's protection blocks, so an empty
// slice clears them. It returns the number of blocks saved.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, answers *models.PlanningAnswers, blocks []models.ProtectionBlock) (int, error) {
	ctx, span := s.tracer.Start(ctx, "planning.Save", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("planning.blocks", len(blocks)),
	))
	defer span.End()

	weekStart, err := s.weekStart(ctx, userID)
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	// Blocks are converted before any write.
	var events []models.CalendarEvent
	if blocks != nil {
		events = make([]models.CalendarEvent, 0, len(blocks))
		for i, b := range blocks {
			e, err := b.ProtectionEvent(userID, weekStart, i)
			if err != nil {
				err = fmt.Errorf("%w: %v", ErrInvalidBlock, err)
				recordError(span, err)
				return 0, err
			}
			events = append(events, e)
		}
	}

	if answers != nil {
		if err := s.saveAnswers(ctx, userID, weekStart, answers); err != nil {
			recordError(span, err)
			return 0, err
		}
	}

	saved := 0
	if blocks != nil {
		saved, err = s.blocks.ReplaceProtectionBlocks(ctx, userID, weekStart, events)
		if err != nil {
			recordError(span, err)
			return 0, fmt.Errorf("failed to save protection blocks: %w", err)
		}
	}

	s.logger.Info("planning_saved",
		zap.String("user_id", userID.String()),
		zap.Time("week_start", weekStart),
		zap.Bool("answers", answers != nil),
		zap.Int("saved_blocks", saved),
	)
	return saved, nil
}

func (s *Service) saveAnswers(ctx context.Context, userID uuid.UUID, weekStart time.Time, a *models.PlanningAnswers) error {
	settings, err := s.settings.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		settings = &models.UserSettings{UserID: userID}
	}

	lunch := strings.TrimSpace(a.Nutrition) != ""
	settings.MovementTypes = single(a.Movement)
	settings.WantsProtectedLunch = &lunch
	settings.DecompressMethods = single(a.Stress)
	settings.PassionProjects = single(a.Transcendence)
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if intention := strings.TrimSpace(a.Intentions); intention != "" {
		if err := s.intentions.Create(ctx, &models.Intention{
			UserID:         userID,
			DefaultSetting: models.DefaultSettingIntentions,
			Description:    intention,
			WeekStart:      weekStart,
			Status:         string(models.SuggestionStatusPending),
		}); err != nil {
			return fmt.Errorf("failed to save intention: %w", err)
		}
	}
	return nil
}

// Load returns this week's answers and protection blocks, read in the user's timezone.
func (s *Service) Load(ctx context.Context, userID uuid.UUID) (*Plan, error) {
	ctx, span := s.tracer.Start(ctx, "planning.Load", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	user, err := s.user(ctx, userID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	loc := user.Location(s.opts.DefaultLocation)
	weekStart := models.WeekStart(s.opts.Now().In(loc))

	settings, err := s.settings.GetByUserID(ctx, userID)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	intention, err := s.intentions.LatestSince(ctx, userID, weekStart)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to load intention: %w", err)
	}
	events, err := s.blocks.ListProtectionBlocks(ctx, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to load protection blocks: %w", err)
	}

	plan := &Plan{
		Answers:          answersFrom(settings, intention),
		ProtectionBlocks: make([]models.ProtectionBlock, 0, len(events)),
	}
	for i := range events {
		plan.ProtectionBlocks = append(plan.ProtectionBlocks, models.BlockFromEvent(events[i].In(loc)))
	}
	plan.HasExistingData = len(plan.ProtectionBlocks) > 0
	return plan, nil
}

func answersFrom(settings *models.UserSettings, intention *models.Intention) models.PlanningAnswers {
	var a models.PlanningAnswers
	if intention != nil {
		a.Intentions = intention.Description
	}
	if settings == nil {
		return a
	}
	a.Movement = first(settings.MovementTypes)
	if settings.WantsProtectedLunch != nil && *settings.WantsProtectedLunch {
		a.Nutrition = NutritionProtectedLunch
	}
	a.Stress = first(settings.DecompressMethods)
	a.Transcendence = first(settings.PassionProjects)
	return a
}

func (s *Service) weekStart(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	return models.WeekStart(s.opts.Now().In(user.Location(s.opts.DefaultLocation))), nil
}

func (s *Service) user(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func single(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return []string{}
	}
	return []string{v}
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
