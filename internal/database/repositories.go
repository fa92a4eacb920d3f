package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/models"
)

// UserRepositoryInterface defines the user operations used by services
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateGoogleTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken *string, expiry time.Time) error
	ListWithCalendarConnected(ctx context.Context) ([]uuid.UUID, error)
}

// SettingsRepositoryInterface defines the settings operations used by services
type SettingsRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
}

// CalendarEventRepositoryInterface defines the calendar event operations used by services
type CalendarEventRepositoryInterface interface {
	Upsert(ctx context.Context, e *models.CalendarEvent) error
	ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error)
}

// ProtectionBlockRepositoryInterface defines the planned protection event operations used by services
type ProtectionBlockRepositoryInterface interface {
	ReplaceProtectionBlocks(ctx context.Context, userID uuid.UUID, weekStart time.Time, events []models.CalendarEvent) (int, error)
	ListProtectionBlocks(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error)
}

// IntentionRepositoryInterface defines the weekly intention operations used by services
type IntentionRepositoryInterface interface {
	Create(ctx context.Context, in *models.Intention) error
	LatestSince(ctx context.Context, userID uuid.UUID, since time.Time) (*models.Intention, error)
}

// SuggestionRepositoryInterface defines the suggestion operations used by services
type SuggestionRepositoryInterface interface {
	Create(ctx context.Context, s *models.Suggestion) error
	FindRecentPending(ctx context.Context, userID uuid.UUID, typ models.ViolationType, since time.Time) (*models.Suggestion, error)
	ListPending(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Suggestion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Suggestion, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SuggestionStatus, feedbackNote *string, at time.Time) (*models.Suggestion, error)
	SetDraftMessage(ctx context.Context, id uuid.UUID, message string) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface          = (*UserRepository)(nil)
	_ SettingsRepositoryInterface      = (*SettingsRepository)(nil)
	_ CalendarEventRepositoryInterface = (*CalendarEventRepository)(nil)
	_ SuggestionRepositoryInterface    = (*SuggestionRepository)(nil)

	_ ProtectionBlockRepositoryInterface = (*CalendarEventRepository)(nil)
	_ IntentionRepositoryInterface       = (*IntentionRepository)(nil)
)
