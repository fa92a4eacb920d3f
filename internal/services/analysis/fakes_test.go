package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
)

type fakeUsers struct {
	users map[uuid.UUID]*models.User
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: user %w", database.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) UpdateGoogleTokens(context.Context, uuid.UUID, string, *string, time.Time) error {
	return nil
}

func (f *fakeUsers) ListWithCalendarConnected(context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeSettings struct {
	settings map[uuid.UUID]*models.UserSettings
}

func (f *fakeSettings) GetByUserID(_ context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	return f.settings[userID], nil
}

func (f *fakeSettings) Upsert(_ context.Context, s *models.UserSettings) error {
	f.settings[s.UserID] = s
	return nil
}

type fakeEvents struct {
	events   []models.CalendarEvent
	err      error
	from, to time.Time
}

func (f *fakeEvents) Upsert(_ context.Context, e *models.CalendarEvent) error {
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeEvents) ListByUserBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CalendarEvent
	for _, e := range f.events {
		if e.UserID == userID && !e.StartTime.Before(from) && !e.StartTime.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeSuggestions struct {
	mu      sync.Mutex
	records []*models.Suggestion
}

func (f *fakeSuggestions) Create(_ context.Context, s *models.Suggestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeSuggestions) FindRecentPending(_ context.Context, userID uuid.UUID, typ models.ViolationType, since time.Time) (*models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *models.Suggestion
	for _, s := range f.records {
		if s.UserID != userID || s.Type != typ || s.Status != models.SuggestionStatusPending || s.CreatedAt.Before(since) {
			continue
		}
		if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
			newest = s
		}
	}
	return newest, nil
}

func (f *fakeSuggestions) ListPending(context.Context, uuid.UUID, time.Time) ([]*models.Suggestion, error) {
	return nil, nil
}

func (f *fakeSuggestions) GetByID(context.Context, uuid.UUID) (*models.Suggestion, error) {
	return nil, database.ErrNotFound
}

func (f *fakeSuggestions) UpdateStatus(context.Context, uuid.UUID, models.SuggestionStatus, *string, time.Time) (*models.Suggestion, error) {
	return nil, database.ErrNotFound
}

func (f *fakeSuggestions) SetDraftMessage(context.Context, uuid.UUID, string) error {
	return nil
}

var (
	_ database.UserRepositoryInterface          = (*fakeUsers)(nil)
	_ database.SettingsRepositoryInterface      = (*fakeSettings)(nil)
	_ database.CalendarEventRepositoryInterface = (*fakeEvents)(nil)
	_ database.SuggestionRepositoryInterface    = (*fakeSuggestions)(nil)
)
