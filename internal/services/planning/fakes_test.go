package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
)

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
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
	upserts  int
}

func (f *fakeSettings) GetByUserID(_ context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	return f.settings[userID], nil
}

func (f *fakeSettings) Upsert(_ context.Context, s *models.UserSettings) error {
	f.upserts++
	f.settings[s.UserID] = s
	return nil
}

type fakeBlocks struct {
	events    []models.CalendarEvent
	weekStart time.Time
	replaces  int
	err       error
}

func (f *fakeBlocks) ReplaceProtectionBlocks(_ context.Context, userID uuid.UUID, weekStart time.Time, events []models.CalendarEvent) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.replaces++
	f.weekStart = weekStart
	kept := f.events[:0]
	for _, e := range f.events {
		if e.UserID != userID || e.StartTime.Before(weekStart) {
			kept = append(kept, e)
		}
	}
	f.events = append(kept, events...)
	return len(events), nil
}

func (f *fakeBlocks) ListProtectionBlocks(_ context.Context, userID uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	for _, e := range f.events {
		if e.UserID == userID && !e.StartTime.Before(from) && e.StartTime.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeIntentions struct {
	records []*models.Intention
}

func (f *fakeIntentions) Create(_ context.Context, in *models.Intention) error {
	in.ID = uuid.New()
	f.records = append(f.records, in)
	return nil
}

func (f *fakeIntentions) LatestSince(_ context.Context, userID uuid.UUID, since time.Time) (*models.Intention, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		in := f.records[i]
		if in.UserID == userID && !in.WeekStart.Before(since) {
			return in, nil
		}
	}
	return nil, nil
}
