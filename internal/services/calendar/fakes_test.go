package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
)

type tokenUpdate struct {
	userID  uuid.UUID
	access  string
	refresh *string
	expiry  time.Time
}

type fakeUsers struct {
	users   map[uuid.UUID]*models.User
	updates []tokenUpdate
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: user %w", database.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) UpdateGoogleTokens(_ context.Context, id uuid.UUID, access string, refresh *string, expiry time.Time) error {
	f.updates = append(f.updates, tokenUpdate{userID: id, access: access, refresh: refresh, expiry: expiry})
	return nil
}

func (f *fakeUsers) ListWithCalendarConnected(context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeEvents struct {
	stored []models.CalendarEvent
	err    error
}

func (f *fakeEvents) Upsert(_ context.Context, e *models.CalendarEvent) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, *e)
	return nil
}

func (f *fakeEvents) ListByUserBetween(context.Context, uuid.UUID, time.Time, time.Time) ([]models.CalendarEvent, error) {
	return f.stored, nil
}

type fakeProvider struct {
	events   []models.CalendarEvent
	err      error
	from, to time.Time
}

func (f *fakeProvider) FetchEvents(_ context.Context, _ *models.User, from, to time.Time) ([]models.CalendarEvent, error) {
	f.from, f.to = from, to
	return f.events, f.err
}

func strPtr(s string) *string { return &s }

func connectedUser(expiry *time.Time) *models.User {
	return &models.User{
		ID:                 uuid.New(),
		Email:              "maya@example.com",
		Timezone:           "America/New_York",
		GoogleAccessToken:  strPtr("stored-access"),
		GoogleRefreshToken: strPtr("stored-refresh"),
		GoogleTokenExpiry:  expiry,
	}
}
