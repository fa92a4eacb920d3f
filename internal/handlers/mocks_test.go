package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
	"github.com/enp09/duende/internal/services/ai"
	"github.com/enp09/duende/internal/services/analysis"
)

type mockAnalyzer struct {
	analyzeFunc func(ctx context.Context, userID uuid.UUID) (*analysis.Result, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, userID uuid.UUID) (*analysis.Result, error) {
	return m.analyzeFunc(ctx, userID)
}

type mockUsers struct {
	users map[uuid.UUID]*models.User
	err   error
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) UpdateGoogleTokens(context.Context, uuid.UUID, string, *string, time.Time) error {
	return nil
}

func (m *mockUsers) ListWithCalendarConnected(context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

type mockSuggestions struct {
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*models.Suggestion, error)
	listPendingFunc  func(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Suggestion, error)
	updateStatusFunc func(ctx context.Context, id uuid.UUID, status models.SuggestionStatus, note *string, at time.Time) (*models.Suggestion, error)
	drafts           map[uuid.UUID]string
}

func (m *mockSuggestions) Create(context.Context, *models.Suggestion) error { return nil }

func (m *mockSuggestions) FindRecentPending(context.Context, uuid.UUID, models.ViolationType, time.Time) (*models.Suggestion, error) {
	return nil, nil
}

func (m *mockSuggestions) ListPending(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Suggestion, error) {
	return m.listPendingFunc(ctx, userID, now)
}

func (m *mockSuggestions) GetByID(ctx context.Context, id uuid.UUID) (*models.Suggestion, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockSuggestions) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SuggestionStatus, note *string, at time.Time) (*models.Suggestion, error) {
	return m.updateStatusFunc(ctx, id, status, note, at)
}

func (m *mockSuggestions) SetDraftMessage(_ context.Context, id uuid.UUID, message string) error {
	if m.drafts == nil {
		m.drafts = map[uuid.UUID]string{}
	}
	m.drafts[id] = message
	return nil
}

type mockGenerator struct {
	advocacy string
	alert    string
	err      error
	got      ai.MessageContext
}

func (m *mockGenerator) GenerateAdvocacyMessage(_ context.Context, mc ai.MessageContext) (string, error) {
	m.got = mc
	return m.advocacy, m.err
}

func (m *mockGenerator) GenerateThresholdAlert(_ context.Context, _ ai.MessageContext) (string, error) {
	return m.alert, m.err
}

type mockSyncer struct {
	syncFunc func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockSyncer) Sync(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.syncFunc(ctx, userID)
}

type mockEvents struct {
	events   []models.CalendarEvent
	err      error
	from, to time.Time
}

func (m *mockEvents) Upsert(context.Context, *models.CalendarEvent) error { return nil }

func (m *mockEvents) ListByUserBetween(_ context.Context, _ uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error) {
	m.from, m.to = from, to
	return m.events, m.err
}

type mockSettings struct {
	settings map[uuid.UUID]*models.UserSettings
}

func (m *mockSettings) GetByUserID(_ context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	return m.settings[userID], nil
}

func (m *mockSettings) Upsert(_ context.Context, s *models.UserSettings) error {
	m.settings[s.UserID] = s
	return nil
}

// decodeEnvelope decodes a response envelope, returning the data or error body.
func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}
