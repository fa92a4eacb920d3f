package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/models"
)

type harness struct {
	svc        *Service
	userID     uuid.UUID
	settings   *fakeSettings
	blocks     *fakeBlocks
	intentions *fakeIntentions
	now        time.Time
}

func newHarness(t *testing.T, timezone string) *harness {
	t.Helper()

	userID := uuid.New()
	h := &harness{
		userID:     userID,
		settings:   &fakeSettings{settings: map[uuid.UUID]*models.UserSettings{}},
		blocks:     &fakeBlocks{},
		intentions: &fakeIntentions{},
		// Wednesday
		now: time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC),
	}
	users := &fakeUsers{users: map[uuid.UUID]*models.User{userID: {ID: userID, Email: "ana@example.com", Timezone: timezone}}}
	h.svc = NewService(users, h.settings, h.blocks, h.intentions, zap.NewNop(),
		Options{Now: func() time.Time { return h.now }})
	return h
}

func TestSave_StoresBlocksForCurrentWeek(t *testing.T) {
	h := newHarness(t, "UTC")

	blocks := []models.ProtectionBlock{
		{ID: "a", Title: "Morning Walk", Day: "Monday", StartTime: "08:00", EndTime: "08:30"},
		{ID: "b", Title: "Lunch", Day: "thursday", StartTime: "12:00", EndTime: "13:00"},
		{ID: "c", Day: "Sunday", StartTime: "10:00", EndTime: "12:00"},
	}
	saved, err := h.svc.Save(context.Background(), h.userID, nil, blocks)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.True(t, h.blocks.weekStart.Equal(weekStart))
	require.Len(t, h.blocks.events, 3)

	lunch := h.blocks.events[1]
	assert.Equal(t, "duende-b-1", lunch.ExternalID)
	assert.True(t, lunch.BlockedByDuende)
	assert.True(t, lunch.StartTime.Equal(time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)))

	sunday := h.blocks.events[2]
	assert.Equal(t, models.DefaultProtectionTitle, sunday.TitleOr(""))
	assert.True(t, sunday.StartTime.Equal(time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)), "Sunday closes the week")

	assert.Zero(t, h.settings.upserts, "nil answers leave settings untouched")
}

func TestSave_ReplacesExistingBlocks(t *testing.T) {
	h := newHarness(t, "UTC")
	ctx := context.Background()

	_, err := h.svc.Save(ctx, h.userID, nil, []models.ProtectionBlock{
		{ID: "a", Title: "Buffer", Day: "Tuesday", StartTime: "15:00", EndTime: "15:30"},
		{ID: "b", Title: "Buffer", Day: "Friday", StartTime: "15:00", EndTime: "15:30"},
	})
	require.NoError(t, err)

	saved, err := h.svc.Save(ctx, h.userID, nil, []models.ProtectionBlock{
		{ID: "c", Title: "Deep Work", Day: "Friday", StartTime: "14:00", EndTime: "16:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	require.Len(t, h.blocks.events, 1)
	assert.Equal(t, "duende-c-0", h.blocks.events[0].ExternalID)

	saved, err = h.svc.Save(ctx, h.userID, nil, []models.ProtectionBlock{})
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.Empty(t, h.blocks.events, "an empty list clears the week")
}

func TestSave_AnswersUpdateSettingsAndIntention(t *testing.T) {
	h := newHarness(t, "UTC")
	buffer := 10
	h.settings.settings[h.userID] = &models.UserSettings{UserID: h.userID, BufferMinutes: &buffer, MovementTypes: []string{"yoga"}}

	answers := &models.PlanningAnswers{
		Intentions:    "  Leave by six every day ",
		Movement:      "walking",
		Nutrition:     "yes",
		Stress:        "journaling",
		Transcendence: "",
	}
	saved, err := h.svc.Save(context.Background(), h.userID, answers, nil)
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.Zero(t, h.blocks.replaces, "nil blocks keep the stored week")

	s := h.settings.settings[h.userID]
	assert.Equal(t, []string{"walking"}, s.MovementTypes)
	require.NotNil(t, s.WantsProtectedLunch)
	assert.True(t, *s.WantsProtectedLunch)
	assert.Equal(t, []string{"journaling"}, s.DecompressMethods)
	assert.Empty(t, s.PassionProjects)
	require.NotNil(t, s.BufferMinutes)
	assert.Equal(t, 10, *s.BufferMinutes)

	require.Len(t, h.intentions.records, 1)
	in := h.intentions.records[0]
	assert.Equal(t, "Leave by six every day", in.Description)
	assert.Equal(t, models.DefaultSettingIntentions, in.DefaultSetting)
	assert.Equal(t, "pending", in.Status)
	assert.True(t, in.WeekStart.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
}

func TestSave_InvalidBlockWritesNothing(t *testing.T) {
	h := newHarness(t, "UTC")

	_, err := h.svc.Save(context.Background(), h.userID,
		&models.PlanningAnswers{Movement: "running"},
		[]models.ProtectionBlock{{ID: "x", Day: "Monday", StartTime: "14:00", EndTime: "13:00"}})
	require.ErrorIs(t, err, ErrInvalidBlock)
	assert.Zero(t, h.settings.upserts)
	assert.Zero(t, h.blocks.replaces)
}

func TestSave_UnknownUser(t *testing.T) {
	h := newHarness(t, "UTC")

	_, err := h.svc.Save(context.Background(), uuid.New(), nil, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSave_RepositoryFailure(t *testing.T) {
	h := newHarness(t, "UTC")
	h.blocks.err = errors.New("connection reset")

	_, err := h.svc.Save(context.Background(), h.userID, nil, []models.ProtectionBlock{
		{ID: "a", Day: "Monday", StartTime: "09:00", EndTime: "10:00"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save protection blocks")
}

func TestLoad_RoundTripsInUserTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	h := newHarness(t, "America/New_York")
	ctx := context.Background()

	_, err = h.svc.Save(ctx, h.userID,
		&models.PlanningAnswers{Intentions: "Read more", Nutrition: "protect it", Transcendence: "guitar"},
		[]models.ProtectionBlock{{ID: "w", Title: "Evening Walk", Day: "Friday", StartTime: "18:30", EndTime: "19:00"}})
	require.NoError(t, err)

	// 18:30 in New York is 23:30 UTC, so the stored row sits on Friday UTC as well.
	stored := h.blocks.events[0]
	assert.True(t, stored.StartTime.Equal(time.Date(2026, 3, 6, 18, 30, 0, 0, loc)))

	plan, err := h.svc.Load(ctx, h.userID)
	require.NoError(t, err)
	assert.True(t, plan.HasExistingData)
	require.Len(t, plan.ProtectionBlocks, 1)
	b := plan.ProtectionBlocks[0]
	assert.Equal(t, "duende-w-0", b.ID)
	assert.Equal(t, "Friday", b.Day)
	assert.Equal(t, "18:30", b.StartTime)
	assert.Equal(t, "19:00", b.EndTime)
	assert.Equal(t, string(models.DefaultSettingMovement), b.Setting)

	assert.Equal(t, models.PlanningAnswers{
		Intentions:    "Read more",
		Nutrition:     NutritionProtectedLunch,
		Transcendence: "guitar",
	}, plan.Answers)
}

func TestLoad_EmptyWeek(t *testing.T) {
	h := newHarness(t, "UTC")

	plan, err := h.svc.Load(context.Background(), h.userID)
	require.NoError(t, err)
	assert.False(t, plan.HasExistingData)
	assert.NotNil(t, plan.ProtectionBlocks)
	assert.Empty(t, plan.ProtectionBlocks)
	assert.Equal(t, models.PlanningAnswers{}, plan.Answers)

	_, err = h.svc.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
