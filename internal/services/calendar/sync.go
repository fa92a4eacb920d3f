package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
)

// DefaultSyncWindow is how far ahead events are fetched.
const DefaultSyncWindow = 7 * 24 * time.Hour

// SyncService copies provider events into the event store.
type SyncService struct {
	users    database.UserRepositoryInterface
	events   database.CalendarEventRepositoryInterface
	provider Provider
	window   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSyncService creates a sync service. A zero window means DefaultSyncWindow and
// a nil clock means time.Now.
func NewSyncService(
	users database.UserRepositoryInterface,
	events database.CalendarEventRepositoryInterface,
	provider Provider,
	window time.Duration,
	now func() time.Time,
	log *zap.Logger,
) *SyncService {
	if window <= 0 {
		window = DefaultSyncWindow
	}
	if now == nil {
		now = time.Now
	}
	return &SyncService{
		users:    users,
		events:   events,
		provider: provider,
		window:   window,
		now:      now,
		logger:   log,
	}
}

// Sync fetches the user's events for [now, now+window] and upserts them, returning
// how many events were stored.
func (s *SyncService) Sync(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, span := otel.Tracer("github.com/enp09/duende/internal/services/calendar").Start(ctx, "calendar.sync")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load user")
		return 0, err
	}
	if !user.HasCalendar() {
		return 0, ErrCalendarNotConnected
	}

	return s.syncFrom(ctx, user, s.provider)
}

// Import stores events from an explicit provider, such as an ICS file, for the user.
func (s *SyncService) Import(ctx context.Context, userID uuid.UUID, provider Provider) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.syncFrom(ctx, user, provider)
}

func (s *SyncService) syncFrom(ctx context.Context, user *models.User, provider Provider) (int, error) {
	from := s.now()
	to := from.Add(s.window)

	fetched, err := provider.FetchEvents(ctx, user, from, to)
	if err != nil {
		s.logger.Error("calendar_sync_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	stored := 0
	for i := range fetched {
		e := &fetched[i]
		e.UserID = user.ID
		if err := s.events.Upsert(ctx, e); err != nil {
			return stored, fmt.Errorf("failed to store event %s: %w", e.ExternalID, err)
		}
		stored++
	}

	s.logger.Info("calendar_synced",
		zap.String("user_id", user.ID.String()),
		zap.Int("events", stored),
		zap.Time("from", from),
		zap.Time("to", to),
	)
	return stored, nil
}
