package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/models"
)

const eventColumns = `id, user_id, external_id, calendar_id, title, description, location,
	start_time, end_time, is_all_day, is_recurring, blocked_by_duende, organizer_email,
	meeting_link, created_at, updated_at`

// CalendarEventRepository stores events synced from calendar providers.
type CalendarEventRepository struct {
	db *DB
}

// NewCalendarEventRepository creates a new calendar event repository
func NewCalendarEventRepository(db *DB) *CalendarEventRepository {
	return &CalendarEventRepository{db: db}
}

// Upsert inserts the event or updates the row with the same (user_id, external_id).
// BlockedByDuende is only set on insert; provider syncs never clear it.
func (r *CalendarEventRepository) Upsert(ctx context.Context, e *models.CalendarEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CalendarID == "" {
		e.CalendarID = "primary"
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO calendar_events (
			id, user_id, external_id, calendar_id, title, description, location,
			start_time, end_time, is_all_day, is_recurring, blocked_by_duende,
			organizer_email, meeting_link, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		ON CONFLICT (user_id, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_all_day = EXCLUDED.is_all_day,
			is_recurring = EXCLUDED.is_recurring,
			organizer_email = EXCLUDED.organizer_email,
			meeting_link = EXCLUDED.meeting_link,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`,
		e.ID,
		e.UserID,
		e.ExternalID,
		e.CalendarID,
		e.Title,
		e.Description,
		e.Location,
		e.StartTime,
		e.EndTime,
		e.IsAllDay,
		e.IsRecurring,
		e.BlockedByDuende,
		e.OrganizerEmail,
		e.MeetingLink,
		now,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert calendar event: %w", err)
	}
	return nil
}

// ListByUserBetween returns the user's events starting within [from, to], ordered by start time.
func (r *CalendarEventRepository) ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3
		ORDER BY start_time ASC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// ReplaceProtectionBlocks swaps the user's planned protection events starting at or after
// weekStart for events, in one transaction. Each event is stored with blocked_by_duende set.
// It returns the number of events written.
func (r *CalendarEventRepository) ReplaceProtectionBlocks(ctx context.Context, userID uuid.UUID, weekStart time.Time, events []models.CalendarEvent) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM calendar_events
		WHERE user_id = $1 AND blocked_by_duende AND start_time >= $2
	`, userID, weekStart); err != nil {
		return 0, fmt.Errorf("failed to clear protection blocks: %w", err)
	}

	now := time.Now()
	for i := range events {
		e := &events[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.CalendarID == "" {
			e.CalendarID = models.ProtectionCalendarID
		}
		e.UserID = userID
		e.BlockedByDuende = true
		// A block id reused from an earlier week moves that row to this week.
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO calendar_events (
				id, user_id, external_id, calendar_id, title, start_time, end_time,
				blocked_by_duende, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
			ON CONFLICT (user_id, external_id) DO UPDATE SET
				title = EXCLUDED.title,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				blocked_by_duende = TRUE,
				updated_at = EXCLUDED.updated_at
			RETURNING id, created_at, updated_at
		`,
			e.ID,
			userID,
			e.ExternalID,
			e.CalendarID,
			e.Title,
			e.StartTime,
			e.EndTime,
			now,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return 0, fmt.Errorf("failed to insert protection block: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit protection blocks: %w", err)
	}
	return len(events), nil
}

// ListProtectionBlocks returns the user's planned protection events starting within [from, to).
func (r *CalendarEventRepository) ListProtectionBlocks(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE user_id = $1 AND blocked_by_duende AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list protection blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.CalendarEvent, error) {
	events := make([]models.CalendarEvent, 0)
	for rows.Next() {
		var e models.CalendarEvent
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.ExternalID,
			&e.CalendarID,
			&e.Title,
			&e.Description,
			&e.Location,
			&e.StartTime,
			&e.EndTime,
			&e.IsAllDay,
			&e.IsRecurring,
			&e.BlockedByDuende,
			&e.OrganizerEmail,
			&e.MeetingLink,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calendar events: %w", err)
	}
	return events, nil
}
