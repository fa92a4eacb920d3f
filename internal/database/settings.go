package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/enp09/duende/internal/models"
)

// SettingsRepository persists per-user wellbeing settings.
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByUserID returns the user's settings, or nil when the user never completed onboarding.
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	s := &models.UserSettings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, max_meeting_hours_per_day, wants_protected_lunch, preferred_lunch_time,
			wants_buffer_time, buffer_minutes, movement_types, preferred_movement_time,
			allows_walking_meetings, eats_at_desk, decompress_methods, passion_projects,
			created_at, updated_at
		FROM user_settings WHERE user_id = $1
	`, userID).Scan(
		&s.UserID,
		&s.MaxMeetingHoursPerDay,
		&s.WantsProtectedLunch,
		&s.PreferredLunchTime,
		&s.WantsBufferTime,
		&s.BufferMinutes,
		pq.Array(&s.MovementTypes),
		&s.PreferredMovementTime,
		&s.AllowsWalkingMeetings,
		&s.EatsAtDesk,
		pq.Array(&s.DecompressMethods),
		pq.Array(&s.PassionProjects),
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// Upsert creates or replaces the user's settings.
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_settings (
			user_id, max_meeting_hours_per_day, wants_protected_lunch, preferred_lunch_time,
			wants_buffer_time, buffer_minutes, movement_types, preferred_movement_time,
			allows_walking_meetings, eats_at_desk, decompress_methods, passion_projects,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			max_meeting_hours_per_day = EXCLUDED.max_meeting_hours_per_day,
			wants_protected_lunch = EXCLUDED.wants_protected_lunch,
			preferred_lunch_time = EXCLUDED.preferred_lunch_time,
			wants_buffer_time = EXCLUDED.wants_buffer_time,
			buffer_minutes = EXCLUDED.buffer_minutes,
			movement_types = EXCLUDED.movement_types,
			preferred_movement_time = EXCLUDED.preferred_movement_time,
			allows_walking_meetings = EXCLUDED.allows_walking_meetings,
			eats_at_desk = EXCLUDED.eats_at_desk,
			decompress_methods = EXCLUDED.decompress_methods,
			passion_projects = EXCLUDED.passion_projects,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`,
		s.UserID,
		s.MaxMeetingHoursPerDay,
		s.WantsProtectedLunch,
		s.PreferredLunchTime,
		s.WantsBufferTime,
		s.BufferMinutes,
		pq.Array(nonNil(s.MovementTypes)),
		s.PreferredMovementTime,
		s.AllowsWalkingMeetings,
		s.EatsAtDesk,
		pq.Array(nonNil(s.DecompressMethods)),
		pq.Array(nonNil(s.PassionProjects)),
		now,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
