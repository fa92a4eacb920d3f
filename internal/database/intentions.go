package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/models"
)

// IntentionRepository stores the weekly intentions captured during planning.
type IntentionRepository struct {
	db *DB
}

// NewIntentionRepository creates a new intention repository
func NewIntentionRepository(db *DB) *IntentionRepository {
	return &IntentionRepository{db: db}
}

// Create inserts a new intention. Status defaults to pending.
func (r *IntentionRepository) Create(ctx context.Context, in *models.Intention) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.DefaultSetting == "" {
		in.DefaultSetting = models.DefaultSettingIntentions
	}
	if in.Status == "" {
		in.Status = string(models.SuggestionStatusPending)
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO intentions (id, user_id, default_setting, description, week_start, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, in.ID, in.UserID, in.DefaultSetting, in.Description, in.WeekStart, in.Status, time.Now()).Scan(&in.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create intention: %w", err)
	}
	return nil
}

// LatestSince returns the newest intention for a week starting at or after since, or nil.
func (r *IntentionRepository) LatestSince(ctx context.Context, userID uuid.UUID, since time.Time) (*models.Intention, error) {
	in := &models.Intention{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, default_setting, description, week_start, status, created_at
		FROM intentions
		WHERE user_id = $1 AND week_start >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, since).Scan(
		&in.ID,
		&in.UserID,
		&in.DefaultSetting,
		&in.Description,
		&in.WeekStart,
		&in.Status,
		&in.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intention: %w", err)
	}
	return in, nil
}
