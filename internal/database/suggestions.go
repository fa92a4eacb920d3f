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

const suggestionColumns = `id, user_id, type, default_setting, title, description, reasoning,
	affected_events, status, draft_message, feedback_note, created_at, expires_at,
	accepted_at, dismissed_at, sent_at`

// SuggestionRepository persists suggestions derived from threshold violations.
type SuggestionRepository struct {
	db *DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

func scanSuggestion(row rowScanner) (*models.Suggestion, error) {
	s := &models.Suggestion{}
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Type,
		&s.DefaultSetting,
		&s.Title,
		&s.Description,
		&s.Reasoning,
		pq.Array(&s.AffectedEvents),
		&s.Status,
		&s.DraftMessage,
		&s.FeedbackNote,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.AcceptedAt,
		&s.DismissedAt,
		&s.SentAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new suggestion.
func (r *SuggestionRepository) Create(ctx context.Context, s *models.Suggestion) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	affected := s.AffectedEvents
	if affected == nil {
		affected = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO suggestions (
			id, user_id, type, default_setting, title, description, reasoning,
			affected_events, status, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		s.ID,
		s.UserID,
		s.Type,
		s.DefaultSetting,
		s.Title,
		s.Description,
		s.Reasoning,
		pq.Array(affected),
		s.Status,
		s.CreatedAt,
		s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create suggestion: %w", err)
	}
	return nil
}

// FindRecentPending returns the newest pending suggestion of the given type created at or
// after since, or nil when there is none.
func (r *SuggestionRepository) FindRecentPending(ctx context.Context, userID uuid.UUID, typ models.ViolationType, since time.Time) (*models.Suggestion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+suggestionColumns+`
		FROM suggestions
		WHERE user_id = $1 AND type = $2 AND status = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, typ, models.SuggestionStatusPending, since)
	s, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending suggestion: %w", err)
	}
	return s, nil
}

// ListPending returns the user's pending, unexpired suggestions, newest first.
func (r *SuggestionRepository) ListPending(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Suggestion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+suggestionColumns+`
		FROM suggestions
		WHERE user_id = $1 AND status = $2 AND (expires_at IS NULL OR expires_at >= $3)
		ORDER BY created_at DESC
	`, userID, models.SuggestionStatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	suggestions := make([]*models.Suggestion, 0)
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestions: %w", err)
	}
	return suggestions, nil
}

// GetByID retrieves a suggestion. Returns an error wrapping ErrNotFound when absent.
func (r *SuggestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Suggestion, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = $1`, id)
	s, err := scanSuggestion(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", notFound("suggestion", err))
	}
	return s, nil
}

// UpdateStatus records the user's decision on a suggestion and stamps the matching
// accepted/dismissed/sent timestamp with at.
func (r *SuggestionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SuggestionStatus, feedbackNote *string, at time.Time) (*models.Suggestion, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE suggestions SET
			status = $2::text,
			feedback_note = $3,
			accepted_at = CASE WHEN $2::text = 'accepted' THEN $4::timestamptz ELSE accepted_at END,
			dismissed_at = CASE WHEN $2::text = 'dismissed' THEN $4::timestamptz ELSE dismissed_at END,
			sent_at = CASE WHEN $2::text = 'sent' THEN $4::timestamptz ELSE sent_at END
		WHERE id = $1
		RETURNING `+suggestionColumns,
		id, status, feedbackNote, at)
	s, err := scanSuggestion(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update suggestion: %w", notFound("suggestion", err))
	}
	return s, nil
}

// SetDraftMessage stores a generated advocacy message on the suggestion.
func (r *SuggestionRepository) SetDraftMessage(ctx context.Context, id uuid.UUID, message string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE suggestions SET draft_message = $2 WHERE id = $1`, id, message)
	if err != nil {
		return fmt.Errorf("failed to set draft message: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to set draft message: suggestion %w", ErrNotFound)
	}
	return nil
}
