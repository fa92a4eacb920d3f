package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/models"
)

const userColumns = `id, email, name, city, timezone, google_access_token, google_refresh_token,
	google_token_expiry, onboarding_completed, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.City,
		&u.Timezone,
		&u.GoogleAccessToken,
		&u.GoogleRefreshToken,
		&u.GoogleTokenExpiry,
		&u.OnboardingCompleted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by ID. Returns an error wrapping ErrNotFound when absent.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound("user", err))
	}
	return u, nil
}

// UpdateGoogleTokens stores a refreshed access token. A nil refreshToken keeps the stored one.
func (r *UserRepository) UpdateGoogleTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken *string, expiry time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET google_access_token = $2,
			google_refresh_token = COALESCE($3, google_refresh_token),
			google_token_expiry = $4,
			updated_at = $5
		WHERE id = $1
	`, id, accessToken, refreshToken, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update google tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to update google tokens: user %w", ErrNotFound)
	}
	return nil
}

// ListWithCalendarConnected returns the IDs of users holding Google tokens.
func (r *UserRepository) ListWithCalendarConnected(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM users
		WHERE google_access_token IS NOT NULL AND google_refresh_token IS NOT NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list connected users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return ids, nil
}
