package models

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionStatus tracks a suggestion through its lifecycle
type SuggestionStatus string

const (
	SuggestionStatusPending   SuggestionStatus = "pending"
	SuggestionStatusAccepted  SuggestionStatus = "accepted"
	SuggestionStatusDismissed SuggestionStatus = "dismissed"
	SuggestionStatusExpired   SuggestionStatus = "expired"
	SuggestionStatusSent      SuggestionStatus = "sent"
)

// Suggestion is a persisted, user-facing recommendation derived from a violation.
type Suggestion struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	Type           ViolationType    `json:"type"`
	DefaultSetting DefaultSetting   `json:"default_setting"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Reasoning      string           `json:"reasoning"`
	AffectedEvents []string         `json:"affected_events"`
	Status         SuggestionStatus `json:"status"`
	DraftMessage   *string          `json:"draft_message,omitempty"`
	FeedbackNote   *string          `json:"feedback_note,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
	DismissedAt    *time.Time       `json:"dismissed_at,omitempty"`
	SentAt         *time.Time       `json:"sent_at,omitempty"`
}

// NewSuggestionFromViolation builds a pending suggestion for userID that expires after ttl.
func NewSuggestionFromViolation(userID uuid.UUID, v Violation, now time.Time, ttl time.Duration) *Suggestion {
	expires := now.Add(ttl)
	affected := make([]string, len(v.AffectedEvents))
	copy(affected, v.AffectedEvents)
	return &Suggestion{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           v.Type,
		DefaultSetting: v.DefaultSetting,
		Title:          v.Title,
		Description:    v.Description,
		Reasoning:      v.SuggestedAction,
		AffectedEvents: affected,
		Status:         SuggestionStatusPending,
		CreatedAt:      now,
		ExpiresAt:      &expires,
	}
}
