package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSettings holds the wellbeing preferences captured during onboarding.
// Threshold fields are nullable; the detector applies defaults for missing values.
type UserSettings struct {
	UserID                uuid.UUID `json:"user_id"`
	MaxMeetingHoursPerDay *float64  `json:"max_meeting_hours_per_day,omitempty" validate:"omitempty,gte=0,lte=24"`
	WantsProtectedLunch   *bool     `json:"wants_protected_lunch,omitempty"`
	PreferredLunchTime    *string   `json:"preferred_lunch_time,omitempty" validate:"omitempty,clock"`
	WantsBufferTime       *bool     `json:"wants_buffer_time,omitempty"`
	BufferMinutes         *int      `json:"buffer_minutes,omitempty" validate:"omitempty,gte=0,lte=120"`
	MovementTypes         []string  `json:"movement_types,omitempty"`
	PreferredMovementTime *string   `json:"preferred_movement_time,omitempty"`
	AllowsWalkingMeetings *bool     `json:"allows_walking_meetings,omitempty"`
	EatsAtDesk            *bool     `json:"eats_at_desk,omitempty"`
	DecompressMethods     []string  `json:"decompress_methods,omitempty"`
	PassionProjects       []string  `json:"passion_projects,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
