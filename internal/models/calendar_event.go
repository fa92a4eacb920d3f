package models

import (
	"time"

	"github.com/google/uuid"
)

// UntitledEvent is stored when the calendar provider returns an event without a summary.
const UntitledEvent = "Untitled Event"

// CalendarEvent is a calendar entry synced from a provider.
// StartTime and EndTime are instants; callers localize them before analysis.
type CalendarEvent struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	ExternalID      string    `json:"external_id"`
	CalendarID      string    `json:"calendar_id"`
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Location        *string   `json:"location,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	IsAllDay        bool      `json:"is_all_day"`
	IsRecurring     bool      `json:"is_recurring"`
	BlockedByDuende bool      `json:"blocked_by_duende"`
	OrganizerEmail  *string   `json:"organizer_email,omitempty"`
	MeetingLink     *string   `json:"meeting_link,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TitleOr returns the event title, or placeholder when the title is missing or empty.
func (e *CalendarEvent) TitleOr(placeholder string) string {
	if e.Title == nil || *e.Title == "" {
		return placeholder
	}
	return *e.Title
}

// Duration returns EndTime minus StartTime. It is negative for inverted events.
func (e *CalendarEvent) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// In returns a copy of the event with its times converted to loc.
func (e CalendarEvent) In(loc *time.Location) CalendarEvent {
	e.StartTime = e.StartTime.In(loc)
	e.EndTime = e.EndTime.In(loc)
	return e
}
