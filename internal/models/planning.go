package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProtectionCalendarID marks events created by weekly planning rather than a provider sync.
const ProtectionCalendarID = "duende"

// DefaultProtectionTitle labels a stored protection block that has no title.
const DefaultProtectionTitle = "Protection"

// ProtectionBlock is a time slot the user reserves during weekly planning.
// Day is an English weekday name; StartTime and EndTime are "HH:MM" local times.
type ProtectionBlock struct {
	ID        string `json:"id" validate:"required,max=64"`
	Title     string `json:"title" validate:"max=200"`
	Day       string `json:"day" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
	Setting   string `json:"setting,omitempty"`
}

// PlanningAnswers are the weekly planning prompts, one free-text answer per wellbeing area.
type PlanningAnswers struct {
	Intentions    string `json:"intentions" validate:"max=2000"`
	Movement      string `json:"movement" validate:"max=200"`
	Nutrition     string `json:"nutrition" validate:"max=200"`
	Relationships string `json:"relationships" validate:"max=200"`
	Stress        string `json:"stress" validate:"max=200"`
	Transcendence string `json:"transcendence" validate:"max=200"`
}

// Intention is a weekly intention recorded during planning.
type Intention struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	DefaultSetting DefaultSetting `json:"default_setting"`
	Description    string         `json:"description"`
	WeekStart      time.Time      `json:"week_start"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// WeekStart returns Monday 00:00 of the week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// ParseWeekday maps an English weekday name, in any case, to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, true
		}
	}
	return 0, false
}

// ProtectionEvent returns the calendar event for the n-th saved block of the week
// starting at weekStart. Sunday is the last day of that week.
func (b ProtectionBlock) ProtectionEvent(userID uuid.UUID, weekStart time.Time, n int) (CalendarEvent, error) {
	day, ok := ParseWeekday(b.Day)
	if !ok {
		return CalendarEvent{}, fmt.Errorf("unknown day %q", b.Day)
	}
	date := weekStart.AddDate(0, 0, (int(day)+6)%7)
	start, err := clockOn(date, b.StartTime)
	if err != nil {
		return CalendarEvent{}, err
	}
	end, err := clockOn(date, b.EndTime)
	if err != nil {
		return CalendarEvent{}, err
	}
	if !end.After(start) {
		return CalendarEvent{}, fmt.Errorf("block %q ends before it starts", b.ID)
	}

	title := strings.TrimSpace(b.Title)
	if title == "" {
		title = DefaultProtectionTitle
	}
	return CalendarEvent{
		UserID:          userID,
		ExternalID:      fmt.Sprintf("duende-%s-%d", b.ID, n),
		CalendarID:      ProtectionCalendarID,
		Title:           &title,
		StartTime:       start,
		EndTime:         end,
		BlockedByDuende: true,
	}, nil
}

func clockOn(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// BlockFromEvent converts a stored protection event back into a block, reading
// its day and times in the event's location.
func BlockFromEvent(e CalendarEvent) ProtectionBlock {
	title := e.TitleOr(DefaultProtectionTitle)
	return ProtectionBlock{
		ID:        e.ExternalID,
		Title:     title,
		Day:       e.StartTime.Weekday().String(),
		StartTime: e.StartTime.Format("15:04"),
		EndTime:   e.EndTime.Format("15:04"),
		Setting:   string(SettingForTitle(title)),
	}
}

// SettingForTitle guesses the wellbeing area a protection block serves from its title.
func SettingForTitle(title string) DefaultSetting {
	switch {
	case containsAny(title, "Walk", "Run", "Movement"):
		return DefaultSettingMovement
	case strings.Contains(title, "Lunch"):
		return DefaultSettingNutrition
	case containsAny(title, "Coffee", "Connection"):
		return DefaultSettingRelationships
	case strings.Contains(title, "Buffer"):
		return DefaultSettingStress
	case containsAny(title, "Deep Work", "Growth"):
		return DefaultSettingTranscendence
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
