// Package calendar reads events from calendar providers and stores them for analysis.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/enp09/duende/internal/models"
)

// ErrCalendarNotConnected is returned when a user has no calendar credentials.
var ErrCalendarNotConnected = errors.New("calendar not connected")

// Provider fetches a user's events starting within [from, to].
type Provider interface {
	FetchEvents(ctx context.Context, user *models.User, from, to time.Time) ([]models.CalendarEvent, error)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func titleOrUntitled(summary string) *string {
	if summary == "" {
		summary = models.UntitledEvent
	}
	return &summary
}
