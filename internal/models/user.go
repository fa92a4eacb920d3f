package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a person whose calendar is being looked after.
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	Name                *string    `json:"name,omitempty"`
	City                *string    `json:"city,omitempty"`
	Timezone            string     `json:"timezone"`
	GoogleAccessToken   *string    `json:"-"`
	GoogleRefreshToken  *string    `json:"-"`
	GoogleTokenExpiry   *time.Time `json:"-"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// HasCalendar reports whether the user has connected a Google calendar.
func (u *User) HasCalendar() bool {
	return u.GoogleAccessToken != nil && *u.GoogleAccessToken != "" &&
		u.GoogleRefreshToken != nil && *u.GoogleRefreshToken != ""
}

// DisplayName returns the user's name, falling back to the local part of the email.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return LocalPart(u.Email)
}

// Location resolves the user's timezone, falling back to fallback when it is unset or unknown.
func (u *User) Location(fallback *time.Location) *time.Location {
	if u.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// LocalPart returns everything before the "@" of an email address.
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
