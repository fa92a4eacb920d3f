package detector

import "github.com/enp09/duende/internal/models"

const (
	DefaultMaxMeetingHoursPerDay = 6.0
	DefaultBufferMinutes         = 10
	DefaultPreferredLunchTime    = "12:30"
)

// Config is the resolved threshold configuration for one user.
// Use ConfigFromSettings or DefaultConfig; a zero Config is resolved the same way by Detect.
type Config struct {
	MaxMeetingHoursPerDay float64 `json:"max_meeting_hours_per_day" yaml:"max_meeting_hours_per_day"`
	WantsProtectedLunch   bool    `json:"wants_protected_lunch" yaml:"wants_protected_lunch"`
	// PreferredLunchTime is collected during onboarding but the lunch check uses a fixed window.
	PreferredLunchTime string `json:"preferred_lunch_time" yaml:"preferred_lunch_time"`
	WantsBufferTime    bool   `json:"wants_buffer_time" yaml:"wants_buffer_time"`
	BufferMinutes      int    `json:"buffer_minutes" yaml:"buffer_minutes"`
}

// DefaultConfig returns the configuration used for users without stored settings.
func DefaultConfig() Config {
	return Config{
		MaxMeetingHoursPerDay: DefaultMaxMeetingHoursPerDay,
		PreferredLunchTime:    DefaultPreferredLunchTime,
		BufferMinutes:         DefaultBufferMinutes,
	}
}

// ConfigFromSettings maps persisted settings onto a Config. A nil settings row yields DefaultConfig.
func ConfigFromSettings(s *models.UserSettings) Config {
	cfg := DefaultConfig()
	if s == nil {
		return cfg
	}
	if s.MaxMeetingHoursPerDay != nil {
		cfg.MaxMeetingHoursPerDay = *s.MaxMeetingHoursPerDay
	}
	if s.WantsProtectedLunch != nil {
		cfg.WantsProtectedLunch = *s.WantsProtectedLunch
	}
	if s.PreferredLunchTime != nil {
		cfg.PreferredLunchTime = *s.PreferredLunchTime
	}
	if s.WantsBufferTime != nil {
		cfg.WantsBufferTime = *s.WantsBufferTime
	}
	if s.BufferMinutes != nil {
		cfg.BufferMinutes = *s.BufferMinutes
	}
	return cfg.withDefaults()
}

// withDefaults replaces zero values with their defaults. Zero hours or zero buffer
// minutes are treated as unset.
func (c Config) withDefaults() Config {
	if c.MaxMeetingHoursPerDay == 0 {
		c.MaxMeetingHoursPerDay = DefaultMaxMeetingHoursPerDay
	}
	if c.BufferMinutes == 0 {
		c.BufferMinutes = DefaultBufferMinutes
	}
	if c.PreferredLunchTime == "" {
		c.PreferredLunchTime = DefaultPreferredLunchTime
	}
	return c
}
