package models

import "time"

// CorsConfig is the single stored row of browser origins allowed to call the API.
// The server reloads it on an interval, so edits apply without a restart.
type CorsConfig struct {
	ConfigKey string `json:"config_key"`
	// AllowedOrigins is a comma-separated list of http(s) origins.
	AllowedOrigins   string    `json:"allowed_origins"`
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"` // preflight cache, seconds
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RatelimitConfig is the single stored row holding the per-client API rate, in
// ulule/limiter notation such as "100-M".
type RatelimitConfig struct {
	ConfigKey string    `json:"config_key"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
