package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Check tests one dependency.
type Check func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks  map[string]Check
	version string
	timeout time.Duration
}

// NewHealthChecker creates a health checker reporting version. Dependencies are
// registered with AddCheck; a nil check reports "not configured".
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{checks: map[string]Check{}, version: version, timeout: 5 * time.Second}
}

// AddCheck registers a named dependency check for extended mode.
func (h *HealthChecker) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles /healthz. With ?mode=extended every registered dependency is checked
// and any failure yields 503.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		response.Checks = make(map[string]string, len(names))
		for _, name := range names {
			check := h.checks[name]
			switch {
			case check == nil:
				response.Checks[name] = "not configured"
			case check(ctx) != nil:
				response.Checks[name] = "unhealthy"
				response.Status = "unhealthy"
				status = http.StatusServiceUnavailable
			default:
				response.Checks[name] = "healthy"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// Version handles /version.
func (h *HealthChecker) Version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"version": h.version})
}
