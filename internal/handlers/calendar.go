package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/logger"
	"github.com/enp09/duende/internal/models"
	"github.com/enp09/duende/internal/services/calendar"
	"github.com/enp09/duende/internal/validation"
)

const (
	// DefaultEventDays is the look-ahead for GET /calendar/events without ?days.
	DefaultEventDays = 7
	// MaxEventDays caps the ?days look-ahead.
	MaxEventDays = 30
)

// CalendarSyncer pulls a user's events from their provider into the store.
type CalendarSyncer interface {
	Sync(ctx context.Context, userID uuid.UUID) (int, error)
}

// CalendarHandler triggers syncs and lists stored events.
type CalendarHandler struct {
	syncer CalendarSyncer
	events database.CalendarEventRepositoryInterface
	now    func() time.Time
	logger *zap.Logger
}

// NewCalendarHandler creates a calendar handler
func NewCalendarHandler(syncer CalendarSyncer, events database.CalendarEventRepositoryInterface, log *zap.Logger) *CalendarHandler {
	return &CalendarHandler{syncer: syncer, events: events, now: time.Now, logger: log}
}

// RegisterRoutes registers calendar routes on a router already prefixed with /calendar.
func (h *CalendarHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sync", h.Sync).Methods(http.MethodPost)
	r.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)
}

// SyncRequest is the body of POST /calendar/sync.
type SyncRequest struct {
	UserID string `json:"user_id"`
}

// Sync pulls the next week of events for a user.
func (h *CalendarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	userID, err := validation.ParseUserID(req.UserID)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	n, err := h.syncer.Sync(r.Context(), userID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	case errors.Is(err, calendar.ErrCalendarNotConnected):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Calendar not connected")
		return
	case calendar.IsUnauthorized(err):
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Calendar access was revoked; reconnect your calendar")
		return
	case err != nil:
		h.logger.Error("calendar_sync_failed",
			zap.String("user_id", userID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to sync calendar")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"event_count": n,
		"message":     fmt.Sprintf("synced %d events", n),
	})
}

// ListEvents returns stored events starting within the next ?days days.
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := validation.ParseUserID(r.URL.Query().Get("user_id"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	days := DefaultEventDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be a positive integer")
			return
		}
		days = min(parsed, MaxEventDays)
	}

	from := h.now()
	events, err := h.events.ListByUserBetween(r.Context(), userID, from, from.AddDate(0, 0, days))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve events")
		return
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
		"days":   days,
	})
}
