package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/detector"
	"github.com/enp09/duende/internal/models"
	"github.com/enp09/duende/internal/validation"
)

// SettingsHandler reads and writes a user's threshold settings.
type SettingsHandler struct {
	users    database.UserRepositoryInterface
	settings database.SettingsRepositoryInterface
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(users database.UserRepositoryInterface, settings database.SettingsRepositoryInterface) *SettingsHandler {
	return &SettingsHandler{users: users, settings: settings}
}

// RegisterRoutes registers settings routes on a router already prefixed with /users.
func (h *SettingsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{id}/settings", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/{id}/settings", h.Put).Methods(http.MethodPut)
}

// SettingsResponse pairs stored settings with the thresholds the detector will apply.
type SettingsResponse struct {
	Settings  *models.UserSettings `json:"settings"`
	Effective detector.Config      `json:"effective"`
}

func (h *SettingsHandler) loadUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user ID")
		return uuid.Nil, false
	}
	if _, err := h.users.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		} else {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load user")
		}
		return uuid.Nil, false
	}
	return id, true
}

// Get returns a user's settings. Settings is null when none are stored.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	s, err := h.settings.GetByUserID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, SettingsResponse{Settings: s, Effective: detector.ConfigFromSettings(s)})
}

// Put replaces a user's settings.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var s models.UserSettings
	if err := decodeJSON(r, &s); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	s.UserID = id
	if err := validation.Settings(&s); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request",
			"max_meeting_hours_per_day must be 0-24, buffer_minutes 0-120 and preferred_lunch_time HH:MM")
		return
	}

	if err := h.settings.Upsert(r.Context(), &s); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save settings")
		return
	}
	respondJSON(w, http.StatusOK, SettingsResponse{Settings: &s, Effective: detector.ConfigFromSettings(&s)})
}
