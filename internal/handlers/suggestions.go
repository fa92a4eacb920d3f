package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
	"github.com/enp09/duende/internal/validation"
)

// SuggestionHandler lists and updates suggestions.
type SuggestionHandler struct {
	suggestions database.SuggestionRepositoryInterface
	now         func() time.Time
}

// NewSuggestionHandler creates a suggestion handler
func NewSuggestionHandler(suggestions database.SuggestionRepositoryInterface) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, now: time.Now}
}

// RegisterRoutes registers suggestion routes on a router already prefixed with /suggestions.
func (h *SuggestionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPending).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.UpdateStatus).Methods(http.MethodPatch)
}

// UpdateSuggestionRequest is the body of PATCH /suggestions/{id}.
type UpdateSuggestionRequest struct {
	Status       models.SuggestionStatus `json:"status" validate:"required,suggestion_status"`
	FeedbackNote *string                 `json:"feedback_note,omitempty" validate:"omitempty,max=2000"`
}

// ListPending returns a user's pending, unexpired suggestions, newest first.
func (h *SuggestionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, err := validation.ParseUserID(r.URL.Query().Get("user_id"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	suggestions, err := h.suggestions.ListPending(r.Context(), userID, h.now())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []*models.Suggestion{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// UpdateStatus moves a suggestion to a new status, stamping the matching timestamp.
func (h *SuggestionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid suggestion ID")
		return
	}

	var req UpdateSuggestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		if req.Status == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "status is required")
			return
		}
		if statusErr := validation.ValidateSuggestionStatus(string(req.Status)); statusErr != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", statusErr.Error())
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "feedback_note must be at most 2000 characters")
		return
	}
	if req.FeedbackNote != nil {
		note := validation.SanitizeText(*req.FeedbackNote)
		req.FeedbackNote = &note
	}

	suggestion, err := h.suggestions.UpdateStatus(r.Context(), id, req.Status, req.FeedbackNote, h.now())
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Suggestion not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update suggestion")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"suggestion": suggestion})
}
