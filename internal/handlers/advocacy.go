package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/logger"
	"github.com/enp09/duende/internal/models"
	"github.com/enp09/duende/internal/services/ai"
	"github.com/enp09/duende/internal/services/analysis"
	"github.com/enp09/duende/internal/validation"
)

// NoViolationsMessage is returned when an analysis finds nothing to flag.
const NoViolationsMessage = "No violations detected - your calendar looks good!"

// Analyzer runs threshold analysis for a user.
type Analyzer interface {
	Analyze(ctx context.Context, userID uuid.UUID) (*analysis.Result, error)
}

// AdvocacyHandler serves calendar analysis and message drafting.
type AdvocacyHandler struct {
	analyzer    Analyzer
	users       database.UserRepositoryInterface
	suggestions database.SuggestionRepositoryInterface
	generator   ai.MessageGenerator
	logger      *zap.Logger
}

// NewAdvocacyHandler creates an advocacy handler. generator may be nil when no
// model provider is configured; message generation then returns 503.
func NewAdvocacyHandler(
	analyzer Analyzer,
	users database.UserRepositoryInterface,
	suggestions database.SuggestionRepositoryInterface,
	generator ai.MessageGenerator,
	log *zap.Logger,
) *AdvocacyHandler {
	return &AdvocacyHandler{
		analyzer:    analyzer,
		users:       users,
		suggestions: suggestions,
		generator:   generator,
		logger:      log,
	}
}

// RegisterRoutes registers advocacy routes on a router already prefixed with /advocacy.
func (h *AdvocacyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/analyze", h.Analyze).Methods(http.MethodPost)
	r.HandleFunc("/generate-message", h.GenerateMessage).Methods(http.MethodPost)
}

// AnalyzeRequest is the body of POST /advocacy/analyze.
type AnalyzeRequest struct {
	UserID string `json:"user_id"`
}

// AnalyzeResponse is the payload of a successful analysis.
type AnalyzeResponse struct {
	Message     string               `json:"message"`
	Violations  []models.Violation   `json:"violations"`
	Suggestions []*models.Suggestion `json:"suggestions"`
	Count       int                  `json:"count"`
}

// Analyze runs threshold detection for a user and records suggestions.
func (h *AdvocacyHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	userID, err := validation.ParseUserID(req.UserID)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), userID)
	switch {
	case errors.Is(err, analysis.ErrUserNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	case errors.Is(err, analysis.ErrAnalysisInProgress):
		respondJSONError(w, http.StatusConflict, "Conflict", "Analysis already running for this user")
		return
	case err != nil:
		h.logger.Error("analysis_failed",
			zap.String("user_id", userID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONErrorDetails(w, http.StatusInternalServerError, "Internal Server Error",
			"Failed to analyze calendar", logger.SanitizeError(err))
		return
	}

	resp := AnalyzeResponse{
		Message:     NoViolationsMessage,
		Violations:  result.Violations,
		Suggestions: result.Suggestions,
		Count:       result.Count,
	}
	if resp.Violations == nil {
		resp.Violations = []models.Violation{}
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []*models.Suggestion{}
	}
	if resp.Count > 0 {
		noun := "violations"
		if resp.Count == 1 {
			noun = "violation"
		}
		resp.Message = fmt.Sprintf("Found %d threshold %s", resp.Count, noun)
	}

	respondJSON(w, http.StatusOK, resp)
}

// GenerateMessageRequest is the body of POST /advocacy/generate-message.
type GenerateMessageRequest struct {
	SuggestionID   string `json:"suggestion_id" validate:"required,uuid"`
	RecipientEmail string `json:"recipient_email,omitempty" validate:"omitempty,email,max=320"`
}

// GenerateMessage drafts the advocacy email and user alert for a suggestion and
// stores the advocacy draft on it.
func (h *AdvocacyHandler) GenerateMessage(w http.ResponseWriter, r *http.Request) {
	var req GenerateMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "suggestion_id must be a UUID and recipient_email a valid address")
		return
	}
	if h.generator == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Message generation is not configured")
		return
	}

	ctx := r.Context()
	suggestionID := uuid.MustParse(req.SuggestionID)
	suggestion, err := h.suggestions.GetByID(ctx, suggestionID)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Suggestion not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load suggestion")
		return
	}

	user, err := h.users.GetByID(ctx, suggestion.UserID)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load user")
		return
	}

	genCtx := ai.WithLogFields(ctx, user.ID, suggestion.ID, r.Header.Get("X-Request-ID"))
	messages, err := ai.GenerateMessages(genCtx, h.generator, ai.ContextForSuggestion(user, suggestion, req.RecipientEmail))
	if err != nil {
		h.logger.Error("message_generation_failed",
			zap.String("suggestion_id", suggestion.ID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		if ai.IsRateLimitError(err) || ai.IsQuotaError(err) {
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "Message generation is temporarily unavailable")
			return
		}
		respondJSONErrorDetails(w, http.StatusInternalServerError, "Internal Server Error",
			"Failed to generate message", logger.SanitizeError(err))
		return
	}

	if err := h.suggestions.SetDraftMessage(ctx, suggestion.ID, messages.Advocacy); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store draft message")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
