package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/logger"
	"github.com/enp09/duende/internal/models"
	"github.com/enp09/duende/internal/services/planning"
	"github.com/enp09/duende/internal/validation"
)

// PlanningSavedMessage is returned after a weekly plan is stored.
const PlanningSavedMessage = "Planning data saved successfully"

// Planner saves and loads weekly plans.
type Planner interface {
	Save(ctx context.Context, userID uuid.UUID, answers *models.PlanningAnswers, blocks []models.ProtectionBlock) (int, error)
	Load(ctx context.Context, userID uuid.UUID) (*planning.Plan, error)
}

// PlanningHandler serves the weekly planning endpoints.
type PlanningHandler struct {
	planner Planner
	logger  *zap.Logger
}

// NewPlanningHandler creates a planning handler
func NewPlanningHandler(planner Planner, log *zap.Logger) *PlanningHandler {
	return &PlanningHandler{planner: planner, logger: log}
}

// RegisterRoutes registers planning routes on a router already prefixed with /planning.
func (h *PlanningHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Load).Methods(http.MethodGet)
	r.HandleFunc("", h.Save).Methods(http.MethodPost)
}

// SavePlanningRequest is the body of POST /planning. Omitted answers keep the stored
// settings; omitted protection_blocks keep the stored week.
type SavePlanningRequest struct {
	UserID           string                   `json:"user_id"`
	Answers          *models.PlanningAnswers  `json:"answers,omitempty"`
	ProtectionBlocks []models.ProtectionBlock `json:"protection_blocks,omitempty"`
}

// SavePlanningResponse is the payload of a successful save.
type SavePlanningResponse struct {
	Message     string `json:"message"`
	SavedBlocks int    `json:"saved_blocks"`
}

// Save stores planning answers and replaces this week's protection blocks.
func (h *PlanningHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SavePlanningRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	userID, err := validation.ParseUserID(req.UserID)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.Answers != nil {
		if err := validation.Validate.Struct(req.Answers); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "answers are limited to 200 characters, intentions to 2000")
			return
		}
	}
	if err := validation.ProtectionBlocks(req.ProtectionBlocks); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", sanitizeErrorMessage(err.Error()))
		return
	}

	saved, err := h.planner.Save(r.Context(), userID, req.Answers, req.ProtectionBlocks)
	switch {
	case errors.Is(err, planning.ErrUserNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	case errors.Is(err, planning.ErrInvalidBlock):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", sanitizeErrorMessage(err.Error()))
		return
	case err != nil:
		h.logger.Error("planning_save_failed",
			zap.String("user_id", userID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save planning data")
		return
	}

	respondJSON(w, http.StatusOK, SavePlanningResponse{Message: PlanningSavedMessage, SavedBlocks: saved})
}

// Load returns this week's planning answers and protection blocks.
func (h *PlanningHandler) Load(w http.ResponseWriter, r *http.Request) {
	userID, err := validation.ParseUserID(r.URL.Query().Get("user_id"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	plan, err := h.planner.Load(r.Context(), userID)
	switch {
	case errors.Is(err, planning.ErrUserNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	case err != nil:
		h.logger.Error("planning_load_failed",
			zap.String("user_id", userID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load planning data")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}
