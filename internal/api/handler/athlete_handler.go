package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/api/validation"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/service"
	"github.com/velolab/ride-coach/pkg/problem"
)

type AthleteHandler struct {
	service service.AthleteService
}

func NewAthleteHandler(service service.AthleteService) *AthleteHandler {
	return &AthleteHandler{service: service}
}

// Create handles POST /v1/athletes
// @Summary Register an athlete
// @Description Create an athlete profile with plan and optional current FTP
// @Tags athletes
// @Accept json
// @Produce json
// @Param request body domain.CreateAthleteRequest true "Athlete creation request"
// @Success 201 {object} domain.Athlete
// @Failure 400 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes [post]
func (h *AthleteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAthleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return
	}

	athlete, err := h.service.Create(r.Context(), &req)
	if err != nil {
		problem.InternalError("Failed to create athlete").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(athlete)
}

// GetByID handles GET /v1/athletes/{athleteId}
// @Summary Get athlete by ID
// @Description Get an athlete's profile by their UUID
// @Tags athletes
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Success 200 {object} domain.Athlete
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId} [get]
func (h *AthleteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	athlete, err := h.service.GetByID(r.Context(), athleteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		problem.InternalError("Failed to get athlete").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(athlete)
}

// UpsertBaseline handles PUT /v1/athletes/{athleteId}/baseline
// @Summary Set physiological baseline
// @Description Create or replace the athlete's baseline used to normalize fatigue signals
// @Tags athletes
// @Accept json
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Param request body domain.UpsertBaselineRequest true "Baseline values"
// @Success 200 {object} domain.AthleteBaseline
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/baseline [put]
func (h *AthleteHandler) UpsertBaseline(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	var req domain.UpsertBaselineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return
	}

	baseline, err := h.service.UpsertBaseline(r.Context(), athleteID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		problem.InternalError("Failed to save baseline").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(baseline)
}

// CreateGoal handles POST /v1/athletes/{athleteId}/goals
// @Summary Add a training goal
// @Description Register a training goal; multiple goals may coexist, priority breaks ties
// @Tags athletes
// @Accept json
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Param request body domain.CreateGoalRequest true "Goal definition"
// @Success 201 {object} domain.TrainingGoal
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/goals [post]
func (h *AthleteHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	var req domain.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return
	}

	goal, err := h.service.CreateGoal(r.Context(), athleteID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			problem.BadRequest(err.Error()).Write(w)
			return
		}
		problem.InternalError("Failed to create goal").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(goal)
}

// ListGoals handles GET /v1/athletes/{athleteId}/goals
// @Summary List training goals
// @Description List the athlete's goals sorted by priority
// @Tags athletes
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Success 200 {array} domain.TrainingGoal
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/goals [get]
func (h *AthleteHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	goals, err := h.service.ListGoals(r.Context(), athleteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		problem.InternalError("Failed to list goals").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(goals)
}
