package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/llm"
	"github.com/velolab/ride-coach/internal/service"
	"github.com/velolab/ride-coach/pkg/problem"
)

type CoachHandler struct {
	service service.CoachService
}

func NewCoachHandler(service service.CoachService) *CoachHandler {
	return &CoachHandler{service: service}
}

// GenerateNotes handles POST /v1/athletes/{athleteId}/coach-notes
// @Summary Generate coach notes
// @Description Aggregate the athlete's FTP prediction, workout recommendation and fitness forecast into an LLM-written narrative. The deterministic reasoning strings remain the source of truth; the narrative is additive.
// @Tags coach
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Success 200 {object} domain.CoachNotesResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Failure 503 {object} problem.Problem "LLM not configured or unavailable"
// @Router /athletes/{athleteId}/coach-notes [post]
func (h *CoachHandler) GenerateNotes(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	notes, err := h.service.GenerateNotes(r.Context(), athleteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		if errors.Is(err, domain.ErrModelUnavailable) || errors.Is(err, llm.ErrOpenAIUnavailable) {
			problem.ServiceUnavailable("Coach notes model is not available").Write(w)
			return
		}
		if errors.Is(err, domain.ErrInsufficientData) {
			problem.UnprocessableEntity(err.Error()).Write(w)
			return
		}
		problem.InternalError("Failed to generate coach notes").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notes)
}
