package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/service"
	"github.com/velolab/ride-coach/pkg/problem"
)

const defaultCurveLookbackDays = 90

type CurveHandler struct {
	service service.PDCService
}

func NewCurveHandler(service service.PDCService) *CurveHandler {
	return &CurveHandler{service: service}
}

// Get handles GET /v1/athletes/{athleteId}/power-curve
// @Summary Get power-duration curve
// @Description Best power per duration bucket over the lookback window, with the rides that produced each point
// @Tags athletes
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Param lookback_days query integer false "History window in days (7-365)" default(90)
// @Success 200 {object} domain.PowerDurationCurve
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/power-curve [get]
func (h *CurveHandler) Get(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	lookback := defaultCurveLookbackDays
	if s := r.URL.Query().Get("lookback_days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 7 || v > 365 {
			problem.BadRequest("lookback_days must be an integer between 7 and 365").Write(w)
			return
		}
		lookback = v
	}

	curve, err := h.service.BuildCurve(r.Context(), athleteID, lookback)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		problem.InternalError("Failed to build power curve").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(curve)
}
