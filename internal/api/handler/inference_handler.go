package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/api/validation"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/service"
	"github.com/velolab/ride-coach/pkg/problem"
)

// InferenceHandler serves the analyzer endpoints consumed by remote
// gateways. Responses use the wrapped envelope rather than plain JSON.
type InferenceHandler struct {
	ftp       service.FTPService
	fatigue   service.FatigueService
	recommend service.RecommendService
	forecast  service.ForecastService
	cadence   service.CadenceService
}

func NewInferenceHandler(
	ftp service.FTPService,
	fatigue service.FatigueService,
	recommend service.RecommendService,
	forecast service.ForecastService,
	cadence service.CadenceService,
) *InferenceHandler {
	return &InferenceHandler{
		ftp:       ftp,
		fatigue:   fatigue,
		recommend: recommend,
		forecast:  forecast,
		cadence:   cadence,
	}
}

// FTPPredictBody identifies the athlete alongside the prediction request.
type FTPPredictBody struct {
	AthleteID uuid.UUID `json:"athlete_id" validate:"required"`
	domain.FTPPredictRequest
}

// FatigueSampleBody identifies the athlete alongside the sample batch.
type FatigueSampleBody struct {
	AthleteID uuid.UUID `json:"athlete_id" validate:"required"`
	domain.FatigueSampleRequest
}

// RideRefBody names a ride for fatigue session operations.
type RideRefBody struct {
	RideID uuid.UUID `json:"ride_id" validate:"required"`
}

// RecommendBody identifies the athlete alongside recommendation inputs.
type RecommendBody struct {
	AthleteID uuid.UUID `json:"athlete_id" validate:"required"`
	domain.RecommendationRequest
}

// ForecastBody identifies the athlete alongside forecast inputs.
type ForecastBody struct {
	AthleteID uuid.UUID `json:"athlete_id" validate:"required"`
	domain.ForecastRequest
}

// CadenceBody identifies the athlete alongside cadence samples.
type CadenceBody struct {
	AthleteID uuid.UUID `json:"athlete_id" validate:"required"`
	domain.CadenceAnalysisRequest
}

// PredictFTP handles POST /predictions/ftp
// @Summary Predict FTP
// @Description Predict functional threshold power from the athlete's best efforts over the lookback window. Wrapped in the standard envelope.
// @Tags inference
// @Accept json
// @Produce json
// @Param request body handler.FTPPredictBody true "Prediction request"
// @Success 200 {object} domain.Envelope{data=domain.FTPPrediction}
// @Failure 400 {object} domain.Envelope
// @Failure 422 {object} domain.Envelope
// @Failure 500 {object} domain.Envelope
// @Router /predictions/ftp [post]
func (h *InferenceHandler) PredictFTP(w http.ResponseWriter, r *http.Request) {
	var body FTPPredictBody
	if !decodeEnvelopeBody(w, r, &body) {
		return
	}

	prediction, err := h.ftp.Predict(r.Context(), body.AthleteID, &body.FTPPredictRequest)
	if err != nil {
		writeEnvelopeError(w, err, "")
		return
	}
	writeEnvelope(w, http.StatusOK, prediction)
}

// EvaluateFatigue handles POST /predictions/fatigue
// @Summary Evaluate in-ride fatigue
// @Description Fold a telemetry sample batch into the ride's fatigue session and return the updated assessment.
// @Tags inference
// @Accept json
// @Produce json
// @Param request body handler.FatigueSampleBody true "Sample batch"
// @Success 200 {object} domain.Envelope{data=domain.FatigueAssessment}
// @Failure 400 {object} domain.Envelope
// @Failure 404 {object} domain.Envelope
// @Failure 500 {object} domain.Envelope
// @Router /predictions/fatigue [post]
func (h *InferenceHandler) EvaluateFatigue(w http.ResponseWriter, r *http.Request) {
	var body FatigueSampleBody
	if !decodeEnvelopeBody(w, r, &body) {
		return
	}

	assessment, err := h.fatigue.Evaluate(r.Context(), body.AthleteID, &body.FatigueSampleRequest)
	if err != nil {
		writeEnvelopeError(w, err, "")
		return
	}
	writeEnvelope(w, http.StatusOK, assessment)
}

// DismissFatigue handles POST /predictions/fatigue/dismiss
// @Summary Dismiss a fatigue alert
// @Description Acknowledge the ride's active alert and start the dismissal cooldown.
// @Tags inference
// @Accept json
// @Produce json
// @Param request body handler.RideRefBody true "Ride reference"
// @Success 200 {object} domain.Envelope{data=domain.FatigueState}
// @Failure 400 {object} domain.Envelope
// @Failure 404 {object} domain.Envelope
// @Failure 500 {object} domain.Envelope
// @Router /predictions/fatigue/dismiss [post]
func (h *InferenceHandler) DismissFatigue(w http.ResponseWriter, r *http.Request) {
	var body RideRefBody
	if !decodeEnvelopeBody(w, r, &body) {
		return
	}

	state, err := h.fatigue.Dismiss(r.Context(), body.RideID)
	if err != nil {
		writeEnvelopeError(w, err, "")
		return
	}
	writeEnvelope(w, http.StatusOK, state)
}

// EndFatigueSession handles POST /predictions/fatigue/end
// @Summary End a fatigue session
// @Description Discard the ride's in-memory fatigue session state.
// @Tags inference
// @Accept json
// @Produce json
// @Param request body handler.RideRefBody true "Ride reference"
// @Success 200 {object} domain.Envelope
// @Failure 400 {object} domain.Envelope
// @Failure 404 {object} domain.Envelope
// @Failure 500 {object} domain.Envelope
// @Router /predictions/fatigue/end [post]
func (h *InferenceHandler) EndFatigueSession(w http.ResponseWriter, r *http.Request) {
	var body RideRefBody
	if !decodeEnvelopeBody(w, r, &body) {
		return
	}

	if err := h.fatigue.EndRide(r.Context(), body.RideID); err != nil {
		writeEnvelopeError(w, err, "")
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]string{"ride_id": body.RideID.String()})
}

// RecommendWorkouts handles POST /recommendations/workouts
// @Summary Recommend workouts
// @Description Rank the workout candidate pool against goals, recency, load state and novelty.
// @Tags inference
// @Accept json
// @Produce json
// @Param request body handler.RecommendBody true "Recommendation request"
// @Success 200 {object} domain.Envelope{data=domain.RecommendationResult}
// @Failure 400 {object} domain.Envelope
// @Failure 404 {object} domain.Envelope
// @Failure 500 {object} domain.Envelope
// @Router /recommendations/workouts [post]
func (h *InferenceHandler) RecommendWorkouts(w http.ResponseWriter, r *http.Request) {
	var body RecommendBody
	if !decodeEnvelopeBody(w, r, &body) {
		return
	}

	result, err := h.recommend.Recommend(r.Context(), body.AthleteID, &body.RecommendationRequest)
	if err != nil {
		writeEnvelopeError(w, err, "")
		return
	}
	writeEnvelope(w, http.StatusOK, result)
}

// ForecastCTL handles POST /forecasts/ctl
// @Summary Forecast fitness
// @Description Project weekly CTL over the horizon with widening confidence intervals and optional event readiness.
// @Tags inference
// @Accept json
// @Produce json
// @Param request body handler.ForecastBody true "Forecast request"
// @Success 200 {object} domain.Envelope{data=domain.CTLForecast}
// @Failure 400 {object} domain.Envelope
// @Failure 422 {object} domain.Envelope
// @Failure 500 {object} domain.Envelope
// @Router /forecasts/ctl [post]
func (h *InferenceHandler) ForecastCTL(w http.ResponseWriter, r *http.Request) {
	var body ForecastBody
	if !decodeEnvelopeBody(w, r, &body) {
		return
	}

	forecast, err := h.forecast.Forecast(r.Context(), body.AthleteID, &body.ForecastRequest)
	if err != nil {
		writeEnvelopeError(w, err, "")
		return
	}
	writeEnvelope(w, http.StatusOK, forecast)
}

// AnalyzeCadence handles POST /analysis/cadence
// @Summary Analyze cadence
// @Description Compute cadence aggregates, drift, time in band and grinding detection for a ride's samples.
// @Tags inference
// @Accept json
// @Produce json
// @Param request body handler.CadenceBody true "Cadence analysis request"
// @Success 200 {object} domain.Envelope{data=domain.CadenceAnalysis}
// @Failure 400 {object} domain.Envelope
// @Failure 404 {object} domain.Envelope
// @Failure 500 {object} domain.Envelope
// @Router /analysis/cadence [post]
func (h *InferenceHandler) AnalyzeCadence(w http.ResponseWriter, r *http.Request) {
	var body CadenceBody
	if !decodeEnvelopeBody(w, r, &body) {
		return
	}

	analysis, err := h.cadence.Analyze(r.Context(), body.AthleteID, &body.CadenceAnalysisRequest)
	if err != nil {
		writeEnvelopeError(w, err, "")
		return
	}
	writeEnvelope(w, http.StatusOK, analysis)
}

// Health handles GET /health
// @Summary Health check
// @Description Liveness probe in the standard envelope.
// @Tags inference
// @Produce json
// @Success 200 {object} domain.Envelope
// @Router /health [get]
func (h *InferenceHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeEnvelopeBody decodes and validates a request body, writing an
// envelope error and returning false on failure.
func decodeEnvelopeBody(w http.ResponseWriter, r *http.Request, body any) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		validationEnvelope(w, "invalid JSON body")
		return false
	}
	if fieldErrors := validation.Validate(body); fieldErrors != nil {
		validationEnvelope(w, validationMessage(fieldErrors))
		return false
	}
	return true
}

func validationMessage(fieldErrors []problem.FieldError) string {
	msg := "invalid request"
	for _, fe := range fieldErrors {
		msg += "; " + fe.Field + " " + fe.Message
	}
	return msg
}
