package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/api/validation"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/fitingest"
	"github.com/velolab/ride-coach/internal/service"
	"github.com/velolab/ride-coach/pkg/problem"
)

// maxFITUploadBytes bounds FIT activity uploads.
const maxFITUploadBytes = 25 << 20

type RideHandler struct {
	rides    service.RideService
	athletes service.AthleteService
}

func NewRideHandler(rides service.RideService, athletes service.AthleteService) *RideHandler {
	return &RideHandler{rides: rides, athletes: athletes}
}

// Create handles POST /v1/athletes/{athleteId}/rides
// @Summary Record a finalized ride
// @Description Persist a completed ride summary with its best-effort power curve. Summaries are immutable once created.
// @Tags rides
// @Accept json
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Param request body domain.CreateRideRequest true "Ride summary"
// @Success 201 {object} domain.RideSummary
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/rides [post]
func (h *RideHandler) Create(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	var req domain.CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return
	}

	ride, err := h.rides.Create(r.Context(), athleteID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			problem.BadRequest(err.Error()).Write(w)
			return
		}
		problem.InternalError("Failed to create ride").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ride)
}

// UploadFIT handles POST /v1/athletes/{athleteId}/rides/fit
// @Summary Import a FIT activity file
// @Description Decode a Garmin FIT activity, summarize it (avg/NP/max power, TSS against the athlete's current FTP, best-effort curve) and persist the ride.
// @Tags rides
// @Accept mpfd
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Param file formData file true "FIT activity file"
// @Success 201 {object} domain.RideSummary
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/rides/fit [post]
func (h *RideHandler) UploadFIT(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	athlete, err := h.athletes.GetByID(r.Context(), athleteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		problem.InternalError("Failed to get athlete").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFITUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		problem.BadRequest("Expected multipart form with a 'file' field").Write(w)
		return
	}
	defer file.Close()

	decoded, err := fitingest.DecodeActivity(file)
	if err != nil {
		problem.BadRequest("Failed to decode FIT activity: " + err.Error()).Write(w)
		return
	}

	// TSS needs an FTP reference; without one it is left at zero.
	ftp := 0.0
	if athlete.CurrentFTPWatts != nil {
		ftp = *athlete.CurrentFTPWatts
	}
	req := fitingest.Summarize(decoded, ftp)

	ride, err := h.rides.Create(r.Context(), athleteID, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			problem.BadRequest(err.Error()).Write(w)
			return
		}
		problem.InternalError("Failed to persist decoded ride").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ride)
}

// List handles GET /v1/athletes/{athleteId}/rides
// @Summary List rides
// @Description Fetch paginated ride history, newest first. Filter by start date range.
// @Tags rides
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Param from query string false "Start of date range (RFC3339)" format(date-time)
// @Param to query string false "End of date range (RFC3339)" format(date-time)
// @Param limit query integer false "Results per page (1-100)" default(20) minimum(1) maximum(100)
// @Param cursor query string false "Cursor from previous response's next_cursor"
// @Success 200 {object} domain.RideListResponse
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/rides [get]
func (h *RideHandler) List(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	filter, fieldErrors := parseRideFilter(r)
	if fieldErrors != nil {
		problem.ValidationError("Invalid query parameters", fieldErrors).Write(w)
		return
	}

	response, err := h.rides.List(r.Context(), athleteID, filter)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			problem.BadRequest(err.Error()).Write(w)
			return
		}
		problem.InternalError("Failed to list rides").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// UpsertDailyLoad handles PUT /v1/athletes/{athleteId}/loads
// @Summary Import one day of training load
// @Description Record or replace one day's TSS/CTL/ATL entry, e.g. when importing an external load history.
// @Tags rides
// @Accept json
// @Produce json
// @Param athleteId path string true "Athlete UUID" format(uuid)
// @Param request body domain.UpsertDailyLoadRequest true "Daily load entry"
// @Success 200 {object} domain.DailyLoad
// @Failure 400 {object} problem.Problem
// @Failure 404 {object} problem.Problem
// @Failure 422 {object} problem.Problem
// @Failure 500 {object} problem.Problem
// @Router /athletes/{athleteId}/loads [put]
func (h *RideHandler) UpsertDailyLoad(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "athleteId"))
	if err != nil {
		problem.BadRequest("Invalid athlete ID format").Write(w)
		return
	}

	var req domain.UpsertDailyLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return
	}

	load, err := h.rides.UpsertDailyLoad(r.Context(), athleteID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Athlete not found").Write(w)
			return
		}
		problem.InternalError("Failed to save daily load").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(load)
}

func parseRideFilter(r *http.Request) (domain.RideFilter, []problem.FieldError) {
	var filter domain.RideFilter
	var fieldErrors []problem.FieldError

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "from",
				Message: "must be a valid RFC3339 timestamp",
			})
		} else {
			filter.From = &from
		}
	}

	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "to",
				Message: "must be a valid RFC3339 timestamp",
			})
		} else {
			filter.To = &to
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "limit",
				Message: "must be a positive integer",
			})
		} else {
			filter.Limit = limit
		}
	}

	filter.Cursor = r.URL.Query().Get("cursor")

	if len(fieldErrors) > 0 {
		return filter, fieldErrors
	}

	return filter, nil
}
