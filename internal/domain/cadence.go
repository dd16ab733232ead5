package domain

import (
	"time"

	"github.com/google/uuid"
)

// CadenceAnalysisRequest is the request body for cadence analysis.
// @Description In-ride sample series for cadence analysis.
type CadenceAnalysisRequest struct {
	RideID  uuid.UUID    `json:"ride_id" validate:"required"`
	Samples []RideSample `json:"samples" validate:"required,min=1,max=7200,dive"`
	// Preferred cadence band; defaults to 80-95 rpm
	BandLowRPM  float64 `json:"band_low_rpm,omitempty" validate:"omitempty,gt=30,lt=130" example:"80"`
	BandHighRPM float64 `json:"band_high_rpm,omitempty" validate:"omitempty,gt=40,lt=160,gtfield=BandLowRPM" example:"95"`
}

// CadenceAnalysis is the cadence analyzer's answer. All indicator
// fields are absent (nil) when no cadence sensor was present.
type CadenceAnalysis struct {
	AvgCadenceRPM *float64 `json:"avg_cadence_rpm,omitempty" example:"87.2"`
	MaxCadenceRPM *float64 `json:"max_cadence_rpm,omitempty" example:"118"`
	// Relative cadence change between ride halves, negative = fading
	DriftPercent *float64 `json:"drift_percent,omitempty" example:"-3.4"`
	// Share of pedaling time spent inside the preferred band
	TimeInBandPercent *float64 `json:"time_in_band_percent,omitempty" example:"64.5"`
	// Sustained low-cadence, high-power pedaling detected
	GrindingDetected bool      `json:"grinding_detected"`
	BandLowRPM       float64   `json:"band_low_rpm" example:"80"`
	BandHighRPM      float64   `json:"band_high_rpm" example:"95"`
	ComputedAt       time.Time `json:"computed_at"`
}
