package domain

import (
	"time"

	"github.com/google/uuid"
)

// PDCPoint is one point of an athlete's power-duration curve: the best
// power observed for a duration bucket across the lookback window,
// together with the ride that produced it.
type PDCPoint struct {
	DurationSecs int       `json:"duration_secs"`
	PowerWatts   float64   `json:"power_watts"`
	RideID       uuid.UUID `json:"ride_id"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// PowerDurationCurve maps duration to best power over a lookback
// window. The physiological expectation is power(d1) >= power(d2) for
// d1 < d2, but violations are surfaced as low-confidence signals, not
// rejected.
type PowerDurationCurve struct {
	// Points sorted by ascending duration
	Points []PDCPoint `json:"points"`
	// Lookback window the curve was built from
	LookbackDays int `json:"lookback_days"`
	// True when a shorter duration has lower power than a longer one
	ShapeViolation bool `json:"shape_violation"`
}

// FTPMethod selects how the FTP predictor picks its duration class.
// @Description Prediction method: auto, extended_duration, or ramp.
type FTPMethod string

const (
	FTPMethodAuto             FTPMethod = "auto"
	FTPMethodExtendedDuration FTPMethod = "extended_duration"
	FTPMethodRamp             FTPMethod = "ramp"
)

// Confidence grades how well supported a prediction is.
// @Description Prediction confidence: high, medium, or low.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SupportingEffort is one piece of evidence behind a prediction: the
// literal ride effort the number was derived from. Every non-error
// prediction carries at least one.
type SupportingEffort struct {
	RideID       uuid.UUID `json:"ride_id"`
	DurationSecs int       `json:"duration_secs"`
	PowerWatts   float64   `json:"power_watts"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// FTPPredictRequest is the request body for FTP prediction.
// @Description Request payload for predicting functional threshold power.
type FTPPredictRequest struct {
	// Athlete's current FTP, for a signed comparison in the response
	CurrentFTPWatts *float64 `json:"current_ftp_watts,omitempty" validate:"omitempty,gt=0,lt=2000" example:"250"`
	// Preferred prediction method
	PreferredMethod FTPMethod `json:"preferred_method,omitempty" validate:"omitempty,oneof=auto extended_duration ramp" example:"auto"`
	// History window in days (default 90)
	LookbackDays int `json:"lookback_days,omitempty" validate:"omitempty,min=7,max=365" example:"90"`
}

// FTPPrediction is the FTP predictor's answer.
// @Description Predicted FTP with confidence bounds and supporting evidence.
type FTPPrediction struct {
	PredictedFTPWatts float64    `json:"predicted_ftp_watts" example:"255"`
	Confidence        Confidence `json:"confidence" example:"high"`
	ConfidenceLow     float64    `json:"confidence_low" example:"242.3"`
	ConfidenceHigh    float64    `json:"confidence_high" example:"267.8"`
	Method            FTPMethod  `json:"method" example:"extended_duration"`
	// Duration class the coefficient was applied to, in seconds
	DurationClassSecs int `json:"duration_class_secs" example:"1200"`
	// Set only when current_ftp_watts was supplied
	DiffersFromCurrent *bool    `json:"differs_from_current,omitempty" example:"true"`
	DifferencePercent  *float64 `json:"difference_percent,omitempty" example:"2.0"`
	// The literal efforts the prediction was derived from
	SupportingEfforts []SupportingEffort `json:"supporting_efforts"`
	ComputedAt        time.Time          `json:"computed_at"`
}
