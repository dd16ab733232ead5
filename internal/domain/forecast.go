package domain

import "time"

// TrendType classifies the fitted CTL slope.
// @Description Fitness trend: improving, stable, or declining.
type TrendType string

const (
	TrendImproving TrendType = "improving"
	TrendStable    TrendType = "stable"
	TrendDeclining TrendType = "declining"
)

// TargetEventInput names a goal event to score readiness against.
type TargetEventInput struct {
	Date      time.Time `json:"date" validate:"required"`
	TargetCTL float64   `json:"target_ctl" validate:"required,gt=0,lte=300" example:"80"`
}

// ForecastRequest is the request body for a CTL forecast.
// @Description Request payload for projecting future training load.
type ForecastRequest struct {
	// Forecast horizon in weeks (default 8)
	HorizonWeeks int `json:"horizon_weeks,omitempty" validate:"omitempty,min=1,max=52" example:"12"`
	// History window in days (default 90)
	LookbackDays int `json:"lookback_days,omitempty" validate:"omitempty,min=14,max=365" example:"90"`
	// Optional goal event
	TargetEvent *TargetEventInput `json:"target_event,omitempty"`
}

// ProjectedWeek is one forecast point. The confidence interval widens
// with forecast distance.
type ProjectedWeek struct {
	Date           time.Time `json:"date"`
	ProjectedCTL   float64   `json:"projected_ctl" example:"68.4"`
	ConfidenceLow  float64   `json:"confidence_low" example:"64.1"`
	ConfidenceHigh float64   `json:"confidence_high" example:"72.7"`
}

// EventReadiness scores the projection against a goal event.
type EventReadiness struct {
	EventDate           time.Time `json:"event_date"`
	TargetCTL           float64   `json:"target_ctl" example:"80"`
	ProjectedCTLAtEvent float64   `json:"projected_ctl_at_event" example:"74.6"`
	// target minus projected; positive means behind
	Gap     float64 `json:"gap" example:"5.4"`
	OnTrack bool    `json:"on_track" example:"false"`
	// Weekly TSS increase needed to close the gap by the event date
	RequiredWeeklyTSSDelta float64 `json:"required_weekly_tss_delta" example:"47"`
	Recommendation         string  `json:"recommendation"`
}

// CTLForecast is the forecaster's answer.
// @Description Multi-week CTL projection with trend classification.
type CTLForecast struct {
	Weeks        []ProjectedWeek `json:"weeks"`
	Trend        TrendType       `json:"trend" example:"improving"`
	SlopePerWeek float64         `json:"slope_per_week" example:"0.8"`
	// Recent slope magnitude has stayed under the plateau threshold
	Plateau bool `json:"plateau"`
	// Sustained load reduction pattern in ATL vs CTL
	DetrainingRisk bool            `json:"detraining_risk"`
	Event          *EventReadiness `json:"event,omitempty"`
	ComputedAt     time.Time       `json:"computed_at"`
}
