package domain

import (
	"time"

	"github.com/google/uuid"
)

// FatigueSeverity grades a fatigue alert.
// @Description Alert severity: mild, moderate, or severe.
type FatigueSeverity string

const (
	SeverityMild     FatigueSeverity = "mild"
	SeverityModerate FatigueSeverity = "moderate"
	SeveritySevere   FatigueSeverity = "severe"
)

// FatiguePhase is the analyzer's state for an active ride.
type FatiguePhase string

const (
	PhaseMonitoring FatiguePhase = "monitoring"
	PhaseAlerted    FatiguePhase = "alerted"
	PhaseDismissed  FatiguePhase = "dismissed"
)

// FatigueIndicators holds the drift signals computed over the sliding
// window. Nil means the indicator is absent (missing sensor), which is
// distinct from zero.
type FatigueIndicators struct {
	// Relative HR:power ratio drift between window halves
	AerobicDecouplingScore *float64 `json:"aerobic_decoupling_score,omitempty" example:"0.07"`
	// Normalized power / average power within the window
	PowerVariabilityIndex *float64 `json:"power_variability_index,omitempty" example:"1.12"`
	// HR-derived fatigue proxy; absent without heart-rate data
	HRVFatigueIndicator *float64 `json:"hrv_fatigue_indicator,omitempty"`
}

// FatigueState is the per-ride fatigue state machine snapshot. Created
// when a ride session starts, mutated on each sample batch, discarded
// when the ride ends.
type FatigueState struct {
	RideID         uuid.UUID         `json:"ride_id"`
	Phase          FatiguePhase      `json:"phase"`
	Indicators     FatigueIndicators `json:"indicators"`
	AlertTriggered bool              `json:"alert_triggered"`
	Severity       FatigueSeverity   `json:"severity,omitempty"`
	LastAlertAt    *time.Time        `json:"last_alert_at,omitempty"`
	DismissedUntil *time.Time        `json:"dismissed_until,omitempty"`
	// A severe breach occurred during an active cooldown and was
	// suppressed rather than escalated
	SuppressedSevere bool      `json:"suppressed_severe,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FatigueSampleRequest is the request body for evaluating a sample batch.
// @Description In-ride sample batch for fatigue evaluation.
type FatigueSampleRequest struct {
	RideID           uuid.UUID    `json:"ride_id" validate:"required"`
	TargetPowerWatts float64      `json:"target_power_watts" validate:"required,gt=0,lt=2000" example:"230"`
	Samples          []RideSample `json:"samples" validate:"required,min=1,max=7200,dive"`
}

// FatigueAssessment is the analyzer's answer for one sample batch.
type FatigueAssessment struct {
	State FatigueState `json:"state"`
	// Which signals breached their baseline-scaled bounds
	BreachedSignals []string  `json:"breached_signals,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}
