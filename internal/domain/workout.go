package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnergySystem is a physiological training category.
// @Description Energy system: endurance, tempo, threshold, vo2max, anaerobic, sprint.
type EnergySystem string

const (
	SystemEndurance EnergySystem = "endurance"
	SystemTempo     EnergySystem = "tempo"
	SystemThreshold EnergySystem = "threshold"
	SystemVO2Max    EnergySystem = "vo2max"
	SystemAnaerobic EnergySystem = "anaerobic"
	SystemSprint    EnergySystem = "sprint"
)

// AllEnergySystems lists every known system, in rough intensity order.
var AllEnergySystems = []EnergySystem{
	SystemEndurance, SystemTempo, SystemThreshold,
	SystemVO2Max, SystemAnaerobic, SystemSprint,
}

// WorkoutSource tags where a workout came from. The recommender never
// branches on source except to echo it in output.
type WorkoutSource string

const (
	SourceBuiltIn WorkoutSource = "built_in"
	SourceUser    WorkoutSource = "user"
)

// Workout is a library entry, built-in or user-imported. Energy systems
// are stored comma-separated; use Systems to read them.
type Workout struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"workout_id"`
	AthleteID       *uuid.UUID    `gorm:"type:uuid;index" json:"athlete_id,omitempty"`
	Source          WorkoutSource `gorm:"type:varchar(10);not null" json:"source"`
	Name            string        `gorm:"type:varchar(120);not null" json:"name"`
	EnergySystems   string        `gorm:"type:varchar(120);not null" json:"-"`
	DurationMinutes int           `gorm:"not null" json:"duration_minutes"`
	ExpectedTSS     float64       `gorm:"not null" json:"expected_tss"`
	Difficulty      int           `gorm:"not null" json:"difficulty"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (Workout) TableName() string {
	return "workouts"
}

// Systems parses the stored energy system list.
func (w Workout) Systems() []EnergySystem {
	if w.EnergySystems == "" {
		return nil
	}
	parts := strings.Split(w.EnergySystems, ",")
	systems := make([]EnergySystem, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			systems = append(systems, EnergySystem(s))
		}
	}
	return systems
}

// Candidate converts a library entry into the scoreable view the
// recommender consumes.
func (w Workout) Candidate() WorkoutCandidate {
	return WorkoutCandidate{
		WorkoutID:       w.ID,
		Source:          w.Source,
		Name:            w.Name,
		EnergySystems:   w.Systems(),
		DurationMinutes: w.DurationMinutes,
		ExpectedTSS:     w.ExpectedTSS,
		Difficulty:      w.Difficulty,
	}
}

// WorkoutCandidate is the common scoreable view over built-in and user
// workouts: one tagged-variant pool rather than a type hierarchy.
type WorkoutCandidate struct {
	WorkoutID       uuid.UUID      `json:"workout_id"`
	Source          WorkoutSource  `json:"source"`
	Name            string         `json:"name"`
	EnergySystems   []EnergySystem `json:"energy_systems"`
	DurationMinutes int            `json:"duration_minutes"`
	ExpectedTSS     float64        `json:"expected_tss"`
	Difficulty      int            `json:"difficulty"`
}

// CreateWorkoutRequest imports a user workout into the library.
// @Description Request payload for importing a user workout.
type CreateWorkoutRequest struct {
	Name            string         `json:"name" validate:"required,max=120" example:"2x20 Threshold"`
	EnergySystems   []EnergySystem `json:"energy_systems" validate:"required,min=1,max=6,dive,oneof=endurance tempo threshold vo2max anaerobic sprint"`
	DurationMinutes int            `json:"duration_minutes" validate:"required,min=10,max=480" example:"75"`
	ExpectedTSS     float64        `json:"expected_tss" validate:"required,gt=0,lte=500" example:"85"`
	Difficulty      int            `json:"difficulty" validate:"required,min=1,max=10" example:"7"`
}

// LoadStatus classifies the athlete's acute:chronic load state.
// @Description Load status from the ACWR band: optimal, overreaching, or undertrained.
type LoadStatus string

const (
	LoadOptimal      LoadStatus = "optimal"
	LoadOverreaching LoadStatus = "overreaching"
	LoadUndertrained LoadStatus = "undertrained"
)

// RecommendationRequest is the request body for workout recommendations.
// @Description Request payload for ranking the workout candidate pool.
type RecommendationRequest struct {
	// Time the athlete has available; longer workouts are excluded
	AvailableMinutes int `json:"available_minutes" validate:"required,min=10,max=480" example:"90"`
	// Workout IDs completed recently, penalized for novelty
	RecentlyCompleted []uuid.UUID `json:"recently_completed,omitempty" validate:"omitempty,max=50"`
	// Days since each energy system was last trained; missing systems
	// are treated as long-untrained
	DaysSinceSystem map[EnergySystem]int `json:"days_since_system,omitempty"`
}

// ScoreBreakdown records each weighted term of a candidate's score so
// the reasoning string can be tested rather than guessed.
type ScoreBreakdown struct {
	GoalAlignment float64 `json:"goal_alignment"`
	RecencyGap    float64 `json:"recency_gap"`
	LoadFit       float64 `json:"load_fit"`
	Novelty       float64 `json:"novelty"`
}

// RankedWorkout is one recommendation with its evidence.
type RankedWorkout struct {
	Candidate        WorkoutCandidate `json:"candidate"`
	SuitabilityScore float64          `json:"suitability_score" example:"0.82"`
	Breakdown        ScoreBreakdown   `json:"breakdown"`
	Reasoning        string           `json:"reasoning" example:"targets threshold goal; vo2max untrained for 12 days"`
}

// RecommendationResult is the recommender's answer.
// @Description Ranked workout recommendations with load context.
type RecommendationResult struct {
	Rankings []RankedWorkout `json:"rankings"`
	// Largest days-since energy system, as a narrative
	TrainingGap string     `json:"training_gap" example:"sprint has not been trained in 21 days"`
	LoadStatus  LoadStatus `json:"load_status" example:"optimal"`
	ACWR        float64    `json:"acwr" example:"1.05"`
	ComputedAt  time.Time  `json:"computed_at"`
}
