package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan represents the athlete's subscription plan, which governs
// inference rate limits.
// @Description Subscription plan: FREE (50 req/day) or PRO (500 req/day).
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

type Athlete struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name            string    `gorm:"type:varchar(120);not null" json:"name"`
	Plan            Plan      `gorm:"type:varchar(10);not null;default:'FREE'" json:"plan"`
	CurrentFTPWatts *float64  `gorm:"type:numeric" json:"current_ftp_watts,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Athlete) TableName() string {
	return "athletes"
}

// AthleteBaseline holds slow-changing physiological reference values used
// to normalize in-ride fatigue signals. Owned by the athlete profile;
// analyzers treat it as read-only.
type AthleteBaseline struct {
	AthleteID uuid.UUID `gorm:"type:uuid;primaryKey" json:"athlete_id"`
	// Resting heart rate in bpm
	RestingHR float64 `gorm:"not null" json:"resting_hr"`
	// Maximum heart rate in bpm
	MaxHR float64 `gorm:"not null" json:"max_hr"`
	// Typical aerobic decoupling as a fraction (e.g. 0.05 = 5% drift)
	TypicalAerobicDecoupling float64 `gorm:"not null" json:"typical_aerobic_decoupling"`
	// Typical power variability index (normalized power / average power)
	TypicalPowerVariability float64 `gorm:"not null" json:"typical_power_variability"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AthleteBaseline) TableName() string {
	return "athlete_baselines"
}

// GoalType categorizes a training goal.
// @Description Goal type: general_fitness, event, or energy_system.
type GoalType string

const (
	GoalGeneralFitness GoalType = "general_fitness"
	GoalEvent          GoalType = "event"
	GoalEnergySystem   GoalType = "energy_system"
)

// TrainingGoal is an active training objective. Multiple goals may
// coexist; Priority breaks ties in recommendation scoring (lower is
// more important).
type TrainingGoal struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AthleteID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"athlete_id"`
	Type         GoalType     `gorm:"type:varchar(20);not null" json:"type"`
	TargetDate   *time.Time   `json:"target_date,omitempty"`
	Priority     int          `gorm:"not null;default:1" json:"priority"`
	TargetSystem EnergySystem `gorm:"type:varchar(20)" json:"target_system,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (TrainingGoal) TableName() string {
	return "training_goals"
}

// CreateAthleteRequest is the request body for registering an athlete.
// @Description Request payload for creating an athlete profile.
type CreateAthleteRequest struct {
	// Display name
	Name string `json:"name" validate:"required,max=120" example:"Jo Rider"`
	// Subscription plan
	Plan Plan `json:"plan" validate:"omitempty,oneof=FREE PRO" example:"FREE"`
	// Current FTP in watts, if known
	CurrentFTPWatts *float64 `json:"current_ftp_watts,omitempty" validate:"omitempty,gt=0,lt=2000" example:"250"`
}

// UpsertBaselineRequest is the request body for setting baseline values.
// @Description Request payload for the athlete's physiological baseline.
type UpsertBaselineRequest struct {
	RestingHR                float64 `json:"resting_hr" validate:"required,gt=20,lt=120" example:"48"`
	MaxHR                    float64 `json:"max_hr" validate:"required,gt=100,lt=230,gtfield=RestingHR" example:"188"`
	TypicalAerobicDecoupling float64 `json:"typical_aerobic_decoupling" validate:"required,gt=0,lt=0.5" example:"0.05"`
	TypicalPowerVariability  float64 `json:"typical_power_variability" validate:"required,gte=1,lt=2" example:"1.06"`
}

// CreateGoalRequest is the request body for adding a training goal.
type CreateGoalRequest struct {
	Type         GoalType     `json:"type" validate:"required,oneof=general_fitness event energy_system"`
	TargetDate   *time.Time   `json:"target_date,omitempty"`
	Priority     int          `json:"priority" validate:"omitempty,min=1,max=10"`
	TargetSystem EnergySystem `json:"target_system,omitempty" validate:"omitempty,oneof=endurance tempo threshold vo2max anaerobic sprint"`
}
