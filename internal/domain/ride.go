package domain

import (
	"time"

	"github.com/google/uuid"
)

// RideSample is a single telemetry sample within a ride. Power, heart
// rate and cadence are optional: a sensor may be absent, and analyzers
// degrade the affected indicator rather than fail.
// @Description One telemetry sample; optional fields mean the sensor was absent.
type RideSample struct {
	// Seconds since ride start; strictly increasing within a ride
	ElapsedSeconds int `json:"elapsed_seconds" validate:"min=0" example:"600"`
	// Instantaneous power in watts
	PowerWatts *float64 `json:"power_watts,omitempty" example:"245"`
	// Heart rate in bpm
	HeartRateBPM *float64 `json:"heart_rate_bpm,omitempty" example:"152"`
	// Cadence in rpm
	CadenceRPM *float64 `json:"cadence_rpm,omitempty" example:"88"`
}

// PowerDurationPoint is one best-effort point of a finalized ride:
// the highest average power held for the given duration.
type PowerDurationPoint struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	RideID       uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	DurationSecs int       `gorm:"not null" json:"duration_secs"`
	PowerWatts   float64   `gorm:"not null" json:"power_watts"`
}

func (PowerDurationPoint) TableName() string {
	return "power_duration_points"
}

// RideSummary is the aggregate of a completed ride. Immutable once a
// ride is finalized: created at ride completion, never mutated.
type RideSummary struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AthleteID            uuid.UUID            `gorm:"type:uuid;not null;index:idx_rides_athlete_start" json:"athlete_id"`
	StartedAt            time.Time            `gorm:"not null;index:idx_rides_athlete_start,sort:desc" json:"started_at"`
	DurationSeconds      int                  `gorm:"not null" json:"duration_seconds"`
	AvgPowerWatts        float64              `json:"avg_power_watts"`
	NormalizedPowerWatts float64              `json:"normalized_power_watts"`
	MaxPowerWatts        float64              `json:"max_power_watts"`
	TSS                  float64              `json:"tss"`
	BestEfforts          []PowerDurationPoint `gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE" json:"best_efforts"`
	CreatedAt            time.Time            `gorm:"autoCreateTime" json:"created_at"`

	Athlete Athlete `gorm:"foreignKey:AthleteID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RideSummary) TableName() string {
	return "ride_summaries"
}

// DailyLoad is one row of the athlete's training-load series. Dates are
// strictly increasing per athlete; missing days are excluded from
// fitting, never zero-filled.
type DailyLoad struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	AthleteID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_load_athlete_date" json:"athlete_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_load_athlete_date" json:"date"`
	TSS       float64   `gorm:"not null" json:"tss"`
	CTL       float64   `gorm:"not null" json:"ctl"`
	ATL       float64   `gorm:"not null" json:"atl"`
}

func (DailyLoad) TableName() string {
	return "daily_loads"
}

// PowerDurationPointInput is one best-effort point in a ride creation request.
type PowerDurationPointInput struct {
	DurationSecs int     `json:"duration_secs" validate:"required,min=1,max=86400" example:"1200"`
	PowerWatts   float64 `json:"power_watts" validate:"required,gt=0,lt=3000" example:"268"`
}

// CreateRideRequest is the request body for finalizing a completed ride.
// @Description Request payload for recording a finalized ride summary.
type CreateRideRequest struct {
	StartedAt            time.Time                 `json:"started_at" validate:"required" example:"2024-05-12T08:30:00Z"`
	DurationSeconds      int                       `json:"duration_seconds" validate:"required,min=60,max=86400" example:"5400"`
	AvgPowerWatts        float64                   `json:"avg_power_watts" validate:"omitempty,gt=0,lt=3000" example:"198"`
	NormalizedPowerWatts float64                   `json:"normalized_power_watts" validate:"omitempty,gt=0,lt=3000" example:"214"`
	MaxPowerWatts        float64                   `json:"max_power_watts" validate:"omitempty,gt=0,lt=3000" example:"765"`
	TSS                  float64                   `json:"tss" validate:"omitempty,gte=0,lte=1000" example:"92"`
	BestEfforts          []PowerDurationPointInput `json:"best_efforts" validate:"omitempty,max=50,dive"`
}

// UpsertDailyLoadRequest records or replaces one day's training load.
type UpsertDailyLoadRequest struct {
	Date time.Time `json:"date" validate:"required"`
	TSS  float64   `json:"tss" validate:"gte=0,lte=1000"`
	CTL  float64   `json:"ctl" validate:"gte=0,lte=300"`
	ATL  float64   `json:"atl" validate:"gte=0,lte=300"`
}

// RideFilter contains filter parameters for listing rides.
type RideFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Cursor string
}

// RideListResponse is the response body for listing rides.
// @Description Paginated list of ride summaries.
type RideListResponse struct {
	Data       []RideSummary      `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse contains cursor pagination metadata.
type PaginationResponse struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more" example:"true"`
}
