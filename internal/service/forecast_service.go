package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultHorizonWeeks is the default forecast length.
	DefaultHorizonWeeks = 8

	// MinWeeklyPoints is the minimum weekly aggregates for a fit.
	MinWeeklyPoints = 4

	// trendNoiseThreshold separates improving/declining from stable,
	// in CTL points per week.
	trendNoiseThreshold = 0.5

	// plateauSlopeThreshold and plateauWindowWeeks define a plateau.
	plateauSlopeThreshold = 0.3
	plateauWindowWeeks    = 3

	// ctlTimeConstantDays is the CTL EWMA time constant. Raising CTL by
	// r points/week requires a weekly TSS surplus of about 42*r.
	ctlTimeConstantDays = 42.0

	// detrainingATLRatio flags sustained load reduction when recent ATL
	// falls this far below CTL.
	detrainingATLRatio = 0.8

	// ciZ is the 95% z-score for the interval width.
	ciZ = 1.96
)

// ForecastService projects future training load from the athlete's
// daily load series.
type ForecastService interface {
	Forecast(ctx context.Context, athleteID uuid.UUID, req *domain.ForecastRequest) (*domain.CTLForecast, error)
}

type forecastService struct {
	rideRepo    repository.RideRepository
	athleteRepo repository.AthleteRepository
}

// NewForecastService creates a new ForecastService.
func NewForecastService(rideRepo repository.RideRepository, athleteRepo repository.AthleteRepository) ForecastService {
	return &forecastService{rideRepo: rideRepo, athleteRepo: athleteRepo}
}

func (s *forecastService) Forecast(ctx context.Context, athleteID uuid.UUID, req *domain.ForecastRequest) (*domain.CTLForecast, error) {
	tracer := otel.Tracer("ride-coach-api/forecast")
	ctx, span := tracer.Start(ctx, "ForecastService.Forecast",
		trace.WithAttributes(attribute.String("athlete.id", athleteID.String())),
	)
	defer span.End()

	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	lookbackDays := req.LookbackDays
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	horizon := req.HorizonWeeks
	if horizon <= 0 {
		horizon = DefaultHorizonWeeks
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -lookbackDays)
	loads, err := s.rideRepo.ListDailyLoads(ctx, athleteID, from, now)
	if err != nil {
		return nil, err
	}

	forecast, err := ForecastCTL(loads, horizon, req.TargetEvent, now)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("forecast.trend", string(forecast.Trend)),
		attribute.Float64("forecast.slope_per_week", forecast.SlopePerWeek),
	)
	return forecast, nil
}

// weeklyPoint is one weekly CTL aggregate.
type weeklyPoint struct {
	weekStart time.Time
	meanCTL   float64
}

// ForecastCTL fits a linear trend over weekly-aggregated CTL and
// projects it forward with widening confidence bounds. Days missing
// from the series are excluded from fitting, not zero-filled.
func ForecastCTL(loads []domain.DailyLoad, horizonWeeks int, event *domain.TargetEventInput, now time.Time) (*domain.CTLForecast, error) {
	weekly := aggregateWeekly(loads)
	if len(weekly) < MinWeeklyPoints {
		return nil, domain.ErrInsufficientData
	}

	slope, intercept := linearFit(weekly)
	sigma := residualStd(weekly, slope, intercept)
	lastIdx := float64(len(weekly) - 1)
	lastWeek := weekly[len(weekly)-1].weekStart

	weeks := make([]domain.ProjectedWeek, 0, horizonWeeks)
	for k := 1; k <= horizonWeeks; k++ {
		projected := intercept + slope*(lastIdx+float64(k))
		if projected < 0 {
			projected = 0
		}
		// Uncertainty compounds with forecast distance.
		margin := ciZ * sigma * math.Sqrt(float64(k))
		weeks = append(weeks, domain.ProjectedWeek{
			Date:           lastWeek.AddDate(0, 0, 7*k),
			ProjectedCTL:   round1(projected),
			ConfidenceLow:  round1(math.Max(0, projected-margin)),
			ConfidenceHigh: round1(projected + margin),
		})
	}

	forecast := &domain.CTLForecast{
		Weeks:          weeks,
		Trend:          classifyTrend(slope),
		SlopePerWeek:   round2(slope),
		Plateau:        detectPlateau(weekly),
		DetrainingRisk: detectDetrainingRisk(loads, slope),
		ComputedAt:     now,
	}

	if event != nil {
		forecast.Event = scoreEvent(event, weekly, slope, intercept, now)
	}
	return forecast, nil
}

// aggregateWeekly groups the series into ISO weeks and averages CTL.
func aggregateWeekly(loads []domain.DailyLoad) []weeklyPoint {
	byWeek := make(map[time.Time][]float64)
	for _, load := range loads {
		week := weekStart(load.Date)
		byWeek[week] = append(byWeek[week], load.CTL)
	}

	points := make([]weeklyPoint, 0, len(byWeek))
	for week, values := range byWeek {
		points = append(points, weeklyPoint{weekStart: week, meanCTL: mean(values)})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].weekStart.Before(points[j].weekStart)
	})
	return points
}

// weekStart returns the Monday of the date's ISO week.
func weekStart(date time.Time) time.Time {
	date = date.UTC().Truncate(24 * time.Hour)
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return date.AddDate(0, 0, -(weekday - 1))
}

// linearFit is an ordinary least-squares fit over week index.
func linearFit(points []weeklyPoint) (slope, intercept float64) {
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.meanCTL
		sumXY += x * p.meanCTL
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func residualStd(points []weeklyPoint, slope, intercept float64) float64 {
	if len(points) < 3 {
		return 0
	}
	var sumSquares float64
	for i, p := range points {
		predicted := intercept + slope*float64(i)
		diff := p.meanCTL - predicted
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(points)-2))
}

func classifyTrend(slope float64) domain.TrendType {
	switch {
	case slope > trendNoiseThreshold:
		return domain.TrendImproving
	case slope < -trendNoiseThreshold:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

// detectPlateau checks whether the recent slope magnitude stayed under
// the plateau threshold for the sustained window.
func detectPlateau(points []weeklyPoint) bool {
	if len(points) < plateauWindowWeeks+1 {
		return false
	}
	recent := points[len(points)-(plateauWindowWeeks+1):]
	slope, _ := linearFit(recent)
	return math.Abs(slope) < plateauSlopeThreshold
}

// detectDetrainingRisk flags a sustained load reduction: recent ATL
// well below CTL while the trend falls.
func detectDetrainingRisk(loads []domain.DailyLoad, slope float64) bool {
	if slope >= 0 || len(loads) == 0 {
		return false
	}
	n := 7
	if len(loads) < n {
		n = len(loads)
	}
	recent := loads[len(loads)-n:]
	var atlSum, ctlSum float64
	for _, load := range recent {
		atlSum += load.ATL
		ctlSum += load.CTL
	}
	if ctlSum == 0 {
		return false
	}
	return atlSum/ctlSum < detrainingATLRatio
}

// scoreEvent projects the fitted trend through the event date and
// derives the corrective TSS delta analytically from the CTL time
// constant, not as prose.
func scoreEvent(event *domain.TargetEventInput, weekly []weeklyPoint, slope, intercept float64, now time.Time) *domain.EventReadiness {
	lastIdx := float64(len(weekly) - 1)
	lastWeek := weekly[len(weekly)-1].weekStart
	currentCTL := weekly[len(weekly)-1].meanCTL

	weeksToEvent := event.Date.Sub(lastWeek).Hours() / (24 * 7)
	if weeksToEvent < 0 {
		weeksToEvent = 0
	}

	projected := intercept + slope*(lastIdx+weeksToEvent)
	if projected < 0 {
		projected = 0
	}
	gap := event.TargetCTL - projected
	onTrack := projected >= event.TargetCTL

	readiness := &domain.EventReadiness{
		EventDate:           event.Date,
		TargetCTL:           event.TargetCTL,
		ProjectedCTLAtEvent: round1(projected),
		Gap:                 round1(gap),
		OnTrack:             onTrack,
	}

	if onTrack || weeksToEvent <= 0 {
		readiness.Recommendation = "current trend reaches the target; hold the present weekly load"
		return readiness
	}

	neededSlope := (event.TargetCTL - currentCTL) / weeksToEvent
	delta := ctlTimeConstantDays * (neededSlope - slope)
	if delta < 0 {
		delta = 0
	}
	readiness.RequiredWeeklyTSSDelta = round1(delta)
	readiness.Recommendation = fmt.Sprintf(
		"add about %.0f TSS per week to close a %.1f CTL gap in %.0f weeks",
		readiness.RequiredWeeklyTSSDelta, math.Abs(gap), math.Ceil(weeksToEvent),
	)
	return readiness
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
