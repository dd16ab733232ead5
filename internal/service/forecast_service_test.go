package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
)

// forecastMonday is a Monday, so weekly aggregation starts cleanly.
var forecastMonday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// weeklyLoads emits one daily load per day for each given weekly CTL
// mean, held constant across the week.
func weeklyLoads(weekCTL []float64, atlRatio float64) []domain.DailyLoad {
	var loads []domain.DailyLoad
	for w, ctl := range weekCTL {
		for d := 0; d < 7; d++ {
			loads = append(loads, domain.DailyLoad{
				Date: forecastMonday.AddDate(0, 0, w*7+d),
				TSS:  ctl,
				CTL:  ctl,
				ATL:  ctl * atlRatio,
			})
		}
	}
	return loads
}

// risingWeeks produces a perfectly linear CTL series ending at endCTL.
func risingWeeks(n int, endCTL, slope float64) []float64 {
	weeks := make([]float64, n)
	for i := range weeks {
		weeks[i] = endCTL - slope*float64(n-1-i)
	}
	return weeks
}

func TestForecastCTLImprovingTrendWithEventGap(t *testing.T) {
	now := forecastMonday.AddDate(0, 0, 8*7)
	loads := weeklyLoads(risingWeeks(8, 65, 0.8), 1.0)

	lastWeek := forecastMonday.AddDate(0, 0, 7*7)
	event := &domain.TargetEventInput{
		Date:      lastWeek.AddDate(0, 0, 12*7),
		TargetCTL: 80,
	}

	forecast, err := ForecastCTL(loads, 8, event, now)
	if err != nil {
		t.Fatalf("ForecastCTL() error = %v", err)
	}

	if forecast.Trend != domain.TrendImproving {
		t.Errorf("trend = %s, want improving", forecast.Trend)
	}
	if forecast.SlopePerWeek != 0.8 {
		t.Errorf("slope = %v, want 0.8", forecast.SlopePerWeek)
	}
	if forecast.Plateau {
		t.Error("a steady 0.8/week ramp is not a plateau")
	}
	if forecast.DetrainingRisk {
		t.Error("detraining risk flagged on a rising trend")
	}
	if len(forecast.Weeks) != 8 {
		t.Fatalf("projected weeks = %d, want 8", len(forecast.Weeks))
	}
	if forecast.Weeks[0].ProjectedCTL != 65.8 {
		t.Errorf("week 1 projection = %v, want 65.8", forecast.Weeks[0].ProjectedCTL)
	}
	if !forecast.Weeks[0].Date.Equal(lastWeek.AddDate(0, 0, 7)) {
		t.Errorf("week 1 date = %v", forecast.Weeks[0].Date)
	}

	if forecast.Event == nil {
		t.Fatal("event readiness missing")
	}
	// 65 + 0.8 * 12 = 74.6, short of the 80 target.
	if forecast.Event.ProjectedCTLAtEvent != 74.6 {
		t.Errorf("projected at event = %v, want 74.6", forecast.Event.ProjectedCTLAtEvent)
	}
	if forecast.Event.OnTrack {
		t.Error("on_track = true, want false with a 5.4 CTL gap")
	}
	if forecast.Event.Gap != 5.4 {
		t.Errorf("gap = %v, want 5.4", forecast.Event.Gap)
	}
	// Needed slope (80-65)/12 = 1.25; surplus = 42 * (1.25 - 0.8) = 18.9.
	if forecast.Event.RequiredWeeklyTSSDelta != 18.9 {
		t.Errorf("required weekly TSS delta = %v, want 18.9", forecast.Event.RequiredWeeklyTSSDelta)
	}
	if forecast.Event.Recommendation == "" {
		t.Error("recommendation text missing")
	}
}

func TestForecastCTLInsufficientHistory(t *testing.T) {
	loads := weeklyLoads([]float64{60, 61, 62}, 1.0)

	_, err := ForecastCTL(loads, 8, nil, time.Now().UTC())
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("3 weekly points: error = %v, want ErrInsufficientData", err)
	}
}

func TestForecastCTLStablePlateau(t *testing.T) {
	loads := weeklyLoads([]float64{70, 70.1, 69.9, 70, 70.1, 70}, 1.0)

	forecast, err := ForecastCTL(loads, 4, nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("ForecastCTL() error = %v", err)
	}
	if forecast.Trend != domain.TrendStable {
		t.Errorf("trend = %s, want stable", forecast.Trend)
	}
	if !forecast.Plateau {
		t.Error("a flat recent window must flag a plateau")
	}
}

func TestForecastCTLDetrainingRisk(t *testing.T) {
	// Falling CTL with recent ATL well below CTL: sustained reduction.
	loads := weeklyLoads([]float64{70, 67, 64, 61, 58, 55}, 0.6)

	forecast, err := ForecastCTL(loads, 4, nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("ForecastCTL() error = %v", err)
	}
	if forecast.Trend != domain.TrendDeclining {
		t.Errorf("trend = %s, want declining", forecast.Trend)
	}
	if !forecast.DetrainingRisk {
		t.Error("detraining risk not flagged")
	}
}

func TestForecastCTLConfidenceWidensWithDistance(t *testing.T) {
	// Noisy series: nonzero residuals make the interval visible.
	loads := weeklyLoads([]float64{58, 64, 59, 65, 60, 66}, 1.0)

	forecast, err := ForecastCTL(loads, 6, nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("ForecastCTL() error = %v", err)
	}
	prev := 0.0
	for k, week := range forecast.Weeks {
		width := week.ConfidenceHigh - week.ConfidenceLow
		if width <= prev {
			t.Fatalf("week %d interval width %v did not widen past %v", k+1, width, prev)
		}
		prev = width
	}
}

func TestForecastCTLEventOnTrack(t *testing.T) {
	loads := weeklyLoads(risingWeeks(8, 65, 0.8), 1.0)
	lastWeek := forecastMonday.AddDate(0, 0, 7*7)
	event := &domain.TargetEventInput{
		Date:      lastWeek.AddDate(0, 0, 12*7),
		TargetCTL: 70,
	}

	forecast, err := ForecastCTL(loads, 8, event, time.Now().UTC())
	if err != nil {
		t.Fatalf("ForecastCTL() error = %v", err)
	}
	if forecast.Event == nil || !forecast.Event.OnTrack {
		t.Fatal("a 74.6 projection against a 70 target must be on track")
	}
	if forecast.Event.RequiredWeeklyTSSDelta != 0 {
		t.Errorf("required delta = %v, want 0 when on track", forecast.Event.RequiredWeeklyTSSDelta)
	}
}

func TestForecastServiceUnknownAthlete(t *testing.T) {
	svc := NewForecastService(NewMockRideRepository(), NewMockAthleteRepository())

	_, err := svc.Forecast(context.Background(), uuid.New(), &domain.ForecastRequest{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Forecast() error = %v, want ErrNotFound", err)
	}
}
