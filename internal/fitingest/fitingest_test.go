package fitingest

import (
	"math"
	"testing"
	"time"

	"github.com/velolab/ride-coach/internal/domain"
)

func powerOnlySamples(powers []float64) []domain.RideSample {
	samples := make([]domain.RideSample, 0, len(powers))
	for i := range powers {
		p := powers[i]
		samples = append(samples, domain.RideSample{ElapsedSeconds: i, PowerWatts: &p})
	}
	return samples
}

func TestBestRollingPower(t *testing.T) {
	powers := make([]float64, 120)
	for i := range powers {
		powers[i] = 200
	}
	// A 30-second surge at 300 W.
	for i := 60; i < 90; i++ {
		powers[i] = 300
	}

	if got := bestRollingPower(powers, 30); got != 300 {
		t.Errorf("best 30s = %v, want 300", got)
	}
	if got := bestRollingPower(powers, 120); got != 225 {
		t.Errorf("best 120s = %v, want the full-series mean 225", got)
	}
	if got := bestRollingPower(powers, 121); got != 0 {
		t.Errorf("window longer than the ride = %v, want 0", got)
	}
}

func TestNormalizedPowerWeighsSurges(t *testing.T) {
	steady := make([]float64, 600)
	surging := make([]float64, 600)
	for i := range steady {
		steady[i] = 200
		if (i/60)%2 == 0 {
			surging[i] = 120
		} else {
			surging[i] = 280
		}
	}

	if got := normalizedPower(steady); math.Abs(got-200) > 0.01 {
		t.Errorf("steady NP = %v, want 200", got)
	}
	np := normalizedPower(surging)
	if np <= 200 {
		t.Errorf("surging NP = %v, want above the 200 average", np)
	}
}

func TestPowerSeriesFillsShortGaps(t *testing.T) {
	p1, p2 := 210.0, 230.0
	samples := []domain.RideSample{
		{ElapsedSeconds: 0, PowerWatts: &p1},
		{ElapsedSeconds: 4, PowerWatts: &p2},
	}

	series := powerSeries(samples)
	want := []float64{210, 210, 210, 210, 230}
	if len(series) != len(want) {
		t.Fatalf("series length = %d, want %d", len(series), len(want))
	}
	for i, v := range want {
		if series[i] != v {
			t.Errorf("series[%d] = %v, want %v", i, series[i], v)
		}
	}
}

func TestPowerSeriesSkipsLongDropouts(t *testing.T) {
	p := 210.0
	samples := []domain.RideSample{
		{ElapsedSeconds: 0, PowerWatts: &p},
		{ElapsedSeconds: 120, PowerWatts: &p},
	}

	if got := powerSeries(samples); len(got) != 2 {
		t.Errorf("series length = %d, want 2 with the dropout skipped", len(got))
	}
}

func TestSummarizeBuildsRideRequest(t *testing.T) {
	powers := make([]float64, 1500)
	for i := range powers {
		powers[i] = 220
	}
	ride := &DecodedRide{
		StartedAt:       time.Date(2024, 5, 12, 8, 30, 0, 0, time.UTC),
		DurationSeconds: 1500,
		Samples:         powerOnlySamples(powers),
	}

	req := Summarize(ride, 250)
	if req.AvgPowerWatts != 220 || req.NormalizedPowerWatts != 220 || req.MaxPowerWatts != 220 {
		t.Errorf("power aggregates = %v/%v/%v, want 220 across", req.AvgPowerWatts, req.NormalizedPowerWatts, req.MaxPowerWatts)
	}

	// 25 minutes at IF 0.88 is about 32.3 TSS.
	wantTSS := (1500.0 / 3600) * (220.0 / 250) * (220.0 / 250) * 100
	if math.Abs(req.TSS-wantTSS) > 0.1 {
		t.Errorf("TSS = %v, want about %.1f", req.TSS, wantTSS)
	}

	// Buckets longer than the ride are absent.
	durations := make(map[int]float64, len(req.BestEfforts))
	for _, e := range req.BestEfforts {
		durations[e.DurationSecs] = e.PowerWatts
	}
	for _, want := range []int{5, 60, 300, 1200} {
		if durations[want] != 220 {
			t.Errorf("best effort at %ds = %v, want 220", want, durations[want])
		}
	}
	if _, ok := durations[3600]; ok {
		t.Error("hour best effort reported for a 25-minute ride")
	}
}

func TestSummarizeWithoutPowerOrFTP(t *testing.T) {
	hr := 140.0
	ride := &DecodedRide{
		StartedAt:       time.Date(2024, 5, 12, 8, 30, 0, 0, time.UTC),
		DurationSeconds: 600,
		Samples: []domain.RideSample{
			{ElapsedSeconds: 0, HeartRateBPM: &hr},
			{ElapsedSeconds: 1, HeartRateBPM: &hr},
		},
	}

	req := Summarize(ride, 250)
	if req.AvgPowerWatts != 0 || req.TSS != 0 || len(req.BestEfforts) != 0 {
		t.Errorf("power-free ride produced power aggregates: %+v", req)
	}

	// No FTP means no TSS even with power data.
	powered := &DecodedRide{
		StartedAt:       ride.StartedAt,
		DurationSeconds: 600,
		Samples:         powerOnlySamples([]float64{200, 200, 200}),
	}
	if req := Summarize(powered, 0); req.TSS != 0 {
		t.Errorf("TSS = %v without a known FTP, want 0", req.TSS)
	}
}
