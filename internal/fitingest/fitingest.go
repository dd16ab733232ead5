// Package fitingest decodes Garmin FIT activity files into ride sample
// series and finalized ride summaries.
package fitingest

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/tormoder/fit"
	"github.com/velolab/ride-coach/internal/domain"
)

// BestEffortDurations are the duration buckets extracted from every
// decoded ride, in seconds.
var BestEffortDurations = []int{5, 60, 300, 1200, 3600}

// DecodedRide is the raw outcome of decoding one FIT activity file.
type DecodedRide struct {
	StartedAt       time.Time
	DurationSeconds int
	Samples         []domain.RideSample
}

// DecodeActivity parses a FIT activity stream into a sample series.
// Sensor fields carrying the FIT invalid sentinel become nil samples.
func DecodeActivity(r io.Reader) (*DecodedRide, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode fit: %v", domain.ErrInvalidInput, err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("%w: not an activity file: %v", domain.ErrInvalidInput, err)
	}
	if len(activity.Records) == 0 {
		return nil, fmt.Errorf("%w: activity carries no record messages", domain.ErrInvalidInput)
	}

	records := make([]*fit.RecordMsg, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec != nil && validTime(rec.Timestamp) {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no timestamped records", domain.ErrInvalidInput)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	start := records[0].Timestamp
	if len(activity.Sessions) > 0 && validTime(activity.Sessions[0].StartTime) {
		start = activity.Sessions[0].StartTime
	}

	ride := &DecodedRide{StartedAt: start.UTC()}
	lastElapsed := -1
	for _, rec := range records {
		elapsed := int(rec.Timestamp.Sub(start).Seconds())
		if elapsed < 0 || elapsed <= lastElapsed {
			continue
		}
		lastElapsed = elapsed

		sample := domain.RideSample{ElapsedSeconds: elapsed}
		if p, ok := recordPower(rec); ok {
			sample.PowerWatts = &p
		}
		if hr, ok := recordHeartRate(rec); ok {
			sample.HeartRateBPM = &hr
		}
		if c, ok := recordCadence(rec); ok {
			sample.CadenceRPM = &c
		}
		ride.Samples = append(ride.Samples, sample)
	}
	if len(ride.Samples) == 0 {
		return nil, fmt.Errorf("%w: no usable records", domain.ErrInvalidInput)
	}

	ride.DurationSeconds = ride.Samples[len(ride.Samples)-1].ElapsedSeconds
	if len(activity.Sessions) > 0 {
		if timer := activity.Sessions[0].GetTotalTimerTimeScaled(); isFinite(timer) && timer > 0 {
			ride.DurationSeconds = int(timer)
		}
	}
	return ride, nil
}

// Summarize turns a decoded ride into a ride creation request: power
// aggregates, TSS against the given FTP, and the best-effort curve over
// the standard duration buckets. A zero FTP leaves TSS unset.
func Summarize(ride *DecodedRide, ftpWatts float64) *domain.CreateRideRequest {
	powers := powerSeries(ride.Samples)

	req := &domain.CreateRideRequest{
		StartedAt:       ride.StartedAt,
		DurationSeconds: ride.DurationSeconds,
	}
	if len(powers) == 0 {
		return req
	}

	req.AvgPowerWatts = round1(mean(powers))
	req.MaxPowerWatts = maxOf(powers)
	np := normalizedPower(powers)
	if np == 0 {
		np = req.AvgPowerWatts
	}
	req.NormalizedPowerWatts = round1(np)

	if ftpWatts > 0 && np > 0 {
		intensity := np / ftpWatts
		hours := float64(ride.DurationSeconds) / 3600
		req.TSS = round1(hours * intensity * intensity * 100)
	}

	for _, duration := range BestEffortDurations {
		best := bestRollingPower(powers, duration)
		if best <= 0 {
			continue
		}
		req.BestEfforts = append(req.BestEfforts, domain.PowerDurationPointInput{
			DurationSecs: duration,
			PowerWatts:   round1(best),
		})
	}
	return req
}

// powerSeries rebuilds a 1 Hz power series from the samples. Recording
// gaps up to 30 seconds repeat the last value, longer dropouts are left
// out, matching how head units resume after auto-pause.
func powerSeries(samples []domain.RideSample) []float64 {
	var series []float64
	lastElapsed := -1
	lastPower := 0.0
	for _, s := range samples {
		if s.PowerWatts == nil {
			continue
		}
		if lastElapsed >= 0 {
			gap := s.ElapsedSeconds - lastElapsed - 1
			if gap > 0 && gap <= 30 {
				for i := 0; i < gap; i++ {
					series = append(series, lastPower)
				}
			}
		}
		series = append(series, *s.PowerWatts)
		lastElapsed = s.ElapsedSeconds
		lastPower = *s.PowerWatts
	}
	return series
}

// bestRollingPower is the highest rolling mean over the given window.
// Series shorter than the window have no best effort at that duration.
func bestRollingPower(powers []float64, windowSecs int) float64 {
	if windowSecs <= 0 || len(powers) < windowSecs {
		return 0
	}
	sum := 0.0
	for i := 0; i < windowSecs; i++ {
		sum += powers[i]
	}
	best := sum / float64(windowSecs)
	for i := windowSecs; i < len(powers); i++ {
		sum += powers[i] - powers[i-windowSecs]
		if current := sum / float64(windowSecs); current > best {
			best = current
		}
	}
	return best
}

// normalizedPower is the rolling-30s fourth-power mean.
func normalizedPower(powers []float64) float64 {
	const window = 30
	if len(powers) < window {
		return mean(powers)
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += powers[i]
	}
	fourthPowerTotal := math.Pow(sum/window, 4)
	count := 1
	for i := window; i < len(powers); i++ {
		sum += powers[i] - powers[i-window]
		fourthPowerTotal += math.Pow(sum/window, 4)
		count++
	}
	return math.Pow(fourthPowerTotal/float64(count), 0.25)
}

func recordPower(rec *fit.RecordMsg) (float64, bool) {
	if rec.Power == math.MaxUint16 {
		return 0, false
	}
	return float64(rec.Power), true
}

func recordHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 || rec.HeartRate == 0 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func recordCadence(rec *fit.RecordMsg) (float64, bool) {
	if scaled := rec.GetCadence256Scaled(); isFinite(scaled) && scaled > 0 {
		return scaled, true
	}
	if rec.Cadence == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.Cadence), true
}

func validTime(t time.Time) bool {
	return !t.IsZero() && !fit.IsBaseTime(t)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	best := 0.0
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	return best
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
