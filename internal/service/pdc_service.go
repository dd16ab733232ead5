package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
)

const (
	// DefaultLookbackDays is the default history window for curve building.
	DefaultLookbackDays = 90
)

// PDCService builds an athlete's power-duration curve from ride history.
// The curve is a pure read-model over finalized rides; querying it has
// no side effects.
type PDCService interface {
	// BuildCurve assembles the best-power-per-duration curve over the
	// lookback window.
	BuildCurve(ctx context.Context, athleteID uuid.UUID, lookbackDays int) (*domain.PowerDurationCurve, error)
}

type pdcService struct {
	rideRepo    repository.RideRepository
	athleteRepo repository.AthleteRepository
}

// NewPDCService creates a new PDCService.
func NewPDCService(rideRepo repository.RideRepository, athleteRepo repository.AthleteRepository) PDCService {
	return &pdcService{rideRepo: rideRepo, athleteRepo: athleteRepo}
}

func (s *pdcService) BuildCurve(ctx context.Context, athleteID uuid.UUID, lookbackDays int) (*domain.PowerDurationCurve, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -lookbackDays)

	rides, err := s.rideRepo.ListByStartRange(ctx, athleteID, from, now)
	if err != nil {
		return nil, err
	}

	return BuildCurveFromRides(rides, lookbackDays), nil
}

// BuildCurveFromRides takes, for each duration bucket, the maximum
// observed power across all ride summaries.
func BuildCurveFromRides(rides []domain.RideSummary, lookbackDays int) *domain.PowerDurationCurve {
	best := make(map[int]domain.PDCPoint)
	for _, ride := range rides {
		for _, effort := range ride.BestEfforts {
			current, ok := best[effort.DurationSecs]
			if !ok || effort.PowerWatts > current.PowerWatts {
				best[effort.DurationSecs] = domain.PDCPoint{
					DurationSecs: effort.DurationSecs,
					PowerWatts:   effort.PowerWatts,
					RideID:       ride.ID,
					RecordedAt:   ride.StartedAt,
				}
			}
		}
	}

	points := make([]domain.PDCPoint, 0, len(best))
	for _, p := range best {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].DurationSecs < points[j].DurationSecs
	})

	// The physiological shape expects power to fall as duration grows.
	// A violation is surfaced, not rejected.
	violation := false
	for i := 1; i < len(points); i++ {
		if points[i].PowerWatts > points[i-1].PowerWatts {
			violation = true
			break
		}
	}

	return &domain.PowerDurationCurve{
		Points:         points,
		LookbackDays:   lookbackDays,
		ShapeViolation: violation,
	}
}

// QueryCurve returns the best power for a duration. Exact buckets are
// returned as-is; durations between two known points are interpolated
// on a log-duration scale. With only one side known, extrapolation is
// disallowed and nil is returned.
func QueryCurve(curve *domain.PowerDurationCurve, durationSecs int) *float64 {
	if curve == nil || len(curve.Points) == 0 || durationSecs <= 0 {
		return nil
	}

	points := curve.Points
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].DurationSecs >= durationSecs
	})

	if idx < len(points) && points[idx].DurationSecs == durationSecs {
		power := points[idx].PowerWatts
		return &power
	}
	if idx == 0 || idx == len(points) {
		// Only one side exists: the caller must fall back to lower confidence.
		return nil
	}

	shorter := points[idx-1]
	longer := points[idx]
	logSpan := math.Log(float64(longer.DurationSecs)) - math.Log(float64(shorter.DurationSecs))
	frac := 0.0
	if logSpan > 0 {
		frac = (math.Log(float64(durationSecs)) - math.Log(float64(shorter.DurationSecs))) / logSpan
	}
	power := shorter.PowerWatts + frac*(longer.PowerWatts-shorter.PowerWatts)
	return &power
}
