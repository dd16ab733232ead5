package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
	"github.com/velolab/ride-coach/pkg/pagination"
)

const (
	// CTL and ATL exponential time constants in days.
	CTLTimeConstant = 42.0
	ATLTimeConstant = 7.0
)

// RideService finalizes and lists ride summaries and maintains the
// daily training-load series.
type RideService interface {
	// Create persists a finalized ride. Summaries are immutable; there
	// is deliberately no update path.
	Create(ctx context.Context, athleteID uuid.UUID, req *domain.CreateRideRequest) (*domain.RideSummary, error)
	List(ctx context.Context, athleteID uuid.UUID, filter domain.RideFilter) (*domain.RideListResponse, error)
	// UpsertDailyLoad imports one day of an external load history.
	UpsertDailyLoad(ctx context.Context, athleteID uuid.UUID, req *domain.UpsertDailyLoadRequest) (*domain.DailyLoad, error)
}

type rideService struct {
	rideRepo    repository.RideRepository
	athleteRepo repository.AthleteRepository
}

// NewRideService creates a new RideService.
func NewRideService(rideRepo repository.RideRepository, athleteRepo repository.AthleteRepository) RideService {
	return &rideService{rideRepo: rideRepo, athleteRepo: athleteRepo}
}

func (s *rideService) Create(ctx context.Context, athleteID uuid.UUID, req *domain.CreateRideRequest) (*domain.RideSummary, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	ride := &domain.RideSummary{
		AthleteID:            athleteID,
		StartedAt:            req.StartedAt.UTC(),
		DurationSeconds:      req.DurationSeconds,
		AvgPowerWatts:        req.AvgPowerWatts,
		NormalizedPowerWatts: req.NormalizedPowerWatts,
		MaxPowerWatts:        req.MaxPowerWatts,
		TSS:                  req.TSS,
	}
	for _, effort := range req.BestEfforts {
		ride.BestEfforts = append(ride.BestEfforts, domain.PowerDurationPoint{
			DurationSecs: effort.DurationSecs,
			PowerWatts:   effort.PowerWatts,
		})
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	if ride.TSS > 0 {
		if err := s.rollDailyLoad(ctx, athleteID, ride.StartedAt, ride.TSS); err != nil {
			return nil, err
		}
	}
	return ride, nil
}

func (s *rideService) List(ctx context.Context, athleteID uuid.UUID, filter domain.RideFilter) (*domain.RideListResponse, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	rides, err := s.rideRepo.List(ctx, athleteID, filter)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	response := &domain.RideListResponse{Data: rides}
	if len(rides) > limit {
		response.Data = rides[:limit]
		last := response.Data[len(response.Data)-1]
		cursor := pagination.Cursor{ID: last.ID, StartedAt: last.StartedAt}
		response.Pagination.NextCursor = cursor.Encode()
		response.Pagination.HasMore = true
	}
	return response, nil
}

func (s *rideService) UpsertDailyLoad(ctx context.Context, athleteID uuid.UUID, req *domain.UpsertDailyLoadRequest) (*domain.DailyLoad, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	load := &domain.DailyLoad{
		AthleteID: athleteID,
		Date:      dateOnly(req.Date),
		TSS:       req.TSS,
		CTL:       req.CTL,
		ATL:       req.ATL,
	}
	if err := s.rideRepo.UpsertDailyLoad(ctx, load); err != nil {
		return nil, err
	}
	return load, nil
}

// rollDailyLoad folds a ride's TSS into the day's row and recomputes
// CTL/ATL as exponentially-weighted averages from the nearest prior day.
func (s *rideService) rollDailyLoad(ctx context.Context, athleteID uuid.UUID, startedAt time.Time, tss float64) error {
	date := dateOnly(startedAt)
	from := date.AddDate(0, 0, -60)
	loads, err := s.rideRepo.ListDailyLoads(ctx, athleteID, from, date)
	if err != nil {
		return err
	}

	dayTSS := tss
	var prevCTL, prevATL float64
	for _, load := range loads {
		switch {
		case load.Date.Equal(date):
			dayTSS += load.TSS
		case load.Date.Before(date):
			prevCTL, prevATL = load.CTL, load.ATL
		}
	}

	ctl := prevCTL + (dayTSS-prevCTL)/CTLTimeConstant
	atl := prevATL + (dayTSS-prevATL)/ATLTimeConstant

	return s.rideRepo.UpsertDailyLoad(ctx, &domain.DailyLoad{
		AthleteID: athleteID,
		Date:      date,
		TSS:       dayTSS,
		CTL:       ctl,
		ATL:       atl,
	})
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
