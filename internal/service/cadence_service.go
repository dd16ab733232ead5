package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
)

const (
	// Default preferred cadence band in rpm.
	DefaultBandLowRPM  = 80.0
	DefaultBandHighRPM = 95.0

	// Grinding: sustained pedaling below this cadence at meaningful power.
	grindingCadenceRPM = 60.0
	grindingPowerWatts = 150.0
	grindingShare      = 0.2

	// minPedalingCadence filters coasting out of the averages.
	minPedalingCadence = 20.0
)

// CadenceService analyzes pedaling cadence over an in-ride sample
// series. Purely computational; no stored state.
type CadenceService interface {
	Analyze(ctx context.Context, athleteID uuid.UUID, req *domain.CadenceAnalysisRequest) (*domain.CadenceAnalysis, error)
}

type cadenceService struct {
	athleteRepo repository.AthleteRepository
}

// NewCadenceService creates a new CadenceService.
func NewCadenceService(athleteRepo repository.AthleteRepository) CadenceService {
	return &cadenceService{athleteRepo: athleteRepo}
}

func (s *cadenceService) Analyze(ctx context.Context, athleteID uuid.UUID, req *domain.CadenceAnalysisRequest) (*domain.CadenceAnalysis, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	if !samplesMonotonic(req.Samples) {
		return nil, domain.ErrInvalidInput
	}

	bandLow, bandHigh := req.BandLowRPM, req.BandHighRPM
	if bandLow <= 0 || bandHigh <= bandLow {
		bandLow, bandHigh = DefaultBandLowRPM, DefaultBandHighRPM
	}

	analysis := AnalyzeCadence(req.Samples, bandLow, bandHigh, time.Now().UTC())
	return analysis, nil
}

// AnalyzeCadence computes cadence indicators. With no cadence sensor
// every indicator is absent, never zero.
func AnalyzeCadence(samples []domain.RideSample, bandLow, bandHigh float64, now time.Time) *domain.CadenceAnalysis {
	analysis := &domain.CadenceAnalysis{
		BandLowRPM:  bandLow,
		BandHighRPM: bandHigh,
		ComputedAt:  now,
	}

	var pedaling []float64
	var inBand, grinding int
	maxCadence := 0.0
	for _, s := range samples {
		if s.CadenceRPM == nil {
			continue
		}
		c := *s.CadenceRPM
		if c > maxCadence {
			maxCadence = c
		}
		if c < minPedalingCadence {
			continue
		}
		pedaling = append(pedaling, c)
		if c >= bandLow && c <= bandHigh {
			inBand++
		}
		if c < grindingCadenceRPM && s.PowerWatts != nil && *s.PowerWatts >= grindingPowerWatts {
			grinding++
		}
	}

	if len(pedaling) == 0 {
		return analysis
	}

	avg := mean(pedaling)
	analysis.AvgCadenceRPM = &avg
	analysis.MaxCadenceRPM = &maxCadence

	band := math.Round(float64(inBand)/float64(len(pedaling))*1000) / 10
	analysis.TimeInBandPercent = &band

	// Drift: relative cadence change between ride halves.
	half := len(pedaling) / 2
	if half > 0 {
		firstAvg := mean(pedaling[:half])
		secondAvg := mean(pedaling[half:])
		if firstAvg > 0 {
			drift := math.Round((secondAvg-firstAvg)/firstAvg*1000) / 10
			analysis.DriftPercent = &drift
		}
	}

	analysis.GrindingDetected = float64(grinding)/float64(len(pedaling)) >= grindingShare
	return analysis
}
