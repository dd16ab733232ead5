package service

import (
	"context"
	"encoding/json"
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
	// MinQualifyingRides is the minimum history for any FTP prediction.
	MinQualifyingRides = 5

	// ExtendedEffortSecs is the shortest effort that qualifies a ride.
	ExtendedEffortSecs = 1200

	// HourEffortSecs separates the 20-minute class from the 60-minute class.
	HourEffortSecs = 3600

	// Coefficients applied to the best effort of each duration class.
	coefficient20Min = 0.95
	coefficient60Min = 1.00

	// agreementTolerance is the relative spread under which two
	// independent efforts count as agreeing.
	agreementTolerance = 0.03

	// differenceThresholdPct is the signed difference below which the
	// prediction is considered to match the current FTP.
	differenceThresholdPct = 1.0
)

// confidenceFraction maps a confidence grade to the fraction used for
// the interval width: CI = +/- (1 - fraction) * predicted.
var confidenceFraction = map[domain.Confidence]float64{
	domain.ConfidenceHigh:   0.95,
	domain.ConfidenceMedium: 0.85,
	domain.ConfidenceLow:    0.70,
}

// FTPService predicts functional threshold power from ride history.
type FTPService interface {
	Predict(ctx context.Context, athleteID uuid.UUID, req *domain.FTPPredictRequest) (*domain.FTPPrediction, error)
}

type ftpService struct {
	rideRepo    repository.RideRepository
	athleteRepo repository.AthleteRepository
}

// NewFTPService creates a new FTPService.
func NewFTPService(rideRepo repository.RideRepository, athleteRepo repository.AthleteRepository) FTPService {
	return &ftpService{rideRepo: rideRepo, athleteRepo: athleteRepo}
}

func (s *ftpService) Predict(ctx context.Context, athleteID uuid.UUID, req *domain.FTPPredictRequest) (*domain.FTPPrediction, error) {
	tracer := otel.Tracer("ride-coach-api/ftp")
	ctx, span := tracer.Start(ctx, "FTPService.Predict",
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

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -lookbackDays)
	rides, err := s.rideRepo.ListByStartRange(ctx, athleteID, from, now)
	if err != nil {
		return nil, err
	}

	prediction, err := PredictFTP(rides, req, now)
	if err != nil {
		return nil, err
	}

	if outJSON, jsonErr := json.Marshal(prediction); jsonErr == nil {
		span.SetAttributes(attribute.String("ftp.prediction", string(outJSON)))
	}
	return prediction, nil
}

// extendedEffort is one qualifying effort with its source ride.
type extendedEffort struct {
	rideID       uuid.UUID
	durationSecs int
	powerWatts   float64
	recordedAt   time.Time
}

// PredictFTP runs the percentage-of-best-power model over ride history.
// It fails with ErrInsufficientData when fewer than MinQualifyingRides
// rides carry an extended-duration effort.
func PredictFTP(rides []domain.RideSummary, req *domain.FTPPredictRequest, now time.Time) (*domain.FTPPrediction, error) {
	qualifying := 0
	var efforts []extendedEffort
	for _, ride := range rides {
		qualifies := false
		for _, effort := range ride.BestEfforts {
			if effort.DurationSecs >= ExtendedEffortSecs {
				qualifies = true
				efforts = append(efforts, extendedEffort{
					rideID:       ride.ID,
					durationSecs: effort.DurationSecs,
					powerWatts:   effort.PowerWatts,
					recordedAt:   ride.StartedAt,
				})
			}
		}
		if qualifies {
			qualifying++
		}
	}
	if qualifying < MinQualifyingRides {
		return nil, domain.ErrInsufficientData
	}

	method := req.PreferredMethod
	if method == "" {
		method = domain.FTPMethodAuto
	}

	classSecs, coefficient, classEfforts := pickDurationClass(efforts, method)

	var predicted float64
	confidence := domain.ConfidenceLow
	var supporting []domain.SupportingEffort

	if len(classEfforts) > 0 {
		// Best direct effort in the class drives the estimate.
		best := classEfforts[0]
		predicted = best.powerWatts * coefficient
		confidence = domain.ConfidenceMedium
		supporting = append(supporting, domain.SupportingEffort{
			RideID:       best.rideID,
			DurationSecs: best.durationSecs,
			PowerWatts:   best.powerWatts,
			RecordedAt:   best.recordedAt,
		})

		// Two independent efforts agreeing within tolerance upgrade
		// the confidence; an independent effort comes from another ride.
		for _, other := range classEfforts[1:] {
			if other.rideID == best.rideID {
				continue
			}
			spread := math.Abs(other.powerWatts-best.powerWatts) / best.powerWatts
			if spread <= agreementTolerance {
				confidence = domain.ConfidenceHigh
				supporting = append(supporting, domain.SupportingEffort{
					RideID:       other.rideID,
					DurationSecs: other.durationSecs,
					PowerWatts:   other.powerWatts,
					RecordedAt:   other.recordedAt,
				})
			}
			break
		}
	} else {
		// No direct effort in the preferred class: infer from the curve
		// at the class duration. Interpolation only; extrapolation
		// returns no answer and the shorter-effort path stays low.
		curve := BuildCurveFromRides(rides, 0)
		power := QueryCurve(curve, classSecs)
		if power == nil {
			// Fall back to the best extended effort available.
			sort.Slice(efforts, func(i, j int) bool { return efforts[i].powerWatts > efforts[j].powerWatts })
			best := efforts[0]
			predicted = best.powerWatts * coefficientFor(best.durationSecs)
			supporting = append(supporting, domain.SupportingEffort{
				RideID:       best.rideID,
				DurationSecs: best.durationSecs,
				PowerWatts:   best.powerWatts,
				RecordedAt:   best.recordedAt,
			})
		} else {
			predicted = *power * coefficient
			// Evidence is the bracketing efforts nearest the class duration.
			supporting = nearestEfforts(efforts, classSecs)
		}
		confidence = domain.ConfidenceLow
	}

	predicted = math.Round(predicted*10) / 10
	fraction := confidenceFraction[confidence]
	margin := (1 - fraction) * predicted

	prediction := &domain.FTPPrediction{
		PredictedFTPWatts: predicted,
		Confidence:        confidence,
		ConfidenceLow:     math.Round((predicted-margin)*10) / 10,
		ConfidenceHigh:    math.Round((predicted+margin)*10) / 10,
		Method:            method,
		DurationClassSecs: classSecs,
		SupportingEfforts: supporting,
		ComputedAt:        now,
	}

	if req.CurrentFTPWatts != nil && *req.CurrentFTPWatts > 0 {
		diff := (predicted - *req.CurrentFTPWatts) / *req.CurrentFTPWatts * 100
		diff = math.Round(diff*10) / 10
		differs := math.Abs(diff) >= differenceThresholdPct
		prediction.DiffersFromCurrent = &differs
		prediction.DifferencePercent = &diff
	}

	return prediction, nil
}

// pickDurationClass selects the duration class and its coefficient.
// Auto prefers the longest class with direct efforts; the hour class
// needs no percentage haircut.
func pickDurationClass(efforts []extendedEffort, method domain.FTPMethod) (int, float64, []extendedEffort) {
	var class20, class60 []extendedEffort
	for _, e := range efforts {
		if e.durationSecs >= HourEffortSecs {
			class60 = append(class60, e)
		} else {
			class20 = append(class20, e)
		}
	}
	byPowerDesc := func(list []extendedEffort) {
		sort.Slice(list, func(i, j int) bool { return list[i].powerWatts > list[j].powerWatts })
	}
	byPowerDesc(class20)
	byPowerDesc(class60)

	switch method {
	case domain.FTPMethodRamp:
		// No ramp-test data is stored; ramp requests resolve against the
		// curve at the 20-minute class, which reports low confidence.
		return ExtendedEffortSecs, coefficient20Min, nil
	case domain.FTPMethodExtendedDuration:
		if len(class20) > 0 {
			return ExtendedEffortSecs, coefficient20Min, class20
		}
		return HourEffortSecs, coefficient60Min, class60
	default: // auto
		if len(class60) > 0 {
			return HourEffortSecs, coefficient60Min, class60
		}
		return ExtendedEffortSecs, coefficient20Min, class20
	}
}

func coefficientFor(durationSecs int) float64 {
	if durationSecs >= HourEffortSecs {
		return coefficient60Min
	}
	return coefficient20Min
}

// nearestEfforts picks the efforts bracketing a duration, as evidence
// for an interpolated estimate.
func nearestEfforts(efforts []extendedEffort, durationSecs int) []domain.SupportingEffort {
	sorted := make([]extendedEffort, len(efforts))
	copy(sorted, efforts)
	sort.Slice(sorted, func(i, j int) bool {
		di := abs(sorted[i].durationSecs - durationSecs)
		dj := abs(sorted[j].durationSecs - durationSecs)
		return di < dj
	})

	n := 2
	if len(sorted) < n {
		n = len(sorted)
	}
	supporting := make([]domain.SupportingEffort, 0, n)
	for _, e := range sorted[:n] {
		supporting = append(supporting, domain.SupportingEffort{
			RideID:       e.rideID,
			DurationSecs: e.durationSecs,
			PowerWatts:   e.powerWatts,
			RecordedAt:   e.recordedAt,
		})
	}
	return supporting
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
