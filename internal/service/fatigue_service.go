package service

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
)

const (
	// FatigueWindowSecs is the sliding window for drift signals.
	FatigueWindowSecs = 600

	// DefaultCooldown is the dismissal cooldown; configurable 5-10 min.
	DefaultCooldown = 7 * time.Minute

	// thresholdMultiplier scales the athlete's typical values into
	// alert bounds.
	thresholdMultiplier = 1.5

	// minHalfSamples is the minimum paired samples per window half for
	// a drift signal to be reported at all.
	minHalfSamples = 5
)

// FatigueService evaluates in-ride physiological drift and runs the
// per-ride alert state machine. Sessions live in memory for the
// duration of the ride and are discarded when it ends.
type FatigueService interface {
	// Evaluate folds a new sample batch into the ride's session and
	// returns the updated assessment.
	Evaluate(ctx context.Context, athleteID uuid.UUID, req *domain.FatigueSampleRequest) (*domain.FatigueAssessment, error)
	// Dismiss acknowledges an active alert and starts the cooldown.
	Dismiss(ctx context.Context, rideID uuid.UUID) (*domain.FatigueState, error)
	// EndRide discards the ride's session state.
	EndRide(ctx context.Context, rideID uuid.UUID) error
}

type fatigueSession struct {
	athleteID uuid.UUID
	samples   []domain.RideSample
	state     domain.FatigueState
}

type fatigueService struct {
	athleteRepo repository.AthleteRepository
	cooldown    time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*fatigueSession

	// now is injectable for cooldown tests.
	now func() time.Time
}

// NewFatigueService creates a new FatigueService. A cooldown outside
// the 5-10 minute range falls back to the default.
func NewFatigueService(athleteRepo repository.AthleteRepository, cooldown time.Duration) FatigueService {
	if cooldown < 5*time.Minute || cooldown > 10*time.Minute {
		cooldown = DefaultCooldown
	}
	return &fatigueService{
		athleteRepo: athleteRepo,
		cooldown:    cooldown,
		sessions:    make(map[uuid.UUID]*fatigueSession),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *fatigueService) Evaluate(ctx context.Context, athleteID uuid.UUID, req *domain.FatigueSampleRequest) (*domain.FatigueAssessment, error) {
	if !samplesMonotonic(req.Samples) {
		return nil, domain.ErrInvalidInput
	}

	baseline, err := s.athleteRepo.GetBaseline(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[req.RideID]
	if !ok {
		session = &fatigueSession{
			athleteID: athleteID,
			state: domain.FatigueState{
				RideID: req.RideID,
				Phase:  domain.PhaseMonitoring,
			},
		}
		s.sessions[req.RideID] = session
	}

	// Batches must continue where the session left off.
	if n := len(session.samples); n > 0 && req.Samples[0].ElapsedSeconds <= session.samples[n-1].ElapsedSeconds {
		return nil, domain.ErrInvalidInput
	}
	session.samples = append(session.samples, req.Samples...)

	now := s.now()
	indicators := computeFatigueIndicators(session.samples, req.TargetPowerWatts, baseline)
	session.state.Indicators = indicators
	session.state.UpdatedAt = now

	// A finished cooldown reverts to monitoring with no alert history.
	if session.state.Phase == domain.PhaseDismissed &&
		session.state.DismissedUntil != nil && !now.Before(*session.state.DismissedUntil) {
		session.state.Phase = domain.PhaseMonitoring
		session.state.AlertTriggered = false
		session.state.Severity = ""
		session.state.SuppressedSevere = false
	}

	breached := breachedSignals(indicators, baseline)
	inCooldown := session.state.DismissedUntil != nil && now.Before(*session.state.DismissedUntil)

	switch {
	case len(breached) == 0:
		// Indicators keep updating silently.
	case inCooldown:
		// The cooldown holds even for a severe escalation; the
		// suppression is recorded for later surfacing instead.
		if len(breached) >= 2 {
			if !session.state.SuppressedSevere {
				log.Printf("[fatigue] ride=%s severe breach suppressed by cooldown", req.RideID)
			}
			session.state.SuppressedSevere = true
		}
	case session.state.Phase != domain.PhaseAlerted:
		session.state.Phase = domain.PhaseAlerted
		session.state.AlertTriggered = true
		session.state.LastAlertAt = &now
		if len(breached) >= 2 {
			session.state.Severity = domain.SeveritySevere
		} else {
			session.state.Severity = domain.SeverityModerate
		}
	}

	assessment := &domain.FatigueAssessment{
		State:           session.state,
		BreachedSignals: breached,
		ComputedAt:      now,
	}
	return assessment, nil
}

func (s *fatigueService) Dismiss(ctx context.Context, rideID uuid.UUID) (*domain.FatigueState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[rideID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	now := s.now()
	until := now.Add(s.cooldown)
	session.state.Phase = domain.PhaseDismissed
	session.state.DismissedUntil = &until
	session.state.AlertTriggered = false
	session.state.UpdatedAt = now

	state := session.state
	return &state, nil
}

func (s *fatigueService) EndRide(ctx context.Context, rideID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[rideID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, rideID)
	return nil
}

func samplesMonotonic(samples []domain.RideSample) bool {
	for i := 1; i < len(samples); i++ {
		if samples[i].ElapsedSeconds <= samples[i-1].ElapsedSeconds {
			return false
		}
	}
	return len(samples) > 0
}

// computeFatigueIndicators derives the drift signals over the sliding
// window. Indicators whose sensor is absent are nil, not zero.
func computeFatigueIndicators(samples []domain.RideSample, targetPower float64, baseline *domain.AthleteBaseline) domain.FatigueIndicators {
	window := windowSamples(samples, FatigueWindowSecs)
	indicators := domain.FatigueIndicators{}

	// Power variability: normalized power over average power.
	var powers []float64
	for _, s := range window {
		if s.PowerWatts != nil {
			powers = append(powers, *s.PowerWatts)
		}
	}
	if avg := mean(powers); avg > 0 {
		vi := normalizedPower(powers) / avg
		indicators.PowerVariabilityIndex = &vi
	}

	// Aerobic decoupling: HR:power ratio drift between window halves.
	// Needs both sensors; otherwise reported absent.
	firstHR, firstPower, secondHR, secondPower := splitPaired(window, targetPower)
	if len(firstHR) >= minHalfSamples && len(secondHR) >= minHalfSamples {
		r1 := mean(firstHR) / mean(firstPower)
		r2 := mean(secondHR) / mean(secondPower)
		if r1 > 0 {
			score := (r2 - r1) / r1
			indicators.AerobicDecouplingScore = &score
		}

		// HR reserve usage drift doubles as the HRV fatigue proxy.
		if span := baseline.MaxHR - baseline.RestingHR; span > 0 {
			drift := (mean(secondHR) - mean(firstHR)) / span
			indicators.HRVFatigueIndicator = &drift
		}
	}

	return indicators
}

// breachedSignals names the indicators exceeding their baseline-scaled
// bounds. An absent indicator can never breach.
func breachedSignals(indicators domain.FatigueIndicators, baseline *domain.AthleteBaseline) []string {
	var breached []string
	if indicators.AerobicDecouplingScore != nil &&
		*indicators.AerobicDecouplingScore > baseline.TypicalAerobicDecoupling*thresholdMultiplier {
		breached = append(breached, "aerobic_decoupling")
	}
	if indicators.PowerVariabilityIndex != nil {
		// The variability bound scales the excess over 1.0, since the
		// index itself floors there.
		bound := 1 + (baseline.TypicalPowerVariability-1)*thresholdMultiplier
		if *indicators.PowerVariabilityIndex > bound {
			breached = append(breached, "power_variability")
		}
	}
	return breached
}

// windowSamples returns the samples within the trailing window.
func windowSamples(samples []domain.RideSample, windowSecs int) []domain.RideSample {
	if len(samples) == 0 {
		return nil
	}
	cutoff := samples[len(samples)-1].ElapsedSeconds - windowSecs
	start := 0
	for start < len(samples) && samples[start].ElapsedSeconds <= cutoff {
		start++
	}
	return samples[start:]
}

// splitPaired splits samples carrying both power and HR into window
// halves. Coasting samples well below target power are excluded so the
// drift reflects the sustained effort, not recovery dips.
func splitPaired(window []domain.RideSample, targetPower float64) (firstHR, firstPower, secondHR, secondPower []float64) {
	if len(window) == 0 {
		return
	}
	floor := 0.5 * targetPower
	lo := window[0].ElapsedSeconds
	hi := window[len(window)-1].ElapsedSeconds
	mid := lo + (hi-lo)/2
	for _, s := range window {
		if s.PowerWatts == nil || s.HeartRateBPM == nil || *s.PowerWatts <= floor {
			continue
		}
		if s.ElapsedSeconds <= mid {
			firstHR = append(firstHR, *s.HeartRateBPM)
			firstPower = append(firstPower, *s.PowerWatts)
		} else {
			secondHR = append(secondHR, *s.HeartRateBPM)
			secondPower = append(secondPower, *s.PowerWatts)
		}
	}
	return
}

// normalizedPower is the 30-sample rolling fourth-power mean, the
// standard NP calculation over 1 Hz data.
func normalizedPower(powers []float64) float64 {
	if len(powers) == 0 {
		return 0
	}
	window := 30
	if len(powers) < window {
		window = len(powers)
	}

	var fourthPowerSum float64
	var count int
	var rollingSum float64
	for i, p := range powers {
		rollingSum += p
		if i >= window {
			rollingSum -= powers[i-window]
		}
		if i >= window-1 {
			avg := rollingSum / float64(window)
			fourthPowerSum += math.Pow(avg, 4)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Pow(fourthPowerSum/float64(count), 0.25)
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
