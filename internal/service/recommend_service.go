package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ACWR band bounds; inside is "optimal" load.
	ACWRSafeLow  = 0.8
	ACWRSafeHigh = 1.3

	// recencyCapDays caps the days-since recency signal.
	recencyCapDays = 21

	// DefaultDaysSince is assumed for systems with no reported history.
	DefaultDaysSince = 30

	// highTSSReference scales TSS into the load-fit term.
	highTSSReference = 150.0

	// Score term weights; they sum to 1 so scores stay in [0,1].
	weightGoal    = 0.35
	weightRecency = 0.25
	weightLoadFit = 0.20
	weightNovelty = 0.20

	// noveltyPenalty is the score left to recently completed workouts.
	noveltyPenalty = 0.3
)

// goalSystems maps each goal type to the energy systems it implies.
var goalSystems = map[domain.GoalType][]domain.EnergySystem{
	domain.GoalGeneralFitness: {domain.SystemEndurance, domain.SystemTempo, domain.SystemThreshold},
	domain.GoalEvent:          {domain.SystemEndurance, domain.SystemThreshold, domain.SystemVO2Max},
}

// RecommendService ranks the workout candidate pool against the
// athlete's goals and load state.
type RecommendService interface {
	Recommend(ctx context.Context, athleteID uuid.UUID, req *domain.RecommendationRequest) (*domain.RecommendationResult, error)
}

type recommendService struct {
	workoutRepo repository.WorkoutRepository
	rideRepo    repository.RideRepository
	athleteRepo repository.AthleteRepository
}

// NewRecommendService creates a new RecommendService.
func NewRecommendService(
	workoutRepo repository.WorkoutRepository,
	rideRepo repository.RideRepository,
	athleteRepo repository.AthleteRepository,
) RecommendService {
	return &recommendService{
		workoutRepo: workoutRepo,
		rideRepo:    rideRepo,
		athleteRepo: athleteRepo,
	}
}

func (s *recommendService) Recommend(ctx context.Context, athleteID uuid.UUID, req *domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	tracer := otel.Tracer("ride-coach-api/recommend")
	ctx, span := tracer.Start(ctx, "RecommendService.Recommend",
		trace.WithAttributes(
			attribute.String("athlete.id", athleteID.String()),
			attribute.Int("available_minutes", req.AvailableMinutes),
		),
	)
	defer span.End()

	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	goals, err := s.athleteRepo.ListGoals(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	workouts, err := s.workoutRepo.ListCandidates(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	candidates := make([]domain.WorkoutCandidate, 0, len(workouts))
	for _, w := range workouts {
		candidates = append(candidates, w.Candidate())
	}

	var ctl, atl float64
	if load, loadErr := s.rideRepo.LatestDailyLoad(ctx, athleteID); loadErr == nil {
		ctl, atl = load.CTL, load.ATL
	} else if loadErr != domain.ErrNotFound {
		return nil, loadErr
	}

	result := RankWorkouts(candidates, goals, req, ctl, atl, time.Now().UTC())
	span.SetAttributes(attribute.Int("recommend.candidates", len(candidates)),
		attribute.Int("recommend.ranked", len(result.Rankings)))
	return result, nil
}

// RankWorkouts scores every candidate fitting the available time and
// returns them best first. Candidates longer than the available time
// are excluded outright, not penalized.
func RankWorkouts(
	candidates []domain.WorkoutCandidate,
	goals []domain.TrainingGoal,
	req *domain.RecommendationRequest,
	ctl, atl float64,
	now time.Time,
) *domain.RecommendationResult {
	acwr := 0.0
	if ctl > 0 {
		acwr = math.Round(atl/ctl*100) / 100
	}

	recentSet := make(map[uuid.UUID]bool, len(req.RecentlyCompleted))
	for _, id := range req.RecentlyCompleted {
		recentSet[id] = true
	}

	rankings := make([]domain.RankedWorkout, 0, len(candidates))
	for _, c := range candidates {
		if c.DurationMinutes > req.AvailableMinutes {
			continue
		}

		breakdown := domain.ScoreBreakdown{
			GoalAlignment: goalAlignmentScore(c, goals),
			RecencyGap:    recencyScore(c, req.DaysSinceSystem),
			LoadFit:       loadFitScore(c, acwr),
			Novelty:       noveltyScore(c, recentSet),
		}
		score := weightGoal*breakdown.GoalAlignment +
			weightRecency*breakdown.RecencyGap +
			weightLoadFit*breakdown.LoadFit +
			weightNovelty*breakdown.Novelty
		score = math.Round(score*100) / 100

		rankings = append(rankings, domain.RankedWorkout{
			Candidate:        c,
			SuitabilityScore: score,
			Breakdown:        breakdown,
			Reasoning:        buildReasoning(c, breakdown, recentSet),
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].SuitabilityScore > rankings[j].SuitabilityScore
	})

	return &domain.RecommendationResult{
		Rankings:    rankings,
		TrainingGap: trainingGapNarrative(req.DaysSinceSystem),
		LoadStatus:  classifyLoad(acwr),
		ACWR:        acwr,
		ComputedAt:  now,
	}
}

// goalAlignmentScore is the best overlap between the workout's systems
// and any active goal's implied systems, with higher-priority goals
// breaking ties through a small bonus.
func goalAlignmentScore(c domain.WorkoutCandidate, goals []domain.TrainingGoal) float64 {
	if len(c.EnergySystems) == 0 {
		return 0
	}
	best := 0.0
	for _, goal := range goals {
		implied := goalSystems[goal.Type]
		if goal.Type == domain.GoalEnergySystem && goal.TargetSystem != "" {
			implied = []domain.EnergySystem{goal.TargetSystem}
		}
		overlap := 0
		for _, ws := range c.EnergySystems {
			for _, gs := range implied {
				if ws == gs {
					overlap++
					break
				}
			}
		}
		score := float64(overlap) / float64(len(c.EnergySystems))
		if goal.Priority > 0 {
			score += 0.05 / float64(goal.Priority)
		}
		if score > best {
			best = score
		}
	}
	return math.Min(best, 1)
}

// recencyScore rewards systems not trained recently, monotonic in
// days-since and capped.
func recencyScore(c domain.WorkoutCandidate, daysSince map[domain.EnergySystem]int) float64 {
	if len(c.EnergySystems) == 0 {
		return 0
	}
	maxDays := 0
	for _, system := range c.EnergySystems {
		days, ok := daysSince[system]
		if !ok {
			days = DefaultDaysSince
		}
		if days > maxDays {
			maxDays = days
		}
	}
	if maxDays > recencyCapDays {
		maxDays = recencyCapDays
	}
	return float64(maxDays) / float64(recencyCapDays)
}

// loadFitScore favors intensity inside the safe ACWR band and
// suppresses high-TSS candidates above it.
func loadFitScore(c domain.WorkoutCandidate, acwr float64) float64 {
	switch {
	case acwr > ACWRSafeHigh:
		return math.Max(0, 1-c.ExpectedTSS/highTSSReference)
	case acwr < ACWRSafeLow:
		return math.Min(1, c.ExpectedTSS/highTSSReference)
	default:
		return float64(c.Difficulty) / 10
	}
}

func noveltyScore(c domain.WorkoutCandidate, recent map[uuid.UUID]bool) float64 {
	if recent[c.WorkoutID] {
		return noveltyPenalty
	}
	return 1
}

// buildReasoning names the dominant scoring terms so the ranking is
// explainable rather than a bare number.
func buildReasoning(c domain.WorkoutCandidate, b domain.ScoreBreakdown, recent map[uuid.UUID]bool) string {
	var parts []string
	if b.GoalAlignment >= 0.5 {
		parts = append(parts, fmt.Sprintf("targets %s goal work", joinSystems(c.EnergySystems)))
	}
	if b.RecencyGap >= 0.5 {
		parts = append(parts, "trains a system with a recent gap")
	}
	if b.LoadFit >= 0.7 {
		parts = append(parts, "intensity fits current load")
	} else if b.LoadFit <= 0.3 {
		parts = append(parts, "load state suppresses this intensity")
	}
	if recent[c.WorkoutID] {
		parts = append(parts, "completed recently, penalized for repetition")
	}
	if len(parts) == 0 {
		parts = append(parts, "balanced fit across goals and load")
	}
	return strings.Join(parts, "; ")
}

func joinSystems(systems []domain.EnergySystem) string {
	names := make([]string, len(systems))
	for i, s := range systems {
		names[i] = string(s)
	}
	return strings.Join(names, "/")
}

// trainingGapNarrative names the longest-untrained energy system.
func trainingGapNarrative(daysSince map[domain.EnergySystem]int) string {
	gapSystem := domain.EnergySystem("")
	gapDays := -1
	for _, system := range domain.AllEnergySystems {
		days, ok := daysSince[system]
		if !ok {
			days = DefaultDaysSince
		}
		if days > gapDays {
			gapDays = days
			gapSystem = system
		}
	}
	if gapSystem == "" {
		return ""
	}
	return fmt.Sprintf("%s has not been trained in %d days", gapSystem, gapDays)
}

func classifyLoad(acwr float64) domain.LoadStatus {
	switch {
	case acwr > ACWRSafeHigh:
		return domain.LoadOverreaching
	case acwr < ACWRSafeLow:
		return domain.LoadUndertrained
	default:
		return domain.LoadOptimal
	}
}
