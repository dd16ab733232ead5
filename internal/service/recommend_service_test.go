package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
)

func candidate(name string, systems []domain.EnergySystem, minutes int, tss float64, difficulty int) domain.WorkoutCandidate {
	return domain.WorkoutCandidate{
		WorkoutID:       uuid.New(),
		Source:          domain.SourceBuiltIn,
		Name:            name,
		EnergySystems:   systems,
		DurationMinutes: minutes,
		ExpectedTSS:     tss,
		Difficulty:      difficulty,
	}
}

func TestRankWorkoutsExcludesOverlongCandidates(t *testing.T) {
	candidates := []domain.WorkoutCandidate{
		candidate("3h Endurance", []domain.EnergySystem{domain.SystemEndurance}, 180, 160, 4),
		candidate("2h Tempo", []domain.EnergySystem{domain.SystemTempo}, 120, 110, 6),
	}
	req := &domain.RecommendationRequest{AvailableMinutes: 45}

	result := RankWorkouts(candidates, nil, req, 50, 50, time.Now().UTC())

	if len(result.Rankings) != 0 {
		t.Fatalf("rankings = %d, want 0 when every candidate exceeds the available time", len(result.Rankings))
	}
	// Context fields are still populated for an empty ranking.
	if result.LoadStatus != domain.LoadOptimal {
		t.Errorf("load status = %s, want optimal at ACWR 1.0", result.LoadStatus)
	}
	if result.TrainingGap == "" {
		t.Error("training gap narrative missing")
	}
}

func TestRankWorkoutsOrdersByScore(t *testing.T) {
	goals := []domain.TrainingGoal{
		{Type: domain.GoalEnergySystem, TargetSystem: domain.SystemThreshold, Priority: 1},
	}
	candidates := []domain.WorkoutCandidate{
		candidate("2x20 Threshold", []domain.EnergySystem{domain.SystemThreshold}, 75, 85, 7),
		candidate("Recovery Spin", []domain.EnergySystem{domain.SystemEndurance}, 60, 35, 2),
	}
	req := &domain.RecommendationRequest{
		AvailableMinutes: 90,
		DaysSinceSystem: map[domain.EnergySystem]int{
			domain.SystemThreshold: 14,
			domain.SystemEndurance: 2,
		},
	}

	result := RankWorkouts(candidates, goals, req, 60, 60, time.Now().UTC())
	if len(result.Rankings) != 2 {
		t.Fatalf("rankings = %d, want 2", len(result.Rankings))
	}
	if result.Rankings[0].Candidate.Name != "2x20 Threshold" {
		t.Errorf("top ranking = %s, want the goal-aligned workout", result.Rankings[0].Candidate.Name)
	}
	for i := 1; i < len(result.Rankings); i++ {
		if result.Rankings[i].SuitabilityScore > result.Rankings[i-1].SuitabilityScore {
			t.Error("rankings not sorted best first")
		}
	}
	for _, r := range result.Rankings {
		if r.SuitabilityScore < 0 || r.SuitabilityScore > 1 {
			t.Errorf("%s score = %v, want within [0,1]", r.Candidate.Name, r.SuitabilityScore)
		}
		if r.Reasoning == "" {
			t.Errorf("%s has no reasoning", r.Candidate.Name)
		}
	}
	if !strings.Contains(result.Rankings[0].Reasoning, "threshold") {
		t.Errorf("top reasoning %q does not name the goal system", result.Rankings[0].Reasoning)
	}
}

func TestRankWorkoutsPenalizesRecentRepetition(t *testing.T) {
	repeated := candidate("VO2 Intervals", []domain.EnergySystem{domain.SystemVO2Max}, 60, 90, 8)
	fresh := candidate("VO2 Intervals B", []domain.EnergySystem{domain.SystemVO2Max}, 60, 90, 8)
	req := &domain.RecommendationRequest{
		AvailableMinutes:  90,
		RecentlyCompleted: []uuid.UUID{repeated.WorkoutID},
	}

	result := RankWorkouts([]domain.WorkoutCandidate{repeated, fresh}, nil, req, 60, 60, time.Now().UTC())
	if len(result.Rankings) != 2 {
		t.Fatalf("rankings = %d, want 2", len(result.Rankings))
	}
	if result.Rankings[0].Candidate.WorkoutID != fresh.WorkoutID {
		t.Error("the fresh workout must outrank its recently completed twin")
	}
	var repeatedRank domain.RankedWorkout
	for _, r := range result.Rankings {
		if r.Candidate.WorkoutID == repeated.WorkoutID {
			repeatedRank = r
		}
	}
	if repeatedRank.Breakdown.Novelty != 0.3 {
		t.Errorf("novelty term = %v, want the repetition penalty 0.3", repeatedRank.Breakdown.Novelty)
	}
	if !strings.Contains(repeatedRank.Reasoning, "repetition") {
		t.Errorf("reasoning %q does not mention the repetition penalty", repeatedRank.Reasoning)
	}
}

func TestRankWorkoutsLoadState(t *testing.T) {
	tests := []struct {
		name     string
		ctl, atl float64
		wantACWR float64
		want     domain.LoadStatus
	}{
		{"overreaching", 50, 70, 1.4, domain.LoadOverreaching},
		{"optimal", 60, 63, 1.05, domain.LoadOptimal},
		{"undertrained", 60, 42, 0.7, domain.LoadUndertrained},
		{"no history", 0, 0, 0, domain.LoadUndertrained},
	}

	hard := candidate("Anaerobic Capacity", []domain.EnergySystem{domain.SystemAnaerobic}, 60, 120, 9)
	req := &domain.RecommendationRequest{AvailableMinutes: 90}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RankWorkouts([]domain.WorkoutCandidate{hard}, nil, req, tt.ctl, tt.atl, time.Now().UTC())
			if result.LoadStatus != tt.want {
				t.Errorf("load status = %s, want %s", result.LoadStatus, tt.want)
			}
			if result.ACWR != tt.wantACWR {
				t.Errorf("acwr = %v, want %v", result.ACWR, tt.wantACWR)
			}
		})
	}
}

func TestRankWorkoutsSuppressesHighTSSWhenOverreaching(t *testing.T) {
	easy := candidate("Recovery Spin", []domain.EnergySystem{domain.SystemEndurance}, 60, 30, 2)
	hard := candidate("Big Threshold Day", []domain.EnergySystem{domain.SystemThreshold}, 80, 140, 8)
	req := &domain.RecommendationRequest{AvailableMinutes: 90}

	// ATL far above CTL: the band says back off.
	result := RankWorkouts([]domain.WorkoutCandidate{easy, hard}, nil, req, 50, 80, time.Now().UTC())

	var easyFit, hardFit float64
	for _, r := range result.Rankings {
		switch r.Candidate.WorkoutID {
		case easy.WorkoutID:
			easyFit = r.Breakdown.LoadFit
		case hard.WorkoutID:
			hardFit = r.Breakdown.LoadFit
		}
	}
	if easyFit <= hardFit {
		t.Errorf("load fit easy=%v hard=%v, want the low-TSS workout favored while overreaching", easyFit, hardFit)
	}
}

func TestRecommendServiceUnknownAthlete(t *testing.T) {
	svc := NewRecommendService(NewMockWorkoutRepository(), NewMockRideRepository(), NewMockAthleteRepository())

	_, err := svc.Recommend(context.Background(), uuid.New(), &domain.RecommendationRequest{AvailableMinutes: 60})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Recommend() error = %v, want ErrNotFound", err)
	}
}

func TestRecommendServicePoolsBuiltInAndOwnWorkouts(t *testing.T) {
	ctx := context.Background()
	athleteRepo := NewMockAthleteRepository()
	rideRepo := NewMockRideRepository()
	workoutRepo := NewMockWorkoutRepository()

	athlete := &domain.Athlete{Name: "Sofia"}
	if err := athleteRepo.Create(ctx, athlete); err != nil {
		t.Fatalf("create athlete: %v", err)
	}
	other := uuid.New()

	workouts := []domain.Workout{
		{Source: domain.SourceBuiltIn, Name: "Sweet Spot", EnergySystems: "tempo,threshold", DurationMinutes: 60, ExpectedTSS: 70, Difficulty: 5},
		{Source: domain.SourceUser, AthleteID: &athlete.ID, Name: "My Club Ride", EnergySystems: "endurance", DurationMinutes: 75, ExpectedTSS: 65, Difficulty: 4},
		{Source: domain.SourceUser, AthleteID: &other, Name: "Someone Else's", EnergySystems: "sprint", DurationMinutes: 45, ExpectedTSS: 50, Difficulty: 6},
	}
	for i := range workouts {
		if err := workoutRepo.Create(ctx, &workouts[i]); err != nil {
			t.Fatalf("create workout: %v", err)
		}
	}

	svc := NewRecommendService(workoutRepo, rideRepo, athleteRepo)
	result, err := svc.Recommend(ctx, athlete.ID, &domain.RecommendationRequest{AvailableMinutes: 120})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// No load history: undertrained, and the foreign user workout is
	// never part of the pool.
	if result.LoadStatus != domain.LoadUndertrained {
		t.Errorf("load status = %s, want undertrained with no history", result.LoadStatus)
	}
	if len(result.Rankings) != 2 {
		t.Fatalf("rankings = %d, want 2", len(result.Rankings))
	}
	for _, r := range result.Rankings {
		if r.Candidate.Name == "Someone Else's" {
			t.Error("another athlete's workout leaked into the pool")
		}
	}
}
