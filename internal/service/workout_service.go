package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
)

// WorkoutService manages the workout library.
type WorkoutService interface {
	// Import adds a user-authored workout to the athlete's pool.
	Import(ctx context.Context, athleteID uuid.UUID, req *domain.CreateWorkoutRequest) (*domain.Workout, error)
	ListCandidates(ctx context.Context, athleteID uuid.UUID) ([]domain.WorkoutCandidate, error)
}

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	athleteRepo repository.AthleteRepository
}

// NewWorkoutService creates a new WorkoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, athleteRepo repository.AthleteRepository) WorkoutService {
	return &workoutService{workoutRepo: workoutRepo, athleteRepo: athleteRepo}
}

func (s *workoutService) Import(ctx context.Context, athleteID uuid.UUID, req *domain.CreateWorkoutRequest) (*domain.Workout, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	systems := make([]string, len(req.EnergySystems))
	for i, system := range req.EnergySystems {
		systems[i] = string(system)
	}

	workout := &domain.Workout{
		AthleteID:       &athleteID,
		Source:          domain.SourceUser,
		Name:            req.Name,
		EnergySystems:   strings.Join(systems, ","),
		DurationMinutes: req.DurationMinutes,
		ExpectedTSS:     req.ExpectedTSS,
		Difficulty:      req.Difficulty,
	}
	if err := s.workoutRepo.Create(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *workoutService) ListCandidates(ctx context.Context, athleteID uuid.UUID) ([]domain.WorkoutCandidate, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	workouts, err := s.workoutRepo.ListCandidates(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	candidates := make([]domain.WorkoutCandidate, 0, len(workouts))
	for _, w := range workouts {
		candidates = append(candidates, w.Candidate())
	}
	return candidates, nil
}
