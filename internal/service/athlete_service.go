package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/repository"
)

// AthleteService manages athlete profiles, baselines and goals.
type AthleteService interface {
	Create(ctx context.Context, req *domain.CreateAthleteRequest) (*domain.Athlete, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Athlete, error)
	UpsertBaseline(ctx context.Context, athleteID uuid.UUID, req *domain.UpsertBaselineRequest) (*domain.AthleteBaseline, error)
	CreateGoal(ctx context.Context, athleteID uuid.UUID, req *domain.CreateGoalRequest) (*domain.TrainingGoal, error)
	ListGoals(ctx context.Context, athleteID uuid.UUID) ([]domain.TrainingGoal, error)
}

type athleteService struct {
	athleteRepo repository.AthleteRepository
}

// NewAthleteService creates a new AthleteService.
func NewAthleteService(athleteRepo repository.AthleteRepository) AthleteService {
	return &athleteService{athleteRepo: athleteRepo}
}

func (s *athleteService) Create(ctx context.Context, req *domain.CreateAthleteRequest) (*domain.Athlete, error) {
	plan := req.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	athlete := &domain.Athlete{
		Name:            req.Name,
		Plan:            plan,
		CurrentFTPWatts: req.CurrentFTPWatts,
	}
	if err := s.athleteRepo.Create(ctx, athlete); err != nil {
		return nil, err
	}
	return athlete, nil
}

func (s *athleteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Athlete, error) {
	return s.athleteRepo.GetByID(ctx, id)
}

func (s *athleteService) UpsertBaseline(ctx context.Context, athleteID uuid.UUID, req *domain.UpsertBaselineRequest) (*domain.AthleteBaseline, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	baseline := &domain.AthleteBaseline{
		AthleteID:                athleteID,
		RestingHR:                req.RestingHR,
		MaxHR:                    req.MaxHR,
		TypicalAerobicDecoupling: req.TypicalAerobicDecoupling,
		TypicalPowerVariability:  req.TypicalPowerVariability,
	}
	if err := s.athleteRepo.UpsertBaseline(ctx, baseline); err != nil {
		return nil, err
	}
	return baseline, nil
}

func (s *athleteService) CreateGoal(ctx context.Context, athleteID uuid.UUID, req *domain.CreateGoalRequest) (*domain.TrainingGoal, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	if req.Type == domain.GoalEnergySystem && req.TargetSystem == "" {
		return nil, domain.ErrInvalidInput
	}

	priority := req.Priority
	if priority <= 0 {
		priority = 1
	}
	goal := &domain.TrainingGoal{
		AthleteID:    athleteID,
		Type:         req.Type,
		TargetDate:   req.TargetDate,
		Priority:     priority,
		TargetSystem: req.TargetSystem,
	}
	if err := s.athleteRepo.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *athleteService) ListGoals(ctx context.Context, athleteID uuid.UUID) ([]domain.TrainingGoal, error) {
	exists, err := s.athleteRepo.Exists(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return s.athleteRepo.ListGoals(ctx, athleteID)
}
