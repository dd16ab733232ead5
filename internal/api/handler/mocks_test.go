package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
)

// MockAthleteService is a mock implementation of AthleteService
type MockAthleteService struct {
	createFunc         func(ctx context.Context, req *domain.CreateAthleteRequest) (*domain.Athlete, error)
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Athlete, error)
	upsertBaselineFunc func(ctx context.Context, athleteID uuid.UUID, req *domain.UpsertBaselineRequest) (*domain.AthleteBaseline, error)
	createGoalFunc     func(ctx context.Context, athleteID uuid.UUID, req *domain.CreateGoalRequest) (*domain.TrainingGoal, error)
	listGoalsFunc      func(ctx context.Context, athleteID uuid.UUID) ([]domain.TrainingGoal, error)
}

func (m *MockAthleteService) Create(ctx context.Context, req *domain.CreateAthleteRequest) (*domain.Athlete, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &domain.Athlete{ID: uuid.New(), Name: req.Name, Plan: domain.PlanFree, CreatedAt: time.Now()}, nil
}

func (m *MockAthleteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Athlete, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockAthleteService) UpsertBaseline(ctx context.Context, athleteID uuid.UUID, req *domain.UpsertBaselineRequest) (*domain.AthleteBaseline, error) {
	if m.upsertBaselineFunc != nil {
		return m.upsertBaselineFunc(ctx, athleteID, req)
	}
	return &domain.AthleteBaseline{
		AthleteID:                athleteID,
		RestingHR:                req.RestingHR,
		MaxHR:                    req.MaxHR,
		TypicalAerobicDecoupling: req.TypicalAerobicDecoupling,
		TypicalPowerVariability:  req.TypicalPowerVariability,
		UpdatedAt:                time.Now(),
	}, nil
}

func (m *MockAthleteService) CreateGoal(ctx context.Context, athleteID uuid.UUID, req *domain.CreateGoalRequest) (*domain.TrainingGoal, error) {
	if m.createGoalFunc != nil {
		return m.createGoalFunc(ctx, athleteID, req)
	}
	return &domain.TrainingGoal{ID: uuid.New(), AthleteID: athleteID, Type: req.Type, Priority: req.Priority}, nil
}

func (m *MockAthleteService) ListGoals(ctx context.Context, athleteID uuid.UUID) ([]domain.TrainingGoal, error) {
	if m.listGoalsFunc != nil {
		return m.listGoalsFunc(ctx, athleteID)
	}
	return []domain.TrainingGoal{}, nil
}

// MockFTPService is a mock implementation of FTPService
type MockFTPService struct {
	predictFunc func(ctx context.Context, athleteID uuid.UUID, req *domain.FTPPredictRequest) (*domain.FTPPrediction, error)
}

func (m *MockFTPService) Predict(ctx context.Context, athleteID uuid.UUID, req *domain.FTPPredictRequest) (*domain.FTPPrediction, error) {
	if m.predictFunc != nil {
		return m.predictFunc(ctx, athleteID, req)
	}
	return nil, domain.ErrInsufficientData
}

// MockFatigueService is a mock implementation of FatigueService
type MockFatigueService struct {
	evaluateFunc func(ctx context.Context, athleteID uuid.UUID, req *domain.FatigueSampleRequest) (*domain.FatigueAssessment, error)
	dismissFunc  func(ctx context.Context, rideID uuid.UUID) (*domain.FatigueState, error)
	endRideFunc  func(ctx context.Context, rideID uuid.UUID) error
}

func (m *MockFatigueService) Evaluate(ctx context.Context, athleteID uuid.UUID, req *domain.FatigueSampleRequest) (*domain.FatigueAssessment, error) {
	if m.evaluateFunc != nil {
		return m.evaluateFunc(ctx, athleteID, req)
	}
	return &domain.FatigueAssessment{
		State:      domain.FatigueState{RideID: req.RideID, Phase: domain.PhaseMonitoring},
		ComputedAt: time.Now(),
	}, nil
}

func (m *MockFatigueService) Dismiss(ctx context.Context, rideID uuid.UUID) (*domain.FatigueState, error) {
	if m.dismissFunc != nil {
		return m.dismissFunc(ctx, rideID)
	}
	return &domain.FatigueState{RideID: rideID, Phase: domain.PhaseDismissed}, nil
}

func (m *MockFatigueService) EndRide(ctx context.Context, rideID uuid.UUID) error {
	if m.endRideFunc != nil {
		return m.endRideFunc(ctx, rideID)
	}
	return nil
}

// MockRecommendService is a mock implementation of RecommendService
type MockRecommendService struct {
	recommendFunc func(ctx context.Context, athleteID uuid.UUID, req *domain.RecommendationRequest) (*domain.RecommendationResult, error)
}

func (m *MockRecommendService) Recommend(ctx context.Context, athleteID uuid.UUID, req *domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	if m.recommendFunc != nil {
		return m.recommendFunc(ctx, athleteID, req)
	}
	return &domain.RecommendationResult{ComputedAt: time.Now()}, nil
}

// MockForecastService is a mock implementation of ForecastService
type MockForecastService struct {
	forecastFunc func(ctx context.Context, athleteID uuid.UUID, req *domain.ForecastRequest) (*domain.CTLForecast, error)
}

func (m *MockForecastService) Forecast(ctx context.Context, athleteID uuid.UUID, req *domain.ForecastRequest) (*domain.CTLForecast, error) {
	if m.forecastFunc != nil {
		return m.forecastFunc(ctx, athleteID, req)
	}
	return nil, domain.ErrInsufficientData
}

// MockCadenceService is a mock implementation of CadenceService
type MockCadenceService struct {
	analyzeFunc func(ctx context.Context, athleteID uuid.UUID, req *domain.CadenceAnalysisRequest) (*domain.CadenceAnalysis, error)
}

func (m *MockCadenceService) Analyze(ctx context.Context, athleteID uuid.UUID, req *domain.CadenceAnalysisRequest) (*domain.CadenceAnalysis, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, athleteID, req)
	}
	return &domain.CadenceAnalysis{}, nil
}

func newTestInferenceHandler(
	ftp *MockFTPService,
	fatigue *MockFatigueService,
) *InferenceHandler {
	if ftp == nil {
		ftp = &MockFTPService{}
	}
	if fatigue == nil {
		fatigue = &MockFatigueService{}
	}
	return NewInferenceHandler(ftp, fatigue, &MockRecommendService{}, &MockForecastService{}, &MockCadenceService{})
}
