package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
)

// MockAthleteRepository is a mock implementation of AthleteRepository
type MockAthleteRepository struct {
	athletes  map[uuid.UUID]*domain.Athlete
	baselines map[uuid.UUID]*domain.AthleteBaseline
	goals     map[uuid.UUID][]domain.TrainingGoal
	err       error
}

func NewMockAthleteRepository() *MockAthleteRepository {
	return &MockAthleteRepository{
		athletes:  make(map[uuid.UUID]*domain.Athlete),
		baselines: make(map[uuid.UUID]*domain.AthleteBaseline),
		goals:     make(map[uuid.UUID][]domain.TrainingGoal),
	}
}

func (m *MockAthleteRepository) Create(ctx context.Context, athlete *domain.Athlete) error {
	if m.err != nil {
		return m.err
	}
	if athlete.ID == uuid.Nil {
		athlete.ID = uuid.New()
	}
	athlete.CreatedAt = time.Now()
	m.athletes[athlete.ID] = athlete
	return nil
}

func (m *MockAthleteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Athlete, error) {
	if m.err != nil {
		return nil, m.err
	}
	athlete, ok := m.athletes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return athlete, nil
}

func (m *MockAthleteRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.athletes[id]
	return ok, nil
}

func (m *MockAthleteRepository) UpsertBaseline(ctx context.Context, baseline *domain.AthleteBaseline) error {
	if m.err != nil {
		return m.err
	}
	m.baselines[baseline.AthleteID] = baseline
	return nil
}

func (m *MockAthleteRepository) GetBaseline(ctx context.Context, athleteID uuid.UUID) (*domain.AthleteBaseline, error) {
	if m.err != nil {
		return nil, m.err
	}
	baseline, ok := m.baselines[athleteID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return baseline, nil
}

func (m *MockAthleteRepository) CreateGoal(ctx context.Context, goal *domain.TrainingGoal) error {
	if m.err != nil {
		return m.err
	}
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	m.goals[goal.AthleteID] = append(m.goals[goal.AthleteID], *goal)
	return nil
}

func (m *MockAthleteRepository) ListGoals(ctx context.Context, athleteID uuid.UUID) ([]domain.TrainingGoal, error) {
	if m.err != nil {
		return nil, m.err
	}
	goals := make([]domain.TrainingGoal, len(m.goals[athleteID]))
	copy(goals, m.goals[athleteID])
	sort.SliceStable(goals, func(i, j int) bool { return goals[i].Priority < goals[j].Priority })
	return goals, nil
}

// MockRideRepository is a mock implementation of RideRepository
type MockRideRepository struct {
	rides map[uuid.UUID]*domain.RideSummary
	loads map[uuid.UUID][]domain.DailyLoad
	err   error
}

func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[uuid.UUID]*domain.RideSummary),
		loads: make(map[uuid.UUID][]domain.DailyLoad),
	}
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.RideSummary) error {
	if m.err != nil {
		return m.err
	}
	if ride.ID == uuid.Nil {
		ride.ID = uuid.New()
	}
	for i := range ride.BestEfforts {
		ride.BestEfforts[i].RideID = ride.ID
	}
	ride.CreatedAt = time.Now()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RideSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	ride, ok := m.rides[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ride, nil
}

func (m *MockRideRepository) List(ctx context.Context, athleteID uuid.UUID, filter domain.RideFilter) ([]domain.RideSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	var rides []domain.RideSummary
	for _, ride := range m.rides {
		if ride.AthleteID == athleteID {
			rides = append(rides, *ride)
		}
	}
	sort.Slice(rides, func(i, j int) bool { return rides[i].StartedAt.After(rides[j].StartedAt) })
	return rides, nil
}

func (m *MockRideRepository) ListByStartRange(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]domain.RideSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	var rides []domain.RideSummary
	for _, ride := range m.rides {
		if ride.AthleteID == athleteID && !ride.StartedAt.Before(from) && !ride.StartedAt.After(to) {
			rides = append(rides, *ride)
		}
	}
	sort.Slice(rides, func(i, j int) bool { return rides[i].StartedAt.Before(rides[j].StartedAt) })
	return rides, nil
}

func (m *MockRideRepository) UpsertDailyLoad(ctx context.Context, load *domain.DailyLoad) error {
	if m.err != nil {
		return m.err
	}
	loads := m.loads[load.AthleteID]
	for i := range loads {
		if loads[i].Date.Equal(load.Date) {
			loads[i] = *load
			return nil
		}
	}
	m.loads[load.AthleteID] = append(loads, *load)
	sort.Slice(m.loads[load.AthleteID], func(i, j int) bool {
		return m.loads[load.AthleteID][i].Date.Before(m.loads[load.AthleteID][j].Date)
	})
	return nil
}

func (m *MockRideRepository) ListDailyLoads(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]domain.DailyLoad, error) {
	if m.err != nil {
		return nil, m.err
	}
	var loads []domain.DailyLoad
	for _, load := range m.loads[athleteID] {
		if !load.Date.Before(from) && !load.Date.After(to) {
			loads = append(loads, load)
		}
	}
	return loads, nil
}

func (m *MockRideRepository) LatestDailyLoad(ctx context.Context, athleteID uuid.UUID) (*domain.DailyLoad, error) {
	if m.err != nil {
		return nil, m.err
	}
	loads := m.loads[athleteID]
	if len(loads) == 0 {
		return nil, domain.ErrNotFound
	}
	latest := loads[len(loads)-1]
	return &latest, nil
}

// MockWorkoutRepository is a mock implementation of WorkoutRepository
type MockWorkoutRepository struct {
	workouts []domain.Workout
	err      error
}

func NewMockWorkoutRepository() *MockWorkoutRepository {
	return &MockWorkoutRepository{}
}

func (m *MockWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) error {
	if m.err != nil {
		return m.err
	}
	if workout.ID == uuid.Nil {
		workout.ID = uuid.New()
	}
	m.workouts = append(m.workouts, *workout)
	return nil
}

func (m *MockWorkoutRepository) ListCandidates(ctx context.Context, athleteID uuid.UUID) ([]domain.Workout, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Workout
	for _, w := range m.workouts {
		if w.Source == domain.SourceBuiltIn || (w.AthleteID != nil && *w.AthleteID == athleteID) {
			out = append(out, w)
		}
	}
	return out, nil
}

func floatPtr(v float64) *float64 { return &v }
