package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"gorm.io/gorm"
)

type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) error
	// ListCandidates returns the unioned candidate pool: every built-in
	// workout plus the athlete's own imports.
	ListCandidates(ctx context.Context, athleteID uuid.UUID) ([]domain.Workout, error)
}

type workoutRepository struct {
	db *gorm.DB
}

func NewWorkoutRepository(db *gorm.DB) WorkoutRepository {
	return &workoutRepository{db: db}
}

func (r *workoutRepository) Create(ctx context.Context, workout *domain.Workout) error {
	return r.db.WithContext(ctx).Create(workout).Error
}

func (r *workoutRepository) ListCandidates(ctx context.Context, athleteID uuid.UUID) ([]domain.Workout, error) {
	var workouts []domain.Workout
	err := r.db.WithContext(ctx).
		Where("source = ? OR athlete_id = ?", domain.SourceBuiltIn, athleteID).
		Order("name ASC").
		Find(&workouts).Error
	return workouts, err
}
