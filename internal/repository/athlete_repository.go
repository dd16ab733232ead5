package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AthleteRepository interface {
	Create(ctx context.Context, athlete *domain.Athlete) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Athlete, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	UpsertBaseline(ctx context.Context, baseline *domain.AthleteBaseline) error
	GetBaseline(ctx context.Context, athleteID uuid.UUID) (*domain.AthleteBaseline, error)
	CreateGoal(ctx context.Context, goal *domain.TrainingGoal) error
	ListGoals(ctx context.Context, athleteID uuid.UUID) ([]domain.TrainingGoal, error)
}

type athleteRepository struct {
	db *gorm.DB
}

func NewAthleteRepository(db *gorm.DB) AthleteRepository {
	return &athleteRepository{db: db}
}

func (r *athleteRepository) Create(ctx context.Context, athlete *domain.Athlete) error {
	return r.db.WithContext(ctx).Create(athlete).Error
}

func (r *athleteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Athlete, error) {
	var athlete domain.Athlete
	err := r.db.WithContext(ctx).First(&athlete, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &athlete, nil
}

func (r *athleteRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Athlete{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *athleteRepository) UpsertBaseline(ctx context.Context, baseline *domain.AthleteBaseline) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "athlete_id"}},
		UpdateAll: true,
	}).Create(baseline).Error
}

func (r *athleteRepository) GetBaseline(ctx context.Context, athleteID uuid.UUID) (*domain.AthleteBaseline, error) {
	var baseline domain.AthleteBaseline
	err := r.db.WithContext(ctx).First(&baseline, "athlete_id = ?", athleteID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &baseline, nil
}

func (r *athleteRepository) CreateGoal(ctx context.Context, goal *domain.TrainingGoal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *athleteRepository) ListGoals(ctx context.Context, athleteID uuid.UUID) ([]domain.TrainingGoal, error) {
	var goals []domain.TrainingGoal
	err := r.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("priority ASC, created_at ASC").
		Find(&goals).Error
	return goals, err
}
