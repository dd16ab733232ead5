package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RideRepository interface {
	Create(ctx context.Context, ride *domain.RideSummary) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RideSummary, error)
	List(ctx context.Context, athleteID uuid.UUID, filter domain.RideFilter) ([]domain.RideSummary, error)
	// ListByStartRange returns rides with their best-effort points,
	// oldest first, for curve building and FTP prediction.
	ListByStartRange(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]domain.RideSummary, error)
	UpsertDailyLoad(ctx context.Context, load *domain.DailyLoad) error
	ListDailyLoads(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]domain.DailyLoad, error)
	LatestDailyLoad(ctx context.Context, athleteID uuid.UUID) (*domain.DailyLoad, error)
}

type rideRepository struct {
	db *gorm.DB
}

func NewRideRepository(db *gorm.DB) RideRepository {
	return &rideRepository{db: db}
}

func (r *rideRepository) Create(ctx context.Context, ride *domain.RideSummary) error {
	return r.db.WithContext(ctx).Create(ride).Error
}

func (r *rideRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RideSummary, error) {
	var ride domain.RideSummary
	err := r.db.WithContext(ctx).Preload("BestEfforts").First(&ride, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ride, nil
}

func (r *rideRepository) List(ctx context.Context, athleteID uuid.UUID, filter domain.RideFilter) ([]domain.RideSummary, error) {
	query := r.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("started_at DESC")

	if filter.From != nil {
		query = query.Where("started_at >= ?", filter.From)
	}
	if filter.To != nil {
		query = query.Where("started_at <= ?", filter.To)
	}

	if filter.Cursor != "" {
		cursor, err := pagination.DecodeCursor(filter.Cursor)
		if err == nil && cursor != nil {
			query = query.Where(
				"(started_at < ?) OR (started_at = ? AND id < ?)",
				cursor.StartedAt, cursor.StartedAt, cursor.ID,
			)
		}
	}

	// Fetch one extra to determine if there are more results
	limit := pagination.NormalizeLimit(filter.Limit)
	query = query.Limit(limit + 1)

	var rides []domain.RideSummary
	if err := query.Preload("BestEfforts").Find(&rides).Error; err != nil {
		return nil, err
	}
	return rides, nil
}

func (r *rideRepository) ListByStartRange(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]domain.RideSummary, error) {
	var rides []domain.RideSummary
	err := r.db.WithContext(ctx).
		Where("athlete_id = ? AND started_at >= ? AND started_at <= ?", athleteID, from, to).
		Order("started_at ASC").
		Preload("BestEfforts").
		Find(&rides).Error
	return rides, err
}

func (r *rideRepository) UpsertDailyLoad(ctx context.Context, load *domain.DailyLoad) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "athlete_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"tss", "ctl", "atl"}),
	}).Create(load).Error
}

func (r *rideRepository) ListDailyLoads(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]domain.DailyLoad, error) {
	var loads []domain.DailyLoad
	err := r.db.WithContext(ctx).
		Where("athlete_id = ? AND date >= ? AND date <= ?", athleteID, from, to).
		Order("date ASC").
		Find(&loads).Error
	return loads, err
}

func (r *rideRepository) LatestDailyLoad(ctx context.Context, athleteID uuid.UUID) (*domain.DailyLoad, error) {
	var load domain.DailyLoad
	err := r.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("date DESC").
		First(&load).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &load, nil
}
