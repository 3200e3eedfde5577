package reports

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, report *TripReport) error
	GetByID(ctx context.Context, id uint) (*TripReport, error)
	ListForTrip(ctx context.Context, tripID uint) ([]TripReport, error)
	Update(ctx context.Context, report *TripReport) error
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, report *TripReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*TripReport, error) {
	var report TripReport
	err := r.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) ListForTrip(ctx context.Context, tripID uint) ([]TripReport, error) {
	var reports []TripReport
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("submitted_at DESC, id DESC").
		Find(&reports).Error
	return reports, err
}

func (r *repository) Update(ctx context.Context, report *TripReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&TripReport{}, id).Error
}
