package trips

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, trip *Trip) error
	GetByID(ctx context.Context, id uint) (*Trip, error)
	ListForService(ctx context.Context, serviceID uint, from, to *time.Time) ([]Trip, error)
	ListAssignedToGuide(ctx context.Context, serviceID, guideID uint, from, to *time.Time) ([]Trip, error)
	Update(ctx context.Context, trip *Trip) error
	Delete(ctx context.Context, id uint) error

	ListAssignments(ctx context.Context, tripID uint) ([]Assignment, error)
	CreateAssignments(ctx context.Context, assignments []Assignment) error
	DeleteAssignments(ctx context.Context, tripID uint, guideIDs []uint) error

	CreateTemplate(ctx context.Context, template *TripTemplate) error
	GetTemplate(ctx context.Context, id uint) (*TripTemplate, error)
	ListTemplates(ctx context.Context, serviceID uint, activeOnly bool) ([]TripTemplate, error)
	UpdateTemplate(ctx context.Context, template *TripTemplate) error
	DeleteTemplate(ctx context.Context, id uint) error
	TemplateTitleExists(ctx context.Context, serviceID uint, title string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, trip *Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Trip, error) {
	var trip Trip
	err := r.db.WithContext(ctx).Preload("Assignments").First(&trip, id).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func applyWindow(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where(`trips."end" > ?`, *from)
	}
	if to != nil {
		query = query.Where("trips.start < ?", *to)
	}
	return query
}

func (r *repository) ListForService(ctx context.Context, serviceID uint, from, to *time.Time) ([]Trip, error) {
	var trips []Trip
	query := r.db.WithContext(ctx).
		Preload("Assignments").
		Where("guide_service_id = ?", serviceID)
	err := applyWindow(query, from, to).Order("start, id").Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *repository) ListAssignedToGuide(ctx context.Context, serviceID, guideID uint, from, to *time.Time) ([]Trip, error) {
	var trips []Trip
	query := r.db.WithContext(ctx).
		Preload("Assignments").
		Joins("JOIN trip_assignments ON trip_assignments.trip_id = trips.id").
		Where("trips.guide_service_id = ? AND trip_assignments.guide_id = ?", serviceID, guideID)
	err := applyWindow(query, from, to).Order("trips.start, trips.id").Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *repository) Update(ctx context.Context, trip *Trip) error {
	return r.db.WithContext(ctx).Omit("Assignments").Save(trip).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", id).Delete(&Assignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Trip{}, id).Error
	})
}

func (r *repository) ListAssignments(ctx context.Context, tripID uint) ([]Assignment, error) {
	var assignments []Assignment
	err := r.db.WithContext(ctx).Where("trip_id = ?", tripID).Order("id").Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) CreateAssignments(ctx context.Context, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&assignments).Error
}

func (r *repository) DeleteAssignments(ctx context.Context, tripID uint, guideIDs []uint) error {
	if len(guideIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("trip_id = ? AND guide_id IN ?", tripID, guideIDs).
		Delete(&Assignment{}).Error
}

func (r *repository) CreateTemplate(ctx context.Context, template *TripTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *repository) GetTemplate(ctx context.Context, id uint) (*TripTemplate, error) {
	var template TripTemplate
	err := r.db.WithContext(ctx).First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repository) ListTemplates(ctx context.Context, serviceID uint, activeOnly bool) ([]TripTemplate, error) {
	query := r.db.WithContext(ctx).Where("guide_service_id = ?", serviceID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var templates []TripTemplate
	err := query.Order("title").Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repository) UpdateTemplate(ctx context.Context, template *TripTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *repository) DeleteTemplate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&TripTemplate{}, id).Error
}

func (r *repository) TemplateTitleExists(ctx context.Context, serviceID uint, title string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TripTemplate{}).
		Where("guide_service_id = ? AND title = ?", serviceID, title).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
