package pricing

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, model *PricingModel) error
	GetByID(ctx context.Context, id uint) (*PricingModel, error)
	ListForService(ctx context.Context, serviceID uint) ([]PricingModel, error)
	Update(ctx context.Context, model *PricingModel) error
	ReplaceTiers(ctx context.Context, modelID uint, tiers []PricingTier) error
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, model *PricingModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*PricingModel, error) {
	var model PricingModel
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, min_guests")
		}).
		First(&model, id).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *repository) ListForService(ctx context.Context, serviceID uint) ([]PricingModel, error) {
	var models []PricingModel
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, min_guests")
		}).
		Where("guide_service_id = ?", serviceID).
		Order("name").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}

func (r *repository) Update(ctx context.Context, model *PricingModel) error {
	return r.db.WithContext(ctx).Omit("Tiers").Save(model).Error
}

// ReplaceTiers swaps the full tier set in one transaction.
func (r *repository) ReplaceTiers(ctx context.Context, modelID uint, tiers []PricingTier) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pricing_model_id = ?", modelID).Delete(&PricingTier{}).Error; err != nil {
			return err
		}
		for i := range tiers {
			tiers[i].ID = 0
			tiers[i].PricingModelID = modelID
			tiers[i].Position = i
		}
		if len(tiers) == 0 {
			return nil
		}
		return tx.Create(&tiers).Error
	})
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Tiers").Delete(&PricingModel{ID: id}).Error
}
