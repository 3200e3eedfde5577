package waivers

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, waiver *Waiver) error
	GetByParty(ctx context.Context, partyID uint) (*Waiver, error)
	GetByExternalID(ctx context.Context, externalID string) (*Waiver, error)
	Update(ctx context.Context, waiver *Waiver) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, waiver *Waiver) error {
	return r.db.WithContext(ctx).Create(waiver).Error
}

func (r *repository) GetByParty(ctx context.Context, partyID uint) (*Waiver, error) {
	var waiver Waiver
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		First(&waiver).Error
	if err != nil {
		return nil, err
	}
	return &waiver, nil
}

func (r *repository) GetByExternalID(ctx context.Context, externalID string) (*Waiver, error) {
	var waiver Waiver
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&waiver).Error
	if err != nil {
		return nil, err
	}
	return &waiver, nil
}

func (r *repository) Update(ctx context.Context, waiver *Waiver) error {
	return r.db.WithContext(ctx).Save(waiver).Error
}
