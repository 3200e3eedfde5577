package payments

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByCheckoutSession(ctx context.Context, sessionID string) (*Payment, error)
	LatestForParty(ctx context.Context, partyID uint) (*Payment, error)
	ListForParty(ctx context.Context, partyID uint) ([]Payment, error)
	Update(ctx context.Context, payment *Payment) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) GetByCheckoutSession(ctx context.Context, sessionID string) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("stripe_checkout_session = ?", sessionID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) LatestForParty(ctx context.Context, partyID uint) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC, id DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListForParty(ctx context.Context, partyID uint) ([]Payment, error) {
	var payments []Payment
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

func (r *repository) Update(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}
