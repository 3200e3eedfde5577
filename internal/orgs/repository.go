package orgs

import (
	"context"

	"gorm.io/gorm"

	"anchorpoint/internal/users"
)

type Repository interface {
	Create(ctx context.Context, service *GuideService) error
	GetByID(ctx context.Context, id uint) (*GuideService, error)
	GetBySlug(ctx context.Context, slug string) (*GuideService, error)
	Update(ctx context.Context, service *GuideService) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]GuideService, error)
	GetRoster(ctx context.Context, serviceID uint) ([]users.ServiceMembership, error)

	GetStripeAccount(ctx context.Context, serviceID uint) (*ServiceStripeAccount, error)
	GetStripeAccountByAccountID(ctx context.Context, accountID string) (*ServiceStripeAccount, error)
	SaveStripeAccount(ctx context.Context, account *ServiceStripeAccount) error
	DeleteStripeAccount(ctx context.Context, serviceID uint) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, service *GuideService) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*GuideService, error) {
	var service GuideService
	err := r.db.WithContext(ctx).Preload("StripeAccount").First(&service, id).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*GuideService, error) {
	var service GuideService
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&service).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *repository) Update(ctx context.Context, service *GuideService) error {
	return r.db.WithContext(ctx).Save(service).Error
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&GuideService{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uint) ([]GuideService, error) {
	var services []GuideService
	err := r.db.WithContext(ctx).
		Joins("JOIN service_memberships ON service_memberships.guide_service_id = guide_services.id").
		Where("service_memberships.user_id = ? AND service_memberships.is_active = ?", userID, true).
		Distinct().
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) GetRoster(ctx context.Context, serviceID uint) ([]users.ServiceMembership, error) {
	var memberships []users.ServiceMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("guide_service_id = ? AND is_active = ?", serviceID, true).
		Order("role, id").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *repository) GetStripeAccount(ctx context.Context, serviceID uint) (*ServiceStripeAccount, error) {
	var account ServiceStripeAccount
	err := r.db.WithContext(ctx).Where("guide_service_id = ?", serviceID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) GetStripeAccountByAccountID(ctx context.Context, accountID string) (*ServiceStripeAccount, error) {
	var account ServiceStripeAccount
	err := r.db.WithContext(ctx).Where("stripe_account_id = ?", accountID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) SaveStripeAccount(ctx context.Context, account *ServiceStripeAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *repository) DeleteStripeAccount(ctx context.Context, serviceID uint) error {
	return r.db.WithContext(ctx).Where("guide_service_id = ?", serviceID).Delete(&ServiceStripeAccount{}).Error
}
