package users

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (*User, error)

	// Membership queries
	GetMemberships(ctx context.Context, userID uint) ([]ServiceMembership, error)
	GetActiveMembership(ctx context.Context, userID, serviceID uint, roles ...Role) (*ServiceMembership, error)
	HasActiveRole(ctx context.Context, userID, serviceID uint, roles ...Role) (bool, error)
	GetMembershipForService(ctx context.Context, serviceID, membershipID uint) (*ServiceMembership, error)
	CreateMembership(ctx context.Context, membership *ServiceMembership) error
	SaveMembership(ctx context.Context, membership *ServiceMembership) error

	// Invitation queries
	CreateInvitation(ctx context.Context, invitation *ServiceInvitation) error
	GetInvitationByToken(ctx context.Context, token string) (*ServiceInvitation, error)
	SaveInvitation(ctx context.Context, invitation *ServiceInvitation) error
	GetInvitationsForService(ctx context.Context, serviceID uint) ([]ServiceInvitation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Update(ctx context.Context, id uint, updates map[string]interface{}) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetMemberships(ctx context.Context, userID uint) ([]ServiceMembership, error) {
	var memberships []ServiceMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("guide_service_id, role").
		Find(&memberships).Error
	return memberships, err
}

func (r *repository) GetActiveMembership(ctx context.Context, userID, serviceID uint, roles ...Role) (*ServiceMembership, error) {
	var membership ServiceMembership
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND guide_service_id = ? AND is_active = ?", userID, serviceID, true)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	if err := query.First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repository) HasActiveRole(ctx context.Context, userID, serviceID uint, roles ...Role) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&ServiceMembership{}).
		Where("user_id = ? AND guide_service_id = ? AND is_active = ?", userID, serviceID, true)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) GetMembershipForService(ctx context.Context, serviceID, membershipID uint) (*ServiceMembership, error) {
	var membership ServiceMembership
	err := r.db.WithContext(ctx).
		Where("id = ? AND guide_service_id = ?", membershipID, serviceID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repository) CreateMembership(ctx context.Context, membership *ServiceMembership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *repository) SaveMembership(ctx context.Context, membership *ServiceMembership) error {
	return r.db.WithContext(ctx).Save(membership).Error
}

func (r *repository) CreateInvitation(ctx context.Context, invitation *ServiceInvitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *repository) GetInvitationByToken(ctx context.Context, token string) (*ServiceInvitation, error) {
	var invitation ServiceInvitation
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) SaveInvitation(ctx context.Context, invitation *ServiceInvitation) error {
	return r.db.WithContext(ctx).Save(invitation).Error
}

func (r *repository) GetInvitationsForService(ctx context.Context, serviceID uint) ([]ServiceInvitation, error) {
	var invitations []ServiceInvitation
	err := r.db.WithContext(ctx).
		Where("guide_service_id = ?", serviceID).
		Order("invited_at DESC").
		Find(&invitations).Error
	return invitations, err
}
