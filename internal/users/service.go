package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation is no longer valid")
	ErrInvitationEmail    = errors.New("invitation was issued for a different email")
	ErrInvalidRole        = errors.New("invalid role")
)

// Service interface defines the contract for account business logic
type Service interface {
	GetProfile(ctx context.Context, userID uint) (*UserResponse, error)
	UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*UserResponse, error)
	ListMemberships(ctx context.Context, userID uint) ([]ServiceMembership, error)

	InviteToService(ctx context.Context, serviceID, invitedBy uint, req InviteRequest) (*ServiceInvitation, string, error)
	AcceptInvitation(ctx context.Context, userID uint, rawToken string) (*ServiceMembership, error)
	CancelInvitation(ctx context.Context, serviceID, invitationID uint) error
	ListInvitations(ctx context.Context, serviceID uint) ([]ServiceInvitation, error)
	DeactivateMembership(ctx context.Context, serviceID, membershipID uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProfile(ctx context.Context, userID uint) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*UserResponse, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if len(updates) == 0 {
		return s.GetProfile(ctx, userID)
	}

	user, err := s.repo.Update(ctx, userID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *service) ListMemberships(ctx context.Context, userID uint) ([]ServiceMembership, error) {
	return s.repo.GetMemberships(ctx, userID)
}

func (s *service) InviteToService(ctx context.Context, serviceID, invitedBy uint, req InviteRequest) (*ServiceInvitation, string, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !IsValidRole(string(role)) {
		return nil, "", ErrInvalidRole
	}

	rawToken, err := generateInviteToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate invitation token: %w", err)
	}

	invitation := &ServiceInvitation{
		GuideServiceID: serviceID,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Role:           role,
		Status:         InvitationPending,
		Token:          rawToken,
		ExpiresAt:      time.Now().Add(14 * 24 * time.Hour),
		InvitedByID:    &invitedBy,
	}

	if err := s.repo.CreateInvitation(ctx, invitation); err != nil {
		return nil, "", fmt.Errorf("failed to create invitation: %w", err)
	}
	return invitation, rawToken, nil
}

func (s *service) AcceptInvitation(ctx context.Context, userID uint, rawToken string) (*ServiceMembership, error) {
	invitation, err := s.repo.GetInvitationByToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	if !invitation.IsPending() {
		invitation.MarkExpired()
		_ = s.repo.SaveInvitation(ctx, invitation)
		return nil, ErrInvitationExpired
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !strings.EqualFold(user.Email, invitation.Email) {
		return nil, ErrInvitationEmail
	}

	now := time.Now()

	// Reactivate an existing membership when the user previously held this role.
	existing, err := s.repo.GetActiveMembership(ctx, userID, invitation.GuideServiceID, invitation.Role)
	if err == nil {
		existing.MarkActive()
		if err := s.repo.SaveMembership(ctx, existing); err != nil {
			return nil, err
		}
		s.completeInvitation(ctx, invitation, existing.ID, now)
		return existing, nil
	}

	membership := &ServiceMembership{
		UserID:         userID,
		GuideServiceID: invitation.GuideServiceID,
		Role:           invitation.Role,
		IsActive:       true,
		InvitedByID:    invitation.InvitedByID,
		InvitedAt:      &invitation.InvitedAt,
		AcceptedAt:     &now,
	}
	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	s.completeInvitation(ctx, invitation, membership.ID, now)
	return membership, nil
}

func (s *service) completeInvitation(ctx context.Context, invitation *ServiceInvitation, membershipID uint, at time.Time) {
	invitation.Status = InvitationAccepted
	invitation.AcceptedAt = &at
	invitation.MembershipID = &membershipID
	_ = s.repo.SaveInvitation(ctx, invitation)
}

func (s *service) CancelInvitation(ctx context.Context, serviceID, invitationID uint) error {
	invitations, err := s.repo.GetInvitationsForService(ctx, serviceID)
	if err != nil {
		return err
	}
	for i := range invitations {
		if invitations[i].ID == invitationID {
			if invitations[i].Status != InvitationPending {
				return ErrInvitationExpired
			}
			now := time.Now()
			invitations[i].Status = InvitationCancelled
			invitations[i].CancelledAt = &now
			return s.repo.SaveInvitation(ctx, &invitations[i])
		}
	}
	return ErrInvitationNotFound
}

func (s *service) ListInvitations(ctx context.Context, serviceID uint) ([]ServiceInvitation, error) {
	return s.repo.GetInvitationsForService(ctx, serviceID)
}

func (s *service) DeactivateMembership(ctx context.Context, serviceID, membershipID uint) error {
	// Lookups are scoped by service to stop cross-tenant edits.
	membership, err := s.repo.GetMembershipForService(ctx, serviceID, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	membership.MarkInactive()
	return s.repo.SaveMembership(ctx, membership)
}

func generateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
