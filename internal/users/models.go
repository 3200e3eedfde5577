package users

import (
	"strings"
	"time"
)

// User is a staff account (owner, office manager, or guide). Guests do not
// get accounts; they use magic links issued by the bookings module.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"not null"` // hide in json
	FirstName   string    `json:"first_name" gorm:"size:120"`
	LastName    string    `json:"last_name" gorm:"size:120"`
	DisplayName string    `json:"display_name" gorm:"size:120"`
	IsSuperuser bool      `json:"is_superuser" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName sets the table name for User
func (User) TableName() string {
	return "users"
}

// FullName returns the user's display name, falling back to first/last name
// and finally the email address.
func (u *User) FullName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Email
}

// ServiceMembership ties a user to a guide service with a role. A user may
// hold different roles at different services.
type ServiceMembership struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_membership_user_service_role"`
	GuideServiceID uint       `json:"guide_service_id" gorm:"index;not null;uniqueIndex:idx_membership_user_service_role"`
	Role           Role       `json:"role" gorm:"type:varchar(20);not null;uniqueIndex:idx_membership_user_service_role"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	InvitedByID    *uint      `json:"invited_by,omitempty"`
	InvitedAt      *time.Time `json:"invited_at,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for ServiceMembership
func (ServiceMembership) TableName() string {
	return "service_memberships"
}

// MarkActive reactivates a membership and stamps acceptance on first use.
func (m *ServiceMembership) MarkActive() {
	if !m.IsActive {
		m.IsActive = true
		if m.AcceptedAt == nil {
			now := time.Now()
			m.AcceptedAt = &now
		}
	}
}

// MarkInactive deactivates a membership without deleting history.
func (m *ServiceMembership) MarkInactive() {
	m.IsActive = false
}

// InvitationStatus tracks the lifecycle of a roster invitation
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationCancelled InvitationStatus = "CANCELLED"
	InvitationExpired   InvitationStatus = "EXPIRED"
)

// ServiceInvitation is an emailed offer to join a service roster.
type ServiceInvitation struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	GuideServiceID uint             `json:"guide_service_id" gorm:"index;not null"`
	Email          string           `json:"email" gorm:"not null"`
	Role           Role             `json:"role" gorm:"type:varchar(20);not null"`
	Status         InvitationStatus `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	Token          string           `json:"-" gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt      time.Time        `json:"expires_at" gorm:"not null"`
	InvitedByID    *uint            `json:"invited_by,omitempty"`
	InvitedAt      time.Time        `json:"invited_at" gorm:"autoCreateTime"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
	CancelledAt    *time.Time       `json:"cancelled_at,omitempty"`
	MembershipID   *uint            `json:"membership_id,omitempty"`
}

// TableName sets the table name for ServiceInvitation
func (ServiceInvitation) TableName() string {
	return "service_invitations"
}

// IsPending reports whether the invitation can still be accepted.
func (i *ServiceInvitation) IsPending() bool {
	return i.Status == InvitationPending && !time.Now().After(i.ExpiresAt)
}

// MarkExpired flips a pending invitation to expired.
func (i *ServiceInvitation) MarkExpired() {
	if i.Status == InvitationPending {
		i.Status = InvitationExpired
	}
}

// UserResponse is the public shape of a user
type UserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToResponse converts a User to its public shape
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
