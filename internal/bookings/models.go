package bookings

import (
	"strings"
	"time"
)

// Payment, info and waiver lifecycle states carried on a party.
const (
	PaymentPending   = "PENDING"
	PaymentPaid      = "PAID"
	PaymentRefunded  = "REFUNDED"
	PaymentCancelled = "CANCELLED"

	InfoPending  = "PENDING"
	InfoComplete = "COMPLETE"

	WaiverPending = "PENDING"
	WaiverSigned  = "SIGNED"
)

// TokenPurposeLink is the general guest access link purpose.
const TokenPurposeLink = "link"

// GuestProfile is a guest (customer) who may attend one or more trips.
// Profiles are keyed by normalized email and shared across parties.
type GuestProfile struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`
	Email                 string     `json:"email" gorm:"size:254;uniqueIndex;not null"`
	FirstName             string     `json:"first_name" gorm:"size:120"`
	LastName              string     `json:"last_name" gorm:"size:120"`
	Phone                 string     `json:"phone" gorm:"size:30"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	EmergencyContactName  string     `json:"emergency_contact_name" gorm:"size:200"`
	EmergencyContactPhone string     `json:"emergency_contact_phone" gorm:"size:30"`
	MedicalNotes          string     `json:"medical_notes" gorm:"type:text"`
	DietaryNotes          string     `json:"dietary_notes" gorm:"type:text"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (GuestProfile) TableName() string {
	return "guest_profiles"
}

// FullName joins the guest's names, falling back to empty when both are blank.
func (g *GuestProfile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(g.FirstName) + " " + strings.TrimSpace(g.LastName))
}

// DisplayName prefers the full name and falls back to the email.
func (g *GuestProfile) DisplayName() string {
	if name := g.FullName(); name != "" {
		return name
	}
	return g.Email
}

// TripParty is a reservation on a trip covering one or more guests.
type TripParty struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	TripID              uint       `json:"trip_id" gorm:"index;not null"`
	PrimaryGuestID      uint       `json:"primary_guest_id" gorm:"not null"`
	PartySize           int        `json:"party_size" gorm:"not null;default:1"`
	PaymentStatus       string     `json:"payment_status" gorm:"size:12;default:'PENDING'"`
	InfoStatus          string     `json:"info_status" gorm:"size:12;default:'PENDING'"`
	WaiverStatus        string     `json:"waiver_status" gorm:"size:12;default:'PENDING'"`
	LastGuestActivityAt *time.Time `json:"last_guest_activity_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	PrimaryGuest *GuestProfile `json:"primary_guest,omitempty" gorm:"foreignKey:PrimaryGuestID"`
	PartyGuests  []PartyGuest  `json:"party_guests,omitempty" gorm:"foreignKey:PartyID;constraint:OnDelete:CASCADE;"`
}

func (TripParty) TableName() string {
	return "trip_parties"
}

// PartyGuest links a party to every attending guest.
type PartyGuest struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PartyID   uint      `json:"party_id" gorm:"not null;uniqueIndex:idx_party_guest"`
	GuestID   uint      `json:"guest_id" gorm:"not null;uniqueIndex:idx_party_guest"`
	IsPrimary bool      `json:"is_primary" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`

	Guest *GuestProfile `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
}

func (PartyGuest) TableName() string {
	return "trip_party_guests"
}

// GuestAccessToken is a magic-link credential letting a guest manage a
// party without an account. Only the sha256 hex of the raw token is stored.
type GuestAccessToken struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	GuestProfileID uint       `json:"guest_profile_id" gorm:"index;not null"`
	PartyID        *uint      `json:"party_id" gorm:"index"`
	TokenHash      string     `json:"-" gorm:"size:128;uniqueIndex;not null"`
	Purpose        string     `json:"purpose" gorm:"size:20;default:'link'"`
	SingleUse      bool       `json:"single_use" gorm:"default:true"`
	ExpiresAt      time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt         *time.Time `json:"used_at"`
	CreatedAt      time.Time  `json:"created_at"`

	GuestProfile *GuestProfile `json:"guest_profile,omitempty" gorm:"foreignKey:GuestProfileID"`
	Party        *TripParty    `json:"party,omitempty" gorm:"foreignKey:PartyID"`
}

func (GuestAccessToken) TableName() string {
	return "guest_access_tokens"
}

// Expired reports whether the token is past its expiry.
func (t *GuestAccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Spent reports whether a single-use token has already been consumed.
func (t *GuestAccessToken) Spent() bool {
	return t.SingleUse && t.UsedAt != nil
}
