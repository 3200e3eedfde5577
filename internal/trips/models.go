package trips

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"anchorpoint/internal/pricing"
)

// Trip is a scheduled outing owned by a guide service. Pricing is captured
// as a snapshot at creation time; later pricing-model edits never change
// what an existing trip charges.
type Trip struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	GuideServiceID   uint           `json:"guide_service_id" gorm:"index;not null"`
	Title            string         `json:"title" gorm:"size:300;not null"`
	Location         string         `json:"location" gorm:"size:300"`
	Start            time.Time      `json:"start" gorm:"index;not null"`
	End              time.Time      `json:"end" gorm:"not null"`
	PriceCents       *int           `json:"price_cents"`
	Difficulty       string         `json:"difficulty" gorm:"size:40"`
	Description      string         `json:"description" gorm:"type:text"`
	DurationHours    *float64       `json:"duration_hours"`
	TargetGuests     *int           `json:"target_guests"`
	TargetGuides     *int           `json:"target_guides"`
	Notes            string         `json:"notes" gorm:"type:text"`
	PricingSnapshot  datatypes.JSON `json:"pricing_snapshot" gorm:"type:jsonb"`
	TemplateSnapshot datatypes.JSON `json:"template_snapshot" gorm:"type:jsonb"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for Trip
func (Trip) TableName() string {
	return "trips"
}

// Snapshot decodes the embedded pricing snapshot, nil when none was
// captured.
func (t *Trip) Snapshot() *pricing.Snapshot {
	if len(t.PricingSnapshot) == 0 {
		return nil
	}
	var snapshot pricing.Snapshot
	if err := json.Unmarshal(t.PricingSnapshot, &snapshot); err != nil {
		return nil
	}
	return &snapshot
}

// PerGuestCents resolves the per-guest rate for a party size, falling back
// to the trip's flat price.
func (t *Trip) PerGuestCents(partySize int) *int {
	return pricing.SelectPricePerGuestCents(t.Snapshot(), partySize, t.PriceCents)
}

// Assignment puts a guide on a trip. One row per (trip, guide).
type Assignment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TripID    uint      `json:"trip_id" gorm:"not null;uniqueIndex:idx_assignment_trip_guide"`
	GuideID   uint      `json:"guide_id" gorm:"not null;uniqueIndex:idx_assignment_trip_guide"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for Assignment
func (Assignment) TableName() string {
	return "trip_assignments"
}

// TripTemplate is a reusable trip blueprint. Title is unique per service;
// the duplicate operation appends "(Copy)" suffixes to stay inside that
// constraint.
type TripTemplate struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	GuideServiceID  uint           `json:"guide_service_id" gorm:"not null;uniqueIndex:idx_template_service_title"`
	Title           string         `json:"title" gorm:"size:300;not null;uniqueIndex:idx_template_service_title"`
	Location        string         `json:"location" gorm:"size:300"`
	Difficulty      string         `json:"difficulty" gorm:"size:40"`
	Description     string         `json:"description" gorm:"type:text"`
	DurationHours   *float64       `json:"duration_hours"`
	TargetGuests    *int           `json:"target_guests"`
	TargetGuides    *int           `json:"target_guides"`
	Notes           string         `json:"notes" gorm:"type:text"`
	PriceCents      *int           `json:"price_cents"`
	PricingSnapshot datatypes.JSON `json:"pricing_snapshot" gorm:"type:jsonb"`
	IsActive        bool           `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName sets the table name for TripTemplate
func (TripTemplate) TableName() string {
	return "trip_templates"
}
