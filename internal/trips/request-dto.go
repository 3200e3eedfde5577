package trips

import (
	"time"
)

// InitialGuest is one guest in the party a trip is created with.
type InitialGuest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"omitempty,max=120"`
	LastName  string `json:"last_name" binding:"omitempty,max=120"`
	Phone     string `json:"phone" binding:"omitempty,max=40"`
	IsPrimary bool   `json:"is_primary"`
}

// InitialPartyRequest is the party every new trip starts with.
type InitialPartyRequest struct {
	PartySize int            `json:"party_size" binding:"omitempty,min=1"`
	Guests    []InitialGuest `json:"guests" binding:"required,min=1,dive"`
}

// CreateTripRequest creates a trip together with its initial party. A
// blank title falls back to the primary guest's name.
type CreateTripRequest struct {
	Title          string               `json:"title" binding:"omitempty,max=300"`
	Location       string               `json:"location" binding:"omitempty,max=300"`
	Start          time.Time            `json:"start" binding:"required"`
	End            time.Time            `json:"end" binding:"required"`
	PriceCents     *int                 `json:"price_cents" binding:"omitempty,min=0"`
	PricingModelID *uint                `json:"pricing_model_id"`
	TemplateID     *uint                `json:"template_id"`
	Difficulty     string               `json:"difficulty" binding:"omitempty,max=40"`
	Description    string               `json:"description"`
	DurationHours  *float64             `json:"duration_hours" binding:"omitempty,min=0"`
	TargetGuests   *int                 `json:"target_guests" binding:"omitempty,min=0"`
	TargetGuides   *int                 `json:"target_guides" binding:"omitempty,min=0"`
	Notes          string               `json:"notes"`
	Party          *InitialPartyRequest `json:"party" binding:"required"`
}

// UpdateTripRequest partially updates a trip. The pricing snapshot is
// immutable; only the flat fields change.
type UpdateTripRequest struct {
	Title         *string    `json:"title,omitempty" binding:"omitempty,max=300"`
	Location      *string    `json:"location,omitempty" binding:"omitempty,max=300"`
	Start         *time.Time `json:"start,omitempty"`
	End           *time.Time `json:"end,omitempty"`
	PriceCents    *int       `json:"price_cents,omitempty" binding:"omitempty,min=0"`
	Difficulty    *string    `json:"difficulty,omitempty" binding:"omitempty,max=40"`
	Description   *string    `json:"description,omitempty"`
	DurationHours *float64   `json:"duration_hours,omitempty" binding:"omitempty,min=0"`
	TargetGuests  *int       `json:"target_guests,omitempty" binding:"omitempty,min=0"`
	TargetGuides  *int       `json:"target_guides,omitempty" binding:"omitempty,min=0"`
	Notes         *string    `json:"notes,omitempty"`
}

// AssignGuidesRequest replaces the trip's full guide assignment set.
type AssignGuidesRequest struct {
	GuideIDs []uint `json:"guide_ids" binding:"required"`
}

// CreateTemplateRequest creates a reusable trip blueprint.
type CreateTemplateRequest struct {
	Title          string   `json:"title" binding:"required,max=300"`
	Location       string   `json:"location" binding:"omitempty,max=300"`
	Difficulty     string   `json:"difficulty" binding:"omitempty,max=40"`
	Description    string   `json:"description"`
	DurationHours  *float64 `json:"duration_hours" binding:"omitempty,min=0"`
	TargetGuests   *int     `json:"target_guests" binding:"omitempty,min=0"`
	TargetGuides   *int     `json:"target_guides" binding:"omitempty,min=0"`
	Notes          string   `json:"notes"`
	PriceCents     *int     `json:"price_cents" binding:"omitempty,min=0"`
	PricingModelID *uint    `json:"pricing_model_id"`
}

// UpdateTemplateRequest partially updates a template.
type UpdateTemplateRequest struct {
	Title         *string  `json:"title,omitempty" binding:"omitempty,max=300"`
	Location      *string  `json:"location,omitempty" binding:"omitempty,max=300"`
	Difficulty    *string  `json:"difficulty,omitempty" binding:"omitempty,max=40"`
	Description   *string  `json:"description,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty" binding:"omitempty,min=0"`
	TargetGuests  *int     `json:"target_guests,omitempty" binding:"omitempty,min=0"`
	TargetGuides  *int     `json:"target_guides,omitempty" binding:"omitempty,min=0"`
	Notes         *string  `json:"notes,omitempty"`
	PriceCents    *int     `json:"price_cents,omitempty" binding:"omitempty,min=0"`
	IsActive      *bool    `json:"is_active,omitempty"`
}
