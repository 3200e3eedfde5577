package pricing

import (
	"time"
)

// PricingModel is the live, editable tier set owned by a guide service.
// Trips and templates never reference it directly; they embed a Snapshot
// taken at creation time.
type PricingModel struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	GuideServiceID    uint      `json:"guide_service_id" gorm:"index;not null"`
	Name              string    `json:"name" gorm:"size:200;not null"`
	Currency          string    `json:"currency" gorm:"size:3;default:'USD'"`
	IsDepositRequired bool      `json:"is_deposit_required" gorm:"default:false"`
	DepositPercent    string    `json:"deposit_percent" gorm:"size:10;default:'0'"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Tiers []PricingTier `json:"tiers" gorm:"foreignKey:PricingModelID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for PricingModel
func (PricingModel) TableName() string {
	return "pricing_models"
}

// PricingTier is one persisted guest-count band of a pricing model.
type PricingTier struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	PricingModelID     uint   `json:"pricing_model_id" gorm:"index;not null"`
	MinGuests          int    `json:"min_guests" gorm:"not null"`
	MaxGuests          *int   `json:"max_guests"`
	PricePerGuest      string `json:"price_per_guest" gorm:"size:20;not null"`
	PricePerGuestCents *int   `json:"price_per_guest_cents"`
	Position           int    `json:"position" gorm:"not null;default:0"`
}

// TableName sets the table name for PricingTier
func (PricingTier) TableName() string {
	return "pricing_tiers"
}

// ToSnapshot copies the model into the immutable form embedded in trips
// and templates.
func (m *PricingModel) ToSnapshot() *Snapshot {
	tiers := make([]Tier, 0, len(m.Tiers))
	for _, t := range m.Tiers {
		tier := Tier{
			MinGuests:     t.MinGuests,
			PricePerGuest: t.PricePerGuest,
		}
		if t.MaxGuests != nil {
			max := *t.MaxGuests
			tier.MaxGuests = &max
		}
		if t.PricePerGuestCents != nil {
			cents := *t.PricePerGuestCents
			tier.PricePerGuestCents = &cents
		}
		tiers = append(tiers, tier)
	}
	return &Snapshot{
		Currency:          m.Currency,
		IsDepositRequired: m.IsDepositRequired,
		DepositPercent:    m.DepositPercent,
		Tiers:             tiers,
	}
}
