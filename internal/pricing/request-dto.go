package pricing

// TierInput is one tier in a create/update request.
type TierInput struct {
	MinGuests          int    `json:"min_guests" binding:"required,min=1"`
	MaxGuests          *int   `json:"max_guests" binding:"omitempty,min=1"`
	PricePerGuest      string `json:"price_per_guest" binding:"required"`
	PricePerGuestCents *int   `json:"price_per_guest_cents" binding:"omitempty,min=0"`
}

// CreateModelRequest creates a pricing model with its full tier set.
type CreateModelRequest struct {
	Name              string      `json:"name" binding:"required,min=1,max=200"`
	Currency          string      `json:"currency" binding:"omitempty,len=3"`
	IsDepositRequired bool        `json:"is_deposit_required"`
	DepositPercent    string      `json:"deposit_percent" binding:"omitempty"`
	Tiers             []TierInput `json:"tiers" binding:"required,min=1,dive"`
}

// UpdateModelRequest partially updates a pricing model. A non-nil Tiers
// slice replaces the whole tier set.
type UpdateModelRequest struct {
	Name              *string     `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Currency          *string     `json:"currency,omitempty" binding:"omitempty,len=3"`
	IsDepositRequired *bool       `json:"is_deposit_required,omitempty"`
	DepositPercent    *string     `json:"deposit_percent,omitempty"`
	IsActive          *bool       `json:"is_active,omitempty"`
	Tiers             []TierInput `json:"tiers,omitempty" binding:"omitempty,min=1,dive"`
}

// QuoteRequest resolves a per-guest price for a party size against a model.
type QuoteRequest struct {
	PartySize     int  `json:"party_size" binding:"required,min=1"`
	FallbackCents *int `json:"fallback_cents" binding:"omitempty,min=0"`
}
