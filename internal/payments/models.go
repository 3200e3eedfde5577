package payments

import "time"

// Open checkout statuses whose amount may still be adjusted before the
// guest pays.
var openStatuses = map[string]bool{
	"unpaid":                  true,
	"open":                    true,
	"requires_payment_method": true,
	"pending":                 true,
}

// Payment is one checkout attempt for a trip party.
type Payment struct {
	ID                    uint      `json:"id" gorm:"primaryKey"`
	PartyID               uint      `json:"party_id" gorm:"index;not null"`
	AmountCents           int       `json:"amount_cents" gorm:"not null"`
	Currency              string    `json:"currency" gorm:"size:10;default:'usd'"`
	StripePaymentIntent   string    `json:"stripe_payment_intent" gorm:"size:200"`
	StripeCheckoutSession string    `json:"stripe_checkout_session" gorm:"size:200;index"`
	Status                string    `json:"status" gorm:"size:30"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// Open reports whether the payment can still have its amount changed.
func (p *Payment) Open() bool {
	return openStatuses[p.Status]
}
