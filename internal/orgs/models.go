package orgs

import (
	"time"
)

// GuideService is the tenant: an outfitter or guide business. Everything
// else (trips, pricing models, rosters, payments) hangs off one of these.
type GuideService struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:200;not null"`
	Slug         string    `json:"slug" gorm:"uniqueIndex;size:220;not null"`
	ContactEmail string    `json:"contact_email" gorm:"size:254"`
	Phone        string    `json:"phone" gorm:"size:40"`
	LogoURL      string    `json:"logo_url" gorm:"size:500"`
	Timezone     string    `json:"timezone" gorm:"size:64;default:'UTC'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	StripeAccount *ServiceStripeAccount `json:"stripe_account,omitempty" gorm:"foreignKey:GuideServiceID"`
}

// TableName sets the table name for GuideService
func (GuideService) TableName() string {
	return "guide_services"
}

// ServiceStripeAccount tracks the connected Stripe account for a service.
// Flags mirror what Stripe reports on account.updated.
type ServiceStripeAccount struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	GuideServiceID  uint       `json:"guide_service_id" gorm:"uniqueIndex;not null"`
	StripeAccountID string     `json:"stripe_account_id" gorm:"uniqueIndex;size:64;not null"`
	ChargesEnabled  bool       `json:"charges_enabled" gorm:"default:false"`
	PayoutsEnabled  bool       `json:"payouts_enabled" gorm:"default:false"`
	DetailsSubmitted bool      `json:"details_submitted" gorm:"default:false"`
	DisabledReason  string     `json:"disabled_reason,omitempty" gorm:"size:200"`
	LastWebhookAt   *time.Time `json:"last_webhook_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName sets the table name for ServiceStripeAccount
func (ServiceStripeAccount) TableName() string {
	return "service_stripe_accounts"
}

// Ready reports whether the connected account can take charges.
func (a *ServiceStripeAccount) Ready() bool {
	return a.ChargesEnabled && a.DetailsSubmitted
}
