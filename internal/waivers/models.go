package waivers

import "time"

// Waiver tracks the liability waiver for a party. One waiver per party;
// the external provider reports back via webhook when it is signed.
type Waiver struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	PartyID    uint       `json:"party_id" gorm:"uniqueIndex;not null"`
	Provider   string     `json:"provider" gorm:"size:50;not null"`
	SignedAt   *time.Time `json:"signed_at"`
	URL        string     `json:"url" gorm:"size:500"`
	ExternalID string     `json:"external_id" gorm:"size:100;index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName sets the table name for Waiver
func (Waiver) TableName() string {
	return "waivers"
}

// Signed reports whether the provider has confirmed a signature.
func (w *Waiver) Signed() bool {
	return w.SignedAt != nil
}
