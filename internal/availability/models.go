package availability

import (
	"time"
)

// Source records where an availability block came from. Manual blocks are
// created by the guide; assignment and sync blocks mirror trips and
// external calendars.
type Source string

const (
	SourceManual     Source = "manual"
	SourceAssignment Source = "assignment"
	SourceSync       Source = "sync"
)

// Visibility controls what other services sharing the guide's calendar see.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityBusy    Visibility = "busy"
	VisibilityDetail  Visibility = "detail"
)

func IsValidVisibility(v string) bool {
	switch Visibility(v) {
	case VisibilityPrivate, VisibilityBusy, VisibilityDetail:
		return true
	}
	return false
}

// Availability is one block on a guide's calendar, available or not.
// End is exclusive, so back-to-back blocks never conflict.
type Availability struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	GuideID        uint       `json:"guide" gorm:"index;not null"`
	GuideServiceID *uint      `json:"guide_service" gorm:"index"`
	TripID         *uint      `json:"trip" gorm:"index"`
	Start          time.Time  `json:"start" gorm:"index;not null"`
	End            time.Time  `json:"end" gorm:"not null"`
	IsAvailable    bool       `json:"is_available" gorm:"default:false"`
	Source         Source     `json:"source" gorm:"type:varchar(20);default:'manual'"`
	Visibility     Visibility `json:"visibility" gorm:"type:varchar(20);default:'busy'"`
	Note           string     `json:"note" gorm:"size:500"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName sets the table name for Availability
func (Availability) TableName() string {
	return "availability_blocks"
}

// AvailabilityShare overrides a block's visibility for one guide service,
// so a guide can show detail to their main outfitter and busy to others.
type AvailabilityShare struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	AvailabilityID uint       `json:"availability_id" gorm:"not null;uniqueIndex:idx_share_block_service"`
	GuideServiceID uint       `json:"guide_service_id" gorm:"not null;uniqueIndex:idx_share_block_service"`
	Visibility     Visibility `json:"visibility" gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName sets the table name for AvailabilityShare
func (AvailabilityShare) TableName() string {
	return "availability_shares"
}

// CalendarIntegration is an external calendar a guide mirrors into their
// availability (Google, iCal feed, ...).
type CalendarIntegration struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	GuideID      uint       `json:"guide" gorm:"index;not null"`
	Provider     string     `json:"provider" gorm:"size:40;not null"`
	Name         string     `json:"name" gorm:"size:200"`
	FeedURL      string     `json:"feed_url" gorm:"size:1000"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName sets the table name for CalendarIntegration
func (CalendarIntegration) TableName() string {
	return "calendar_integrations"
}

// ExternalEvent is one upstream calendar event, keyed by (integration, uid)
// so repeat syncs upsert instead of duplicating. Each busy event mirrors
// into one sync-sourced availability block.
type ExternalEvent struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	IntegrationID  uint      `json:"integration_id" gorm:"not null;uniqueIndex:idx_external_integration_uid"`
	UID            string    `json:"uid" gorm:"size:255;not null;uniqueIndex:idx_external_integration_uid"`
	Title          string    `json:"title" gorm:"size:300"`
	Start          time.Time `json:"start" gorm:"not null"`
	End            time.Time `json:"end" gorm:"not null"`
	Status         string    `json:"status" gorm:"size:20;default:'busy'"`
	AvailabilityID *uint     `json:"availability_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName sets the table name for ExternalEvent
func (ExternalEvent) TableName() string {
	return "external_calendar_events"
}
