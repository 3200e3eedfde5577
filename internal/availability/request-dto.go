package availability

import (
	"time"
)

// CreateBlockRequest creates an availability block on the current guide's
// calendar.
type CreateBlockRequest struct {
	Start          time.Time `json:"start" binding:"required"`
	End            time.Time `json:"end" binding:"required"`
	IsAvailable    bool      `json:"is_available"`
	GuideServiceID *uint     `json:"guide_service"`
	Visibility     string    `json:"visibility" binding:"omitempty,oneof=private busy detail"`
	Note           string    `json:"note" binding:"omitempty,max=500"`
}

// UpdateBlockRequest partially updates a block.
type UpdateBlockRequest struct {
	Start          *time.Time `json:"start,omitempty"`
	End            *time.Time `json:"end,omitempty"`
	IsAvailable    *bool      `json:"is_available,omitempty"`
	GuideServiceID *uint      `json:"guide_service,omitempty"`
	ClearService   bool       `json:"clear_service,omitempty"`
	Visibility     *string    `json:"visibility,omitempty" binding:"omitempty,oneof=private busy detail"`
	Note           *string    `json:"note,omitempty" binding:"omitempty,max=500"`
}

// ShareRequest sets the block's visibility override for one service.
type ShareRequest struct {
	GuideServiceID uint   `json:"guide_service_id" binding:"required"`
	Visibility     string `json:"visibility" binding:"required,oneof=private busy detail"`
}

// CreateIntegrationRequest registers an external calendar feed.
type CreateIntegrationRequest struct {
	Provider string `json:"provider" binding:"required,max=40"`
	Name     string `json:"name" binding:"omitempty,max=200"`
	FeedURL  string `json:"feed_url" binding:"omitempty,url"`
}

// ExternalEventInput is one upstream event in a sync payload.
type ExternalEventInput struct {
	UID    string    `json:"uid" binding:"required,max=255"`
	Title  string    `json:"title" binding:"omitempty,max=300"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Status string    `json:"status" binding:"omitempty,oneof=busy free tentative cancelled"`
}

// SyncRequest carries the full current state of the external calendar;
// uids absent from it are pruned.
type SyncRequest struct {
	Events []ExternalEventInput `json:"events" binding:"required,dive"`
}
