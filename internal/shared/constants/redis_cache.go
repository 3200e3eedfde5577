package constants

import (
	"fmt"
	"time"
)

// Cache key prefixes. Every key this service writes to Redis starts with the
// app prefix so multiple deployments can share an instance.
const (
	AppCachePrefix = "anchorpoint"

	TripCachePrefix         = AppCachePrefix + ":trip"
	TripListCachePrefix     = AppCachePrefix + ":trips"
	GuideCalendarPrefix     = AppCachePrefix + ":calendar"
	PricingModelCachePrefix = AppCachePrefix + ":pricing"
	RosterCachePrefix       = AppCachePrefix + ":roster"
	RateLimitPrefix         = AppCachePrefix + ":ratelimit"
)

// Default TTLs for cached reads. Calendars change often while a guide is
// editing, so they get the shortest window.
const (
	TripCacheTTL     = 10 * time.Minute
	TripListCacheTTL = 2 * time.Minute
	CalendarCacheTTL = 5 * time.Minute
	PricingCacheTTL  = 30 * time.Minute
	RosterCacheTTL   = 15 * time.Minute
)

// TripCacheKey returns the cache key for a single trip.
func TripCacheKey(tripID uint) string {
	return fmt.Sprintf("%s:%d", TripCachePrefix, tripID)
}

// TripListCacheKey returns the cache key for a service's trip listing.
func TripListCacheKey(serviceID uint) string {
	return fmt.Sprintf("%s:service:%d", TripListCachePrefix, serviceID)
}

// GuideCalendarCacheKey returns the cache key for a guide's availability rows.
func GuideCalendarCacheKey(guideID uint) string {
	return fmt.Sprintf("%s:guide:%d", GuideCalendarPrefix, guideID)
}

// PricingModelCacheKey returns the cache key for a pricing model snapshot.
func PricingModelCacheKey(modelID uint) string {
	return fmt.Sprintf("%s:model:%d", PricingModelCachePrefix, modelID)
}

// RosterCacheKey returns the cache key for a service's active guide roster.
func RosterCacheKey(serviceID uint) string {
	return fmt.Sprintf("%s:service:%d", RosterCachePrefix, serviceID)
}
