package database

import (
	"anchorpoint/internal/availability"
	"anchorpoint/internal/bookings"
	"anchorpoint/internal/orgs"
	"anchorpoint/internal/payments"
	"anchorpoint/internal/pricing"
	"anchorpoint/internal/reports"
	"anchorpoint/internal/trips"
	"anchorpoint/internal/users"
	"anchorpoint/internal/waivers"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&users.ServiceMembership{},
		&users.ServiceInvitation{},
		&orgs.GuideService{},
		&orgs.ServiceStripeAccount{},
		&pricing.PricingModel{},
		&pricing.PricingTier{},
		&availability.Availability{},
		&availability.AvailabilityShare{},
		&availability.CalendarIntegration{},
		&availability.ExternalEvent{},
		&trips.Trip{},
		&trips.Assignment{},
		&trips.TripTemplate{},
		&bookings.GuestProfile{},
		&bookings.TripParty{},
		&bookings.PartyGuest{},
		&bookings.GuestAccessToken{},
		&payments.Payment{},
		&waivers.Waiver{},
		&reports.TripReport{},
	)
}
