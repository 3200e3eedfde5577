package notifications

import (
	"context"
	"fmt"

	"anchorpoint/internal/bookings"
)

// Service publishes booking lifecycle notifications. Implements
// bookings.Notifier.
type Service interface {
	BookingConfirmed(ctx context.Context, email bookings.ConfirmationEmail) error
	PaymentReceived(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string, amountCents int) error
	WaiverSigned(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string) error
}

type service struct {
	producer Producer
}

func NewService(producer Producer) Service {
	return &service{producer: producer}
}

func (s *service) BookingConfirmed(ctx context.Context, email bookings.ConfirmationEmail) error {
	return s.producer.Publish(ctx, BuildBookingConfirmation(email))
}

func (s *service) PaymentReceived(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string, amountCents int) error {
	amount := fmt.Sprintf("$%.2f", float64(amountCents)/100)
	return s.producer.Publish(ctx, BuildPaymentReceived(recipients, guestName, tripTitle, serviceName, amount))
}

func (s *service) WaiverSigned(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string) error {
	return s.producer.Publish(ctx, BuildWaiverSigned(recipients, guestName, tripTitle, serviceName))
}
