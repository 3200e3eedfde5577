package notifications

import (
	"context"
	"strings"
	"testing"
	"time"

	"anchorpoint/internal/bookings"
)

type fakeProducer struct {
	published []*EmailMessage
}

func (p *fakeProducer) Publish(ctx context.Context, message *EmailMessage) error {
	p.published = append(p.published, message)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestBookingConfirmed_MessageContent(t *testing.T) {
	producer := &fakeProducer{}
	svc := NewService(producer)

	start := time.Date(2024, 7, 10, 8, 0, 0, 0, time.UTC)
	err := svc.BookingConfirmed(context.Background(), bookings.ConfirmationEmail{
		Recipients:  []string{"lead@example.com", "second@example.com"},
		GuestName:   "Jamie Ford",
		TripTitle:   "Canyon Overnight",
		ServiceName: "River Co",
		TripStart:   start,
		TripEnd:     start.Add(30 * time.Hour),
		PaymentURL:  "https://pay.example/cs_1",
		PortalURL:   "https://app.example/guest?token=abc",
	})
	if err != nil {
		t.Fatalf("BookingConfirmed: %v", err)
	}

	if len(producer.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(producer.published))
	}
	msg := producer.published[0]
	if msg.Type != TypeBookingConfirmed {
		t.Errorf("type = %s", msg.Type)
	}
	if msg.Subject != "Canyon Overnight booking confirmed" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.FromName != "River Co" {
		t.Errorf("from name = %q", msg.FromName)
	}
	if len(msg.Recipients) != 2 {
		t.Errorf("recipients = %v", msg.Recipients)
	}
	for _, want := range []string{
		"Hi Jamie Ford,",
		"You're booked on Canyon Overnight with River Co.",
		"Trip dates: July 10, 2024 to July 11, 2024.",
		"Complete payment: https://pay.example/cs_1",
		"Update guest details or view waivers: https://app.example/guest?token=abc",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q\n%s", want, msg.Body)
		}
	}
}

func TestBookingConfirmed_OmitsMissingLinks(t *testing.T) {
	producer := &fakeProducer{}
	svc := NewService(producer)

	err := svc.BookingConfirmed(context.Background(), bookings.ConfirmationEmail{
		Recipients: []string{"lead@example.com"},
		GuestName:  "Jamie",
		TripTitle:  "Day Hike",
		TripStart:  time.Now(),
		TripEnd:    time.Now(),
	})
	if err != nil {
		t.Fatalf("BookingConfirmed: %v", err)
	}

	body := producer.published[0].Body
	if strings.Contains(body, "Complete payment") {
		t.Error("payment line present without payment URL")
	}
	if strings.Contains(body, "waivers") {
		t.Error("portal line present without portal URL")
	}
	if producer.published[0].FromName != "your guide service" {
		t.Errorf("from name fallback = %q", producer.published[0].FromName)
	}
}

func TestPaymentReceived_FormatsAmount(t *testing.T) {
	producer := &fakeProducer{}
	svc := NewService(producer)

	err := svc.PaymentReceived(context.Background(), []string{"lead@example.com"}, "Jamie", "Canyon Overnight", "River Co", 80000)
	if err != nil {
		t.Fatalf("PaymentReceived: %v", err)
	}
	if !strings.Contains(producer.published[0].Body, "$800.00") {
		t.Errorf("body = %q", producer.published[0].Body)
	}
}

func TestPartitionKey_PrefersRecipient(t *testing.T) {
	msg := newMessage(TypeWaiverSigned, []string{"office@example.com"}, "River Co", "s", "b")
	if msg.PartitionKey() != "office@example.com" {
		t.Errorf("key = %q", msg.PartitionKey())
	}

	empty := newMessage(TypeWaiverSigned, nil, "River Co", "s", "b")
	if empty.PartitionKey() != empty.ID.String() {
		t.Errorf("fallback key = %q", empty.PartitionKey())
	}
}
