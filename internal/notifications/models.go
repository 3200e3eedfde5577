package notifications

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"anchorpoint/internal/bookings"
)

type MessageType string

const (
	TypeBookingConfirmed MessageType = "booking_confirmed"
	TypePaymentReceived  MessageType = "payment_received"
	TypeWaiverSigned     MessageType = "waiver_signed"
)

// EmailMessage is the wire format on the notification topic. One message
// fans out to every recipient when consumed.
type EmailMessage struct {
	ID         uuid.UUID   `json:"id"`
	Type       MessageType `json:"type"`
	Recipients []string    `json:"recipients"`
	FromName   string      `json:"from_name"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (m *EmailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PartitionKey routes all mail for the same primary recipient to the same
// partition, keeping per-guest ordering.
func (m *EmailMessage) PartitionKey() string {
	if len(m.Recipients) > 0 {
		return m.Recipients[0]
	}
	return m.ID.String()
}

func newMessage(msgType MessageType, recipients []string, fromName, subject, body string) *EmailMessage {
	return &EmailMessage{
		ID:         uuid.New(),
		Type:       msgType,
		Recipients: recipients,
		FromName:   fromName,
		Subject:    subject,
		Body:       body,
		CreatedAt:  time.Now(),
	}
}

// BuildBookingConfirmation renders the plain-text confirmation sent when a
// party is booked.
func BuildBookingConfirmation(email bookings.ConfirmationEmail) *EmailMessage {
	serviceName := email.ServiceName
	if serviceName == "" {
		serviceName = "your guide service"
	}

	lines := []string{
		fmt.Sprintf("Hi %s,", email.GuestName),
		"",
		fmt.Sprintf("You're booked on %s with %s.", email.TripTitle, serviceName),
		fmt.Sprintf("Trip dates: %s to %s.",
			email.TripStart.Format("January 02, 2006"),
			email.TripEnd.Format("January 02, 2006")),
		"",
		"Next steps:",
	}
	if email.PaymentURL != "" {
		lines = append(lines, fmt.Sprintf(" - Complete payment: %s", email.PaymentURL))
	}
	if email.PortalURL != "" {
		lines = append(lines, fmt.Sprintf(" - Update guest details or view waivers: %s", email.PortalURL))
	}
	lines = append(lines,
		"",
		"If you have any questions, reply to this email and the guide service will assist you.",
		"",
		"- The Anchorpoint Team",
	)

	return newMessage(
		TypeBookingConfirmed,
		email.Recipients,
		serviceName,
		fmt.Sprintf("%s booking confirmed", email.TripTitle),
		strings.Join(lines, "\n"),
	)
}

// BuildPaymentReceived renders the receipt sent when a checkout completes.
func BuildPaymentReceived(recipients []string, guestName, tripTitle, serviceName, amount string) *EmailMessage {
	lines := []string{
		fmt.Sprintf("Hi %s,", guestName),
		"",
		fmt.Sprintf("Your payment of %s for %s has been received.", amount, tripTitle),
		"",
		"- The Anchorpoint Team",
	}
	return newMessage(
		TypePaymentReceived,
		recipients,
		serviceName,
		fmt.Sprintf("Payment received for %s", tripTitle),
		strings.Join(lines, "\n"),
	)
}

// BuildWaiverSigned notifies the guide service office that a party's waiver
// came back signed.
func BuildWaiverSigned(recipients []string, guestName, tripTitle, serviceName string) *EmailMessage {
	lines := []string{
		fmt.Sprintf("The waiver for %s on %s has been signed.", guestName, tripTitle),
		"",
		"No further action is needed.",
	}
	return newMessage(
		TypeWaiverSigned,
		recipients,
		serviceName,
		fmt.Sprintf("Waiver signed for %s", tripTitle),
		strings.Join(lines, "\n"),
	)
}
