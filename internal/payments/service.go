package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"anchorpoint/internal/shared/config"
	"anchorpoint/pkg/logger"
)

var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
)

// CheckoutInput describes the charge a checkout session is created for.
// The caller resolves trip and routing details so this package stays free
// of booking internals.
type CheckoutInput struct {
	PartyID         uint
	TripID          uint
	GuideServiceID  uint
	TripTitle       string
	AmountCents     int
	Currency        string
	StripeAccountID string
}

// CheckoutSession is the subset of the Stripe session the booking flow
// consumes, identical in shape between live and stub mode.
type CheckoutSession struct {
	ID              string `json:"id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
	URL             string `json:"url"`
}

// PartyMarker lets the webhook flip a party's payment status without a
// dependency on the bookings package.
type PartyMarker interface {
	MarkPartyPaid(ctx context.Context, partyID uint) error
}

type Service interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error)
	ListForParty(ctx context.Context, partyID uint) ([]Payment, error)
	LatestForParty(ctx context.Context, partyID uint) (*Payment, error)
	// UpdateOpenAmount adjusts the latest payment's amount if it is still
	// open. Returns false when no open payment exists.
	UpdateOpenAmount(ctx context.Context, partyID uint, amountCents int) (bool, error)
	// PreviewURL recreates the stub checkout link for the latest payment.
	// Returns empty when running against live Stripe.
	PreviewURL(ctx context.Context, partyID uint) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	SetPartyMarker(marker PartyMarker)
}

type service struct {
	repo   Repository
	config *config.Config
	marker PartyMarker
	logger *logger.Logger
}

func NewService(repo Repository, cfg *config.Config) Service {
	if cfg.StripeEnabled() {
		stripe.Key = cfg.Stripe.SecretKey
	}
	return &service{
		repo:   repo,
		config: cfg,
		logger: logger.GetDefault(),
	}
}

func (s *service) SetPartyMarker(marker PartyMarker) {
	s.marker = marker
}

func (s *service) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	currency := input.Currency
	if currency == "" {
		currency = "usd"
	}

	var checkout *CheckoutSession
	if s.config.StripeEnabled() {
		live, err := s.liveCheckoutSession(input, currency)
		if err != nil {
			return nil, fmt.Errorf("create checkout session: %w", err)
		}
		checkout = live
	} else {
		checkout = s.stubCheckoutSession(input)
	}

	payment := &Payment{
		PartyID:               input.PartyID,
		AmountCents:           input.AmountCents,
		Currency:              currency,
		StripePaymentIntent:   checkout.PaymentIntentID,
		StripeCheckoutSession: checkout.ID,
		Status:                checkout.Status,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return checkout, nil
}

func (s *service) liveCheckoutSession(input CheckoutInput, currency string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(int64(input.AmountCents)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.TripTitle),
					},
				},
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/payment/success?party=%d", s.config.FrontendURL, input.PartyID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/payment/cancel?party=%d", s.config.FrontendURL, input.PartyID)),
	}
	params.AddMetadata("party_id", strconv.FormatUint(uint64(input.PartyID), 10))
	params.AddMetadata("trip_id", strconv.FormatUint(uint64(input.TripID), 10))
	params.AddMetadata("guide_service_id", strconv.FormatUint(uint64(input.GuideServiceID), 10))

	// Route the charge to the service's connected account when it has one
	if input.StripeAccountID != "" {
		params.SetStripeAccount(input.StripeAccountID)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}

	checkout := &CheckoutSession{
		ID:     sess.ID,
		Status: string(sess.PaymentStatus),
		URL:    sess.URL,
	}
	if sess.PaymentIntent != nil {
		checkout.PaymentIntentID = sess.PaymentIntent.ID
	}
	return checkout, nil
}

func (s *service) stubCheckoutSession(input CheckoutInput) *CheckoutSession {
	sessionID := "cs_test_" + uuid.New().String()
	return &CheckoutSession{
		ID:              sessionID,
		PaymentIntentID: "pi_test_" + uuid.New().String(),
		Status:          "unpaid",
		URL:             s.previewURL(input.PartyID, input.AmountCents, sessionID),
	}
}

func (s *service) previewURL(partyID uint, amountCents int, sessionID string) string {
	return fmt.Sprintf("%s/payments/preview?party=%d&amount=%d&session=%s",
		s.config.FrontendURL, partyID, amountCents, sessionID)
}

func (s *service) ListForParty(ctx context.Context, partyID uint) ([]Payment, error) {
	return s.repo.ListForParty(ctx, partyID)
}

func (s *service) LatestForParty(ctx context.Context, partyID uint) (*Payment, error) {
	payment, err := s.repo.LatestForParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *service) UpdateOpenAmount(ctx context.Context, partyID uint, amountCents int) (bool, error) {
	payment, err := s.repo.LatestForParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !payment.Open() {
		return false, nil
	}

	payment.AmountCents = amountCents
	if err := s.repo.Update(ctx, payment); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) PreviewURL(ctx context.Context, partyID uint) (string, error) {
	if s.config.StripeEnabled() {
		return "", nil
	}
	payment, err := s.repo.LatestForParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if payment.StripeCheckoutSession == "" {
		return "", nil
	}
	return s.previewURL(partyID, payment.AmountCents, payment.StripeCheckoutSession), nil
}

// HandleWebhook processes checkout lifecycle events. With a webhook secret
// configured the signature is verified; without one the payload is trusted,
// which only happens in stub mode.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	var event stripe.Event
	if s.config.Stripe.WebhookSecret != "" {
		verified, err := webhook.ConstructEvent(payload, signature, s.config.Stripe.WebhookSecret)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "checkout.session.expired":
		return s.handleCheckoutExpired(ctx, event)
	default:
		return nil
	}
}

func (s *service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	payment, err := s.repo.GetByCheckoutSession(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Sessions from other environments are not ours to process
			return nil
		}
		return err
	}

	payment.Status = "paid"
	if err := s.repo.Update(ctx, payment); err != nil {
		return err
	}

	s.logger.LogPaymentUpdated(ctx, strconv.FormatUint(uint64(payment.ID), 10), payment.Status, payment.AmountCents)

	if s.marker != nil {
		return s.marker.MarkPartyPaid(ctx, payment.PartyID)
	}
	return nil
}

func (s *service) handleCheckoutExpired(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	payment, err := s.repo.GetByCheckoutSession(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !payment.Open() {
		return nil
	}

	payment.Status = "expired"
	if err := s.repo.Update(ctx, payment); err != nil {
		return err
	}
	s.logger.LogPaymentUpdated(ctx, strconv.FormatUint(uint64(payment.ID), 10), payment.Status, payment.AmountCents)
	return nil
}
