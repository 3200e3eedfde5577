package bookings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"anchorpoint/internal/orgs"
	"anchorpoint/internal/payments"
	"anchorpoint/internal/shared/config"
	"anchorpoint/internal/trips"
	"anchorpoint/pkg/logger"
)

var (
	ErrGuestNotFound     = errors.New("guest not found")
	ErrPartyNotFound     = errors.New("party not found")
	ErrGuestEmailMissing = errors.New("guest email is required")
	ErrPartySizeTooSmall = errors.New("party size must cover confirmed guests")
	ErrTokenInvalid      = errors.New("invalid or expired token")
)

// defaultLinkTTL extends guest access past the trip's end.
const defaultLinkTTL = 24 * time.Hour

// ServiceDirectory resolves guide service details for checkout routing and
// email sender names.
type ServiceDirectory interface {
	GetByID(ctx context.Context, id uint) (*orgs.GuideService, error)
	GetStripeAccount(ctx context.Context, serviceID uint) (*orgs.ServiceStripeAccount, error)
}

// TripSource looks up trips for party operations.
type TripSource interface {
	GetByID(ctx context.Context, id uint) (*trips.Trip, error)
}

// ConfirmationEmail is handed to the notification pipeline when a party is
// booked.
type ConfirmationEmail struct {
	Recipients  []string  `json:"recipients"`
	GuestName   string    `json:"guest_name"`
	TripTitle   string    `json:"trip_title"`
	ServiceName string    `json:"service_name"`
	TripStart   time.Time `json:"trip_start"`
	TripEnd     time.Time `json:"trip_end"`
	PaymentURL  string    `json:"payment_url"`
	PortalURL   string    `json:"portal_url"`
}

// Notifier dispatches booking lifecycle messages. The notifications module
// implements it; a no-op keeps the flow working without brokers.
type Notifier interface {
	BookingConfirmed(ctx context.Context, email ConfirmationEmail) error
	PaymentReceived(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string, amountCents int) error
}

// PartyCreated is the result of booking an initial party onto a trip.
type PartyCreated struct {
	Party      *TripParty `json:"party"`
	PaymentURL string     `json:"payment_url"`
	PortalURL  string     `json:"portal_url"`
}

// GuestDetail pairs a guest profile with every party it appears on.
type GuestDetail struct {
	Guest   *GuestProfile `json:"guest"`
	Parties []TripParty   `json:"parties"`
}

// GuestLink is an issued magic link. The raw token appears only here.
type GuestLink struct {
	Token     *GuestAccessToken `json:"token"`
	RawToken  string            `json:"raw_token"`
	PortalURL string            `json:"portal_url"`
}

// PortalSession is what a valid token unlocks in the guest portal.
type PortalSession struct {
	Guest *GuestProfile `json:"guest"`
	Party *TripParty    `json:"party,omitempty"`
	Trip  *trips.Trip   `json:"trip,omitempty"`
}

type Service interface {
	// CreateInitialParty books the first party on a freshly created trip.
	CreateInitialParty(ctx context.Context, trip *trips.Trip, req *trips.InitialPartyRequest) (uint, error)
	CreateParty(ctx context.Context, serviceID, tripID uint, req *trips.InitialPartyRequest) (*PartyCreated, error)

	GetParty(ctx context.Context, serviceID, tripID, partyID uint) (*TripParty, error)
	ListParties(ctx context.Context, serviceID, tripID uint) ([]TripParty, error)
	UpdateParty(ctx context.Context, serviceID, tripID, partyID uint, req *UpdatePartyRequest) (*TripParty, error)
	MarkPartyPaid(ctx context.Context, partyID uint) error
	MarkWaiverSigned(ctx context.Context, partyID uint) error

	UpsertGuest(ctx context.Context, guest trips.InitialGuest) (*GuestProfile, error)
	ListGuests(ctx context.Context, query string) ([]GuestProfile, error)
	GetGuest(ctx context.Context, guestID uint) (*GuestDetail, error)

	IssueGuestLink(ctx context.Context, serviceID uint, req *GuestLinkRequest) (*GuestLink, error)
	ResolvePortalSession(ctx context.Context, rawToken string) (*PortalSession, error)
	UpdateGuestViaToken(ctx context.Context, rawToken string, req *GuestSelfUpdateRequest) (*GuestProfile, error)
}

type service struct {
	repo      Repository
	payments  payments.Service
	tripsRepo TripSource
	services  ServiceDirectory
	notifier  Notifier
	config    *config.Config
	logger    *logger.Logger
}

func NewService(repo Repository, paymentsService payments.Service, tripSource TripSource, services ServiceDirectory, notifier Notifier, cfg *config.Config) Service {
	return &service{
		repo:      repo,
		payments:  paymentsService,
		tripsRepo: tripSource,
		services:  services,
		notifier:  notifier,
		config:    cfg,
		logger:    logger.GetDefault(),
	}
}

func (s *service) CreateInitialParty(ctx context.Context, trip *trips.Trip, req *trips.InitialPartyRequest) (uint, error) {
	created, err := s.bookParty(ctx, trip, req)
	if err != nil {
		return 0, err
	}
	return created.Party.ID, nil
}

func (s *service) CreateParty(ctx context.Context, serviceID, tripID uint, req *trips.InitialPartyRequest) (*PartyCreated, error) {
	trip, err := s.getOwnedTrip(ctx, serviceID, tripID)
	if err != nil {
		return nil, err
	}
	return s.bookParty(ctx, trip, req)
}

func (s *service) bookParty(ctx context.Context, trip *trips.Trip, req *trips.InitialPartyRequest) (*PartyCreated, error) {
	guests := make([]*GuestProfile, 0, len(req.Guests))
	primaryIndex := 0
	for i, input := range req.Guests {
		guest, err := s.UpsertGuest(ctx, input)
		if err != nil {
			return nil, err
		}
		guests = append(guests, guest)
		if input.IsPrimary {
			primaryIndex = i
		}
	}
	primary := guests[primaryIndex]

	partySize := req.PartySize
	if partySize < len(guests) {
		partySize = len(guests)
	}
	if partySize < 1 {
		partySize = 1
	}

	party := &TripParty{
		TripID:         trip.ID,
		PrimaryGuestID: primary.ID,
		PartySize:      partySize,
		PaymentStatus:  PaymentPending,
		InfoStatus:     InfoPending,
		WaiverStatus:   WaiverPending,
	}
	if err := s.repo.CreateParty(ctx, party); err != nil {
		return nil, err
	}

	for i, guest := range guests {
		link := &PartyGuest{
			PartyID:   party.ID,
			GuestID:   guest.ID,
			IsPrimary: i == primaryIndex,
		}
		if err := s.repo.AddPartyGuest(ctx, link); err != nil {
			return nil, err
		}
	}

	amountCents := partyAmountCents(trip, partySize)
	checkout, err := s.createCheckout(ctx, trip, party, amountCents)
	if err != nil {
		return nil, err
	}

	portalURL, err := s.issuePortalLink(ctx, primary.ID, party.ID, trip.End.Add(defaultLinkTTL))
	if err != nil {
		return nil, err
	}

	s.notifyConfirmation(ctx, trip, party, primary, guests, checkout.URL, portalURL)
	s.logger.LogPartyBooked(ctx,
		strconv.FormatUint(uint64(party.ID), 10),
		strconv.FormatUint(uint64(trip.ID), 10),
		partySize)

	full, err := s.repo.GetParty(ctx, party.ID)
	if err != nil {
		full = party
	}
	return &PartyCreated{Party: full, PaymentURL: checkout.URL, PortalURL: portalURL}, nil
}

func (s *service) createCheckout(ctx context.Context, trip *trips.Trip, party *TripParty, amountCents int) (*payments.CheckoutSession, error) {
	input := payments.CheckoutInput{
		PartyID:        party.ID,
		TripID:         trip.ID,
		GuideServiceID: trip.GuideServiceID,
		TripTitle:      trip.Title,
		AmountCents:    amountCents,
	}
	if snapshot := trip.Snapshot(); snapshot != nil && snapshot.Currency != "" {
		input.Currency = strings.ToLower(snapshot.Currency)
	}
	if account, err := s.services.GetStripeAccount(ctx, trip.GuideServiceID); err == nil && account.Ready() {
		input.StripeAccountID = account.StripeAccountID
	}
	return s.payments.CreateCheckoutSession(ctx, input)
}

func (s *service) issuePortalLink(ctx context.Context, guestID, partyID uint, expiresAt time.Time) (string, error) {
	raw, err := newRawToken()
	if err != nil {
		return "", err
	}
	token := &GuestAccessToken{
		GuestProfileID: guestID,
		PartyID:        &partyID,
		TokenHash:      hashToken(raw),
		Purpose:        TokenPurposeLink,
		SingleUse:      false,
		ExpiresAt:      expiresAt,
	}
	if err := s.repo.CreateToken(ctx, token); err != nil {
		return "", err
	}
	return s.portalURL(raw), nil
}

func (s *service) portalURL(rawToken string) string {
	return fmt.Sprintf("%s/guest?token=%s", s.config.FrontendURL, rawToken)
}

func (s *service) notifyConfirmation(ctx context.Context, trip *trips.Trip, party *TripParty, primary *GuestProfile, guests []*GuestProfile, paymentURL, portalURL string) {
	if s.notifier == nil {
		return
	}

	serviceName := ""
	if svc, err := s.services.GetByID(ctx, trip.GuideServiceID); err == nil {
		serviceName = svc.Name
	}

	recipients := make([]string, 0, len(guests))
	for _, guest := range guests {
		if guest.Email != "" {
			recipients = append(recipients, guest.Email)
		}
	}
	if len(recipients) == 0 {
		return
	}

	email := ConfirmationEmail{
		Recipients:  recipients,
		GuestName:   primary.DisplayName(),
		TripTitle:   trip.Title,
		ServiceName: serviceName,
		TripStart:   trip.Start,
		TripEnd:     trip.End,
		PaymentURL:  paymentURL,
		PortalURL:   portalURL,
	}
	if err := s.notifier.BookingConfirmed(ctx, email); err != nil {
		s.logger.Warn(fmt.Sprintf("booking confirmation for party %d not dispatched: %v", party.ID, err))
	}
}

func (s *service) GetParty(ctx context.Context, serviceID, tripID, partyID uint) (*TripParty, error) {
	_, party, err := s.getOwnedParty(ctx, serviceID, tripID, partyID)
	return party, err
}

func (s *service) ListParties(ctx context.Context, serviceID, tripID uint) ([]TripParty, error) {
	if _, err := s.getOwnedTrip(ctx, serviceID, tripID); err != nil {
		return nil, err
	}
	return s.repo.ListPartiesForTrip(ctx, tripID)
}

// UpdateParty resizes a party. The new size must cover every confirmed
// guest; while payment is pending and the latest checkout is still open the
// charged amount follows the size.
func (s *service) UpdateParty(ctx context.Context, serviceID, tripID, partyID uint, req *UpdatePartyRequest) (*TripParty, error) {
	trip, party, err := s.getOwnedParty(ctx, serviceID, tripID, partyID)
	if err != nil {
		return nil, err
	}

	if req.PartySize != nil {
		confirmed, err := s.repo.CountPartyGuests(ctx, partyID)
		if err != nil {
			return nil, err
		}
		minSize := int(confirmed)
		if minSize < 1 {
			minSize = 1
		}
		if *req.PartySize < minSize {
			return nil, fmt.Errorf("%w: at least %d", ErrPartySizeTooSmall, minSize)
		}

		party.PartySize = *req.PartySize
		if err := s.repo.UpdateParty(ctx, party); err != nil {
			return nil, err
		}

		if party.PaymentStatus == PaymentPending {
			amountCents := partyAmountCents(trip, party.PartySize)
			if _, err := s.payments.UpdateOpenAmount(ctx, partyID, amountCents); err != nil {
				return nil, err
			}
		}
	}

	return s.repo.GetParty(ctx, partyID)
}

func (s *service) MarkPartyPaid(ctx context.Context, partyID uint) error {
	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPartyNotFound
		}
		return err
	}
	party.PaymentStatus = PaymentPaid
	if err := s.repo.UpdateParty(ctx, party); err != nil {
		return err
	}
	s.notifyPaymentReceived(ctx, party)
	return nil
}

// notifyPaymentReceived sends the receipt email. Best effort; the webhook
// already recorded the payment.
func (s *service) notifyPaymentReceived(ctx context.Context, party *TripParty) {
	if s.notifier == nil || party.PrimaryGuest == nil || party.PrimaryGuest.Email == "" {
		return
	}

	trip, err := s.tripsRepo.GetByID(ctx, party.TripID)
	if err != nil {
		return
	}

	serviceName := ""
	if svc, err := s.services.GetByID(ctx, trip.GuideServiceID); err == nil {
		serviceName = svc.Name
	}

	err = s.notifier.PaymentReceived(ctx,
		[]string{party.PrimaryGuest.Email},
		party.PrimaryGuest.DisplayName(),
		trip.Title,
		serviceName,
		partyAmountCents(trip, party.PartySize))
	if err != nil {
		s.logger.Warn(fmt.Sprintf("payment receipt for party %d not dispatched: %v", party.ID, err))
	}
}

func (s *service) MarkWaiverSigned(ctx context.Context, partyID uint) error {
	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPartyNotFound
		}
		return err
	}
	party.WaiverStatus = WaiverSigned
	return s.repo.UpdateParty(ctx, party)
}

// UpsertGuest creates or refreshes a guest profile keyed by normalized
// email. Blank incoming fields never erase existing data.
func (s *service) UpsertGuest(ctx context.Context, input trips.InitialGuest) (*GuestProfile, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrGuestEmailMissing
	}

	guest, err := s.repo.GetGuestByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		guest = &GuestProfile{Email: email}
		applyGuestInput(guest, input)
		if err := s.repo.CreateGuest(ctx, guest); err != nil {
			return nil, err
		}
		return guest, nil
	}

	applyGuestInput(guest, input)
	if err := s.repo.UpdateGuest(ctx, guest); err != nil {
		return nil, err
	}
	return guest, nil
}

func applyGuestInput(guest *GuestProfile, input trips.InitialGuest) {
	if name := strings.TrimSpace(input.FirstName); name != "" {
		guest.FirstName = name
	}
	if name := strings.TrimSpace(input.LastName); name != "" {
		guest.LastName = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		guest.Phone = phone
	}
}

func (s *service) ListGuests(ctx context.Context, query string) ([]GuestProfile, error) {
	return s.repo.SearchGuests(ctx, strings.TrimSpace(query))
}

func (s *service) GetGuest(ctx context.Context, guestID uint) (*GuestDetail, error) {
	guest, err := s.repo.GetGuestByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	parties, err := s.repo.ListPartiesForGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return &GuestDetail{Guest: guest, Parties: parties}, nil
}

// IssueGuestLink mints a fresh multi-use portal link expiring after the
// party's trip ends.
func (s *service) IssueGuestLink(ctx context.Context, serviceID uint, req *GuestLinkRequest) (*GuestLink, error) {
	guest, err := s.repo.GetGuestByID(ctx, req.GuestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	party, err := s.repo.GetParty(ctx, req.PartyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	trip, err := s.getOwnedTrip(ctx, serviceID, party.TripID)
	if err != nil {
		return nil, err
	}

	ttl := defaultLinkTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	raw, err := newRawToken()
	if err != nil {
		return nil, err
	}
	token := &GuestAccessToken{
		GuestProfileID: guest.ID,
		PartyID:        &party.ID,
		TokenHash:      hashToken(raw),
		Purpose:        TokenPurposeLink,
		SingleUse:      false,
		ExpiresAt:      trip.End.Add(ttl),
	}
	if err := s.repo.CreateToken(ctx, token); err != nil {
		return nil, err
	}

	return &GuestLink{Token: token, RawToken: raw, PortalURL: s.portalURL(raw)}, nil
}

func (s *service) validateToken(ctx context.Context, rawToken string) (*GuestAccessToken, error) {
	if rawToken == "" {
		return nil, ErrTokenInvalid
	}
	token, err := s.repo.GetTokenByHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if token.Expired(time.Now()) || token.Spent() {
		return nil, ErrTokenInvalid
	}
	return token, nil
}

func (s *service) ResolvePortalSession(ctx context.Context, rawToken string) (*PortalSession, error) {
	token, err := s.validateToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	session := &PortalSession{Guest: token.GuestProfile}
	if token.PartyID != nil {
		party, err := s.repo.GetParty(ctx, *token.PartyID)
		if err == nil {
			session.Party = party
			if trip, err := s.tripsRepo.GetByID(ctx, party.TripID); err == nil {
				session.Trip = trip
			}
		}
	}
	return session, nil
}

// UpdateGuestViaToken is the portal's profile edit. A successful edit
// stamps the party's guest activity and completes its info status.
func (s *service) UpdateGuestViaToken(ctx context.Context, rawToken string, req *GuestSelfUpdateRequest) (*GuestProfile, error) {
	token, err := s.validateToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	guest, err := s.repo.GetGuestByID(ctx, token.GuestProfileID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		guest.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		guest.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		guest.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			guest.DateOfBirth = nil
		} else if dob, err := time.Parse("2006-01-02", *req.DateOfBirth); err == nil {
			guest.DateOfBirth = &dob
		}
	}
	if req.EmergencyContactName != nil {
		guest.EmergencyContactName = strings.TrimSpace(*req.EmergencyContactName)
	}
	if req.EmergencyContactPhone != nil {
		guest.EmergencyContactPhone = strings.TrimSpace(*req.EmergencyContactPhone)
	}
	if req.MedicalNotes != nil {
		guest.MedicalNotes = *req.MedicalNotes
	}
	if req.DietaryNotes != nil {
		guest.DietaryNotes = *req.DietaryNotes
	}

	if err := s.repo.UpdateGuest(ctx, guest); err != nil {
		return nil, err
	}

	if token.PartyID != nil {
		if party, err := s.repo.GetParty(ctx, *token.PartyID); err == nil {
			now := time.Now()
			party.LastGuestActivityAt = &now
			party.InfoStatus = InfoComplete
			if err := s.repo.UpdateParty(ctx, party); err != nil {
				s.logger.Warn(fmt.Sprintf("party %d activity stamp failed: %v", party.ID, err))
			}
		}
	}

	if token.SingleUse && token.UsedAt == nil {
		now := time.Now()
		token.UsedAt = &now
		if err := s.repo.UpdateToken(ctx, token); err != nil {
			s.logger.Warn(fmt.Sprintf("token %d mark-used failed: %v", token.ID, err))
		}
	}

	return guest, nil
}

func (s *service) getOwnedTrip(ctx context.Context, serviceID, tripID uint) (*trips.Trip, error) {
	trip, err := s.tripsRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, trips.ErrTripNotFound
		}
		return nil, err
	}
	if trip.GuideServiceID != serviceID {
		return nil, trips.ErrTripNotFound
	}
	return trip, nil
}

func (s *service) getOwnedParty(ctx context.Context, serviceID, tripID, partyID uint) (*trips.Trip, *TripParty, error) {
	trip, err := s.getOwnedTrip(ctx, serviceID, tripID)
	if err != nil {
		return nil, nil, err
	}
	party, err := s.repo.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPartyNotFound
		}
		return nil, nil, err
	}
	if party.TripID != tripID {
		return nil, nil, ErrPartyNotFound
	}
	return trip, party, nil
}

// partyAmountCents resolves the charge for a party from the trip's pricing
// snapshot, falling back to the trip's flat price.
func partyAmountCents(trip *trips.Trip, partySize int) int {
	perGuest := trip.PerGuestCents(partySize)
	if perGuest == nil {
		return 0
	}
	return *perGuest * partySize
}
