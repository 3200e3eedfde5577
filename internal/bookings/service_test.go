package bookings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"anchorpoint/internal/orgs"
	"anchorpoint/internal/payments"
	"anchorpoint/internal/shared/config"
	"anchorpoint/internal/trips"
)

type fakeRepo struct {
	guests      map[uint]*GuestProfile
	parties     map[uint]*TripParty
	partyGuests map[uint][]PartyGuest
	tokens      map[string]*GuestAccessToken
	nextID      uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		guests:      make(map[uint]*GuestProfile),
		parties:     make(map[uint]*TripParty),
		partyGuests: make(map[uint][]PartyGuest),
		tokens:      make(map[string]*GuestAccessToken),
		nextID:      1,
	}
}

func (r *fakeRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeRepo) GetGuestByID(ctx context.Context, id uint) (*GuestProfile, error) {
	guest, ok := r.guests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *guest
	return &copied, nil
}

func (r *fakeRepo) GetGuestByEmail(ctx context.Context, email string) (*GuestProfile, error) {
	for _, guest := range r.guests {
		if guest.Email == email {
			copied := *guest
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CreateGuest(ctx context.Context, guest *GuestProfile) error {
	guest.ID = r.id()
	r.guests[guest.ID] = guest
	return nil
}

func (r *fakeRepo) UpdateGuest(ctx context.Context, guest *GuestProfile) error {
	r.guests[guest.ID] = guest
	return nil
}

func (r *fakeRepo) SearchGuests(ctx context.Context, query string) ([]GuestProfile, error) {
	var out []GuestProfile
	for id := uint(1); id < r.nextID; id++ {
		guest, ok := r.guests[id]
		if !ok {
			continue
		}
		if query == "" || strings.Contains(guest.Email, query) {
			out = append(out, *guest)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateParty(ctx context.Context, party *TripParty) error {
	party.ID = r.id()
	r.parties[party.ID] = party
	return nil
}

func (r *fakeRepo) GetParty(ctx context.Context, id uint) (*TripParty, error) {
	party, ok := r.parties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *party
	copied.PartyGuests = append([]PartyGuest(nil), r.partyGuests[id]...)
	if guest, ok := r.guests[party.PrimaryGuestID]; ok {
		g := *guest
		copied.PrimaryGuest = &g
	}
	return &copied, nil
}

func (r *fakeRepo) ListPartiesForTrip(ctx context.Context, tripID uint) ([]TripParty, error) {
	var out []TripParty
	for id := uint(1); id < r.nextID; id++ {
		party, ok := r.parties[id]
		if ok && party.TripID == tripID {
			out = append(out, *party)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListPartiesForGuest(ctx context.Context, guestID uint) ([]TripParty, error) {
	var out []TripParty
	for id := uint(1); id < r.nextID; id++ {
		party, ok := r.parties[id]
		if !ok {
			continue
		}
		for _, link := range r.partyGuests[id] {
			if link.GuestID == guestID {
				out = append(out, *party)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateParty(ctx context.Context, party *TripParty) error {
	stored := *party
	stored.PartyGuests = nil
	stored.PrimaryGuest = nil
	r.parties[party.ID] = &stored
	return nil
}

func (r *fakeRepo) AddPartyGuest(ctx context.Context, link *PartyGuest) error {
	for _, existing := range r.partyGuests[link.PartyID] {
		if existing.GuestID == link.GuestID {
			*link = existing
			return nil
		}
	}
	link.ID = r.id()
	r.partyGuests[link.PartyID] = append(r.partyGuests[link.PartyID], *link)
	return nil
}

func (r *fakeRepo) CountPartyGuests(ctx context.Context, partyID uint) (int64, error) {
	return int64(len(r.partyGuests[partyID])), nil
}

func (r *fakeRepo) CreateToken(ctx context.Context, token *GuestAccessToken) error {
	token.ID = r.id()
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *fakeRepo) GetTokenByHash(ctx context.Context, hash string) (*GuestAccessToken, error) {
	token, ok := r.tokens[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *token
	if guest, ok := r.guests[token.GuestProfileID]; ok {
		g := *guest
		copied.GuestProfile = &g
	}
	return &copied, nil
}

func (r *fakeRepo) UpdateToken(ctx context.Context, token *GuestAccessToken) error {
	stored := *token
	stored.GuestProfile = nil
	stored.Party = nil
	r.tokens[token.TokenHash] = &stored
	return nil
}

type fakePayments struct {
	created     []payments.CheckoutInput
	openUpdates []int
}

func (p *fakePayments) CreateCheckoutSession(ctx context.Context, input payments.CheckoutInput) (*payments.CheckoutSession, error) {
	p.created = append(p.created, input)
	return &payments.CheckoutSession{
		ID:              "cs_test_fixture",
		PaymentIntentID: "pi_test_fixture",
		Status:          "unpaid",
		URL:             "http://frontend/payments/preview?session=cs_test_fixture",
	}, nil
}

func (p *fakePayments) ListForParty(ctx context.Context, partyID uint) ([]payments.Payment, error) {
	return nil, nil
}

func (p *fakePayments) LatestForParty(ctx context.Context, partyID uint) (*payments.Payment, error) {
	return nil, payments.ErrPaymentNotFound
}

func (p *fakePayments) UpdateOpenAmount(ctx context.Context, partyID uint, amountCents int) (bool, error) {
	p.openUpdates = append(p.openUpdates, amountCents)
	return true, nil
}

func (p *fakePayments) PreviewURL(ctx context.Context, partyID uint) (string, error) {
	return "", nil
}

func (p *fakePayments) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return nil
}

func (p *fakePayments) SetPartyMarker(marker payments.PartyMarker) {}

type fakeTripSource struct {
	trips map[uint]*trips.Trip
}

func (s *fakeTripSource) GetByID(ctx context.Context, id uint) (*trips.Trip, error) {
	trip, ok := s.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *trip
	return &copied, nil
}

type fakeDirectory struct {
	account *orgs.ServiceStripeAccount
}

func (d *fakeDirectory) GetByID(ctx context.Context, id uint) (*orgs.GuideService, error) {
	return &orgs.GuideService{ID: id, Name: "River Co"}, nil
}

func (d *fakeDirectory) GetStripeAccount(ctx context.Context, serviceID uint) (*orgs.ServiceStripeAccount, error) {
	if d.account == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return d.account, nil
}

type fakeNotifier struct {
	sent     []ConfirmationEmail
	receipts []int
}

func (n *fakeNotifier) BookingConfirmed(ctx context.Context, email ConfirmationEmail) error {
	n.sent = append(n.sent, email)
	return nil
}

func (n *fakeNotifier) PaymentReceived(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string, amountCents int) error {
	n.receipts = append(n.receipts, amountCents)
	return nil
}

type bookingFixture struct {
	svc       Service
	repo      *fakeRepo
	payments  *fakePayments
	tripSrc   *fakeTripSource
	directory *fakeDirectory
	notifier  *fakeNotifier
}

func intPtr(v int) *int { return &v }

func fixtureTrip() *trips.Trip {
	return &trips.Trip{
		ID:             1,
		GuideServiceID: 1,
		Title:          "Canyon Overnight",
		Start:          time.Date(2024, 7, 10, 8, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 7, 11, 16, 0, 0, 0, time.UTC),
		PriceCents:     intPtr(20000),
	}
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		repo:      newFakeRepo(),
		payments:  &fakePayments{},
		tripSrc:   &fakeTripSource{trips: map[uint]*trips.Trip{1: fixtureTrip()}},
		directory: &fakeDirectory{},
		notifier:  &fakeNotifier{},
	}
	cfg := &config.Config{FrontendURL: "http://frontend"}
	f.svc = NewService(f.repo, f.payments, f.tripSrc, f.directory, f.notifier, cfg)
	return f
}

func initialParty() *trips.InitialPartyRequest {
	return &trips.InitialPartyRequest{
		PartySize: 4,
		Guests: []trips.InitialGuest{
			{Email: "Lead@Example.com", FirstName: "Jamie", LastName: "Ford", IsPrimary: true},
			{Email: "second@example.com", FirstName: "Sam"},
		},
	}
}

func TestCreateInitialParty_Flow(t *testing.T) {
	f := newBookingFixture()

	partyID, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), initialParty())
	if err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}

	party, err := f.repo.GetParty(context.Background(), partyID)
	if err != nil {
		t.Fatalf("GetParty: %v", err)
	}
	if party.PartySize != 4 {
		t.Errorf("expected party size 4, got %d", party.PartySize)
	}
	if party.PaymentStatus != PaymentPending || party.InfoStatus != InfoPending || party.WaiverStatus != WaiverPending {
		t.Errorf("expected all pending statuses, got %s/%s/%s", party.PaymentStatus, party.InfoStatus, party.WaiverStatus)
	}
	if len(party.PartyGuests) != 2 {
		t.Fatalf("expected 2 guest links, got %d", len(party.PartyGuests))
	}
	if party.PrimaryGuest == nil || party.PrimaryGuest.Email != "lead@example.com" {
		t.Errorf("primary guest email not normalized: %+v", party.PrimaryGuest)
	}

	if len(f.payments.created) != 1 {
		t.Fatalf("expected one checkout session, got %d", len(f.payments.created))
	}
	// 4 guests at the flat 20000 fallback rate
	if got := f.payments.created[0].AmountCents; got != 80000 {
		t.Errorf("expected checkout for 80000 cents, got %d", got)
	}

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one confirmation email, got %d", len(f.notifier.sent))
	}
	email := f.notifier.sent[0]
	if len(email.Recipients) != 2 {
		t.Errorf("expected both guests as recipients, got %v", email.Recipients)
	}
	if email.GuestName != "Jamie Ford" {
		t.Errorf("expected primary guest name, got %q", email.GuestName)
	}
	if !strings.HasPrefix(email.PortalURL, "http://frontend/guest?token=") {
		t.Errorf("unexpected portal url %q", email.PortalURL)
	}

	// One multi-use token, expiring a day past the trip
	if len(f.repo.tokens) != 1 {
		t.Fatalf("expected one access token, got %d", len(f.repo.tokens))
	}
	for _, token := range f.repo.tokens {
		if token.SingleUse {
			t.Error("portal token should be multi-use")
		}
		wantExpiry := fixtureTrip().End.Add(24 * time.Hour)
		if !token.ExpiresAt.Equal(wantExpiry) {
			t.Errorf("expected expiry %v, got %v", wantExpiry, token.ExpiresAt)
		}
	}
}

func TestCreateInitialParty_SizeCoversGuests(t *testing.T) {
	f := newBookingFixture()

	req := initialParty()
	req.PartySize = 1 // fewer than the 2 named guests

	partyID, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), req)
	if err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}
	party, _ := f.repo.GetParty(context.Background(), partyID)
	if party.PartySize != 2 {
		t.Errorf("expected size raised to guest count, got %d", party.PartySize)
	}
}

func TestCreateInitialParty_ConnectedAccountRouting(t *testing.T) {
	f := newBookingFixture()
	f.directory.account = &orgs.ServiceStripeAccount{
		StripeAccountID:  "acct_live_1",
		ChargesEnabled:   true,
		DetailsSubmitted: true,
	}

	if _, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), initialParty()); err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}
	if got := f.payments.created[0].StripeAccountID; got != "acct_live_1" {
		t.Errorf("expected charge routed to connected account, got %q", got)
	}
}

func TestUpsertGuest_MergeKeepsExistingFields(t *testing.T) {
	f := newBookingFixture()

	first, err := f.svc.UpsertGuest(context.Background(), trips.InitialGuest{
		Email:     "  Pat@Example.com ",
		FirstName: "Pat",
		Phone:     "555-0100",
	})
	if err != nil {
		t.Fatalf("UpsertGuest: %v", err)
	}
	if first.Email != "pat@example.com" {
		t.Errorf("email not normalized: %q", first.Email)
	}

	second, err := f.svc.UpsertGuest(context.Background(), trips.InitialGuest{
		Email:    "pat@example.com",
		LastName: "Morgan",
	})
	if err != nil {
		t.Fatalf("UpsertGuest (merge): %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same profile, got ids %d and %d", first.ID, second.ID)
	}
	if second.FirstName != "Pat" || second.Phone != "555-0100" {
		t.Errorf("blank input erased existing fields: %+v", second)
	}
	if second.LastName != "Morgan" {
		t.Errorf("new field not applied: %+v", second)
	}
}

func TestUpsertGuest_RequiresEmail(t *testing.T) {
	f := newBookingFixture()
	if _, err := f.svc.UpsertGuest(context.Background(), trips.InitialGuest{Email: "   "}); !errors.Is(err, ErrGuestEmailMissing) {
		t.Errorf("expected ErrGuestEmailMissing, got %v", err)
	}
}

func TestUpdateParty_SizeMustCoverConfirmedGuests(t *testing.T) {
	f := newBookingFixture()

	partyID, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), initialParty())
	if err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}

	_, err = f.svc.UpdateParty(context.Background(), 1, 1, partyID, &UpdatePartyRequest{PartySize: intPtr(1)})
	if !errors.Is(err, ErrPartySizeTooSmall) {
		t.Errorf("expected ErrPartySizeTooSmall, got %v", err)
	}
}

func TestUpdateParty_RecalculatesOpenPayment(t *testing.T) {
	f := newBookingFixture()

	partyID, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), initialParty())
	if err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}

	party, err := f.svc.UpdateParty(context.Background(), 1, 1, partyID, &UpdatePartyRequest{PartySize: intPtr(6)})
	if err != nil {
		t.Fatalf("UpdateParty: %v", err)
	}
	if party.PartySize != 6 {
		t.Errorf("expected size 6, got %d", party.PartySize)
	}
	if len(f.payments.openUpdates) != 1 || f.payments.openUpdates[0] != 120000 {
		t.Errorf("expected open payment recalculated to 120000, got %v", f.payments.openUpdates)
	}
}

func TestUpdateParty_NoRecalcOncePaid(t *testing.T) {
	f := newBookingFixture()

	partyID, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), initialParty())
	if err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}
	if err := f.svc.MarkPartyPaid(context.Background(), partyID); err != nil {
		t.Fatalf("MarkPartyPaid: %v", err)
	}

	if _, err := f.svc.UpdateParty(context.Background(), 1, 1, partyID, &UpdatePartyRequest{PartySize: intPtr(6)}); err != nil {
		t.Fatalf("UpdateParty: %v", err)
	}
	if len(f.payments.openUpdates) != 0 {
		t.Errorf("paid party should not touch payments, got %v", f.payments.openUpdates)
	}

	party, _ := f.repo.GetParty(context.Background(), partyID)
	if party.PaymentStatus != PaymentPaid {
		t.Errorf("expected PAID, got %s", party.PaymentStatus)
	}
	if len(f.notifier.receipts) != 1 || f.notifier.receipts[0] != 80000 {
		t.Errorf("expected one 80000 receipt, got %v", f.notifier.receipts)
	}
}

func TestPortalTokenLifecycle(t *testing.T) {
	f := newBookingFixture()

	partyID, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), initialParty())
	if err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}

	link, err := f.svc.IssueGuestLink(context.Background(), 1, &GuestLinkRequest{GuestID: 1, PartyID: partyID})
	if err != nil {
		t.Fatalf("IssueGuestLink: %v", err)
	}
	if link.RawToken == "" {
		t.Fatal("expected raw token in link response")
	}
	if link.Token.TokenHash == link.RawToken {
		t.Error("raw token must not be stored verbatim")
	}

	session, err := f.svc.ResolvePortalSession(context.Background(), link.RawToken)
	if err != nil {
		t.Fatalf("ResolvePortalSession: %v", err)
	}
	if session.Guest == nil || session.Party == nil || session.Trip == nil {
		t.Errorf("incomplete portal session: %+v", session)
	}

	if _, err := f.svc.ResolvePortalSession(context.Background(), "bogus"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for unknown token, got %v", err)
	}

	// Expired tokens stop working
	stored := f.repo.tokens[link.Token.TokenHash]
	stored.ExpiresAt = time.Now().Add(-time.Hour)
	if _, err := f.svc.ResolvePortalSession(context.Background(), link.RawToken); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestUpdateGuestViaToken(t *testing.T) {
	f := newBookingFixture()

	partyID, err := f.svc.CreateInitialParty(context.Background(), fixtureTrip(), initialParty())
	if err != nil {
		t.Fatalf("CreateInitialParty: %v", err)
	}
	link, err := f.svc.IssueGuestLink(context.Background(), 1, &GuestLinkRequest{GuestID: 1, PartyID: partyID})
	if err != nil {
		t.Fatalf("IssueGuestLink: %v", err)
	}

	phone := "555-0199"
	medical := "No known allergies"
	guest, err := f.svc.UpdateGuestViaToken(context.Background(), link.RawToken, &GuestSelfUpdateRequest{
		Phone:        &phone,
		MedicalNotes: &medical,
	})
	if err != nil {
		t.Fatalf("UpdateGuestViaToken: %v", err)
	}
	if guest.Phone != phone || guest.MedicalNotes != medical {
		t.Errorf("profile not updated: %+v", guest)
	}

	party, _ := f.repo.GetParty(context.Background(), partyID)
	if party.InfoStatus != InfoComplete {
		t.Errorf("expected info status COMPLETE, got %s", party.InfoStatus)
	}
	if party.LastGuestActivityAt == nil {
		t.Error("expected guest activity stamped")
	}

	// Multi-use link keeps working after the edit
	if _, err := f.svc.ResolvePortalSession(context.Background(), link.RawToken); err != nil {
		t.Errorf("multi-use token invalidated: %v", err)
	}
}
