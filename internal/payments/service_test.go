package payments

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"

	"anchorpoint/internal/shared/config"
)

type fakeRepo struct {
	payments []*Payment
	nextID   uint
}

func (r *fakeRepo) Create(ctx context.Context, payment *Payment) error {
	r.nextID++
	payment.ID = r.nextID
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakeRepo) GetByCheckoutSession(ctx context.Context, sessionID string) (*Payment, error) {
	for _, payment := range r.payments {
		if payment.StripeCheckoutSession == sessionID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) LatestForParty(ctx context.Context, partyID uint) (*Payment, error) {
	for i := len(r.payments) - 1; i >= 0; i-- {
		if r.payments[i].PartyID == partyID {
			copied := *r.payments[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) ListForParty(ctx context.Context, partyID uint) ([]Payment, error) {
	var out []Payment
	for _, payment := range r.payments {
		if payment.PartyID == partyID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, payment *Payment) error {
	for i, existing := range r.payments {
		if existing.ID == payment.ID {
			copied := *payment
			r.payments[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeMarker struct {
	paid []uint
}

func (m *fakeMarker) MarkPartyPaid(ctx context.Context, partyID uint) error {
	m.paid = append(m.paid, partyID)
	return nil
}

func stubConfig() *config.Config {
	return &config.Config{
		FrontendURL: "http://frontend",
		Stripe:      config.StripeConfig{UseStub: true},
	}
}

func TestCreateCheckoutSession_Stub(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, stubConfig())

	checkout, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
		PartyID:     3,
		TripID:      1,
		TripTitle:   "Canyon Overnight",
		AmountCents: 40000,
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	if !strings.HasPrefix(checkout.ID, "cs_test_") {
		t.Errorf("stub session id %q", checkout.ID)
	}
	if !strings.HasPrefix(checkout.PaymentIntentID, "pi_test_") {
		t.Errorf("stub payment intent %q", checkout.PaymentIntentID)
	}
	if checkout.Status != "unpaid" {
		t.Errorf("expected unpaid, got %q", checkout.Status)
	}
	if !strings.Contains(checkout.URL, "party=3") || !strings.Contains(checkout.URL, "amount=40000") {
		t.Errorf("preview url missing details: %q", checkout.URL)
	}

	if len(repo.payments) != 1 {
		t.Fatalf("expected payment record, got %d", len(repo.payments))
	}
	payment := repo.payments[0]
	if payment.PartyID != 3 || payment.AmountCents != 40000 || payment.Currency != "usd" {
		t.Errorf("unexpected payment record: %+v", payment)
	}
}

func TestUpdateOpenAmount(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, stubConfig())

	if _, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{PartyID: 3, AmountCents: 40000}); err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	updated, err := svc.UpdateOpenAmount(context.Background(), 3, 60000)
	if err != nil {
		t.Fatalf("UpdateOpenAmount: %v", err)
	}
	if !updated || repo.payments[0].AmountCents != 60000 {
		t.Errorf("expected open payment updated, got %+v", repo.payments[0])
	}

	// A settled payment keeps its amount
	repo.payments[0].Status = "paid"
	updated, err = svc.UpdateOpenAmount(context.Background(), 3, 99999)
	if err != nil {
		t.Fatalf("UpdateOpenAmount (paid): %v", err)
	}
	if updated || repo.payments[0].AmountCents != 60000 {
		t.Errorf("paid payment should be untouched, got %+v", repo.payments[0])
	}

	// No payment at all is not an error
	updated, err = svc.UpdateOpenAmount(context.Background(), 42, 100)
	if err != nil || updated {
		t.Errorf("expected no-op for missing payment, got %v %v", updated, err)
	}
}

func TestHandleWebhook_CheckoutCompleted(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, stubConfig())
	marker := &fakeMarker{}
	svc.SetPartyMarker(marker)

	checkout, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{PartyID: 7, AmountCents: 12000})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	payload := []byte(fmt.Sprintf(
		`{"type":"checkout.session.completed","data":{"object":{"id":%q}}}`,
		checkout.ID,
	))
	if err := svc.HandleWebhook(context.Background(), payload, ""); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	if repo.payments[0].Status != "paid" {
		t.Errorf("expected paid, got %q", repo.payments[0].Status)
	}
	if len(marker.paid) != 1 || marker.paid[0] != 7 {
		t.Errorf("expected party 7 marked paid, got %v", marker.paid)
	}
}

func TestHandleWebhook_UnknownSessionIgnored(t *testing.T) {
	svc := NewService(&fakeRepo{}, stubConfig())

	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_test_elsewhere"}}}`)
	if err := svc.HandleWebhook(context.Background(), payload, ""); err != nil {
		t.Errorf("unknown session should be ignored, got %v", err)
	}
}

func TestHandleWebhook_BadPayload(t *testing.T) {
	svc := NewService(&fakeRepo{}, stubConfig())
	if err := svc.HandleWebhook(context.Background(), []byte("not json"), ""); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestPreviewURL_RecreatesStubLink(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, stubConfig())

	checkout, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{PartyID: 9, AmountCents: 5000})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	url, err := svc.PreviewURL(context.Background(), 9)
	if err != nil {
		t.Fatalf("PreviewURL: %v", err)
	}
	if url != checkout.URL {
		t.Errorf("expected %q, got %q", checkout.URL, url)
	}
}
