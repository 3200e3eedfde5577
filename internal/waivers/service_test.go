package waivers

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"anchorpoint/internal/bookings"
	"anchorpoint/internal/trips"
)

type fakeRepo struct {
	waivers map[uint]*Waiver
	nextID  uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{waivers: make(map[uint]*Waiver)}
}

func (r *fakeRepo) Create(ctx context.Context, waiver *Waiver) error {
	r.nextID++
	waiver.ID = r.nextID
	copied := *waiver
	r.waivers[waiver.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByParty(ctx context.Context, partyID uint) (*Waiver, error) {
	for _, w := range r.waivers {
		if w.PartyID == partyID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetByExternalID(ctx context.Context, externalID string) (*Waiver, error) {
	for _, w := range r.waivers {
		if w.ExternalID == externalID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) Update(ctx context.Context, waiver *Waiver) error {
	copied := *waiver
	r.waivers[waiver.ID] = &copied
	return nil
}

type fakeParties struct {
	parties map[uint]*bookings.TripParty
}

func (f *fakeParties) GetParty(ctx context.Context, id uint) (*bookings.TripParty, error) {
	party, ok := f.parties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return party, nil
}

type fakeTrips struct {
	trips map[uint]*trips.Trip
}

func (f *fakeTrips) GetByID(ctx context.Context, id uint) (*trips.Trip, error) {
	trip, ok := f.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return trip, nil
}

type fakeMarker struct {
	signed []uint
}

func (f *fakeMarker) MarkWaiverSigned(ctx context.Context, partyID uint) error {
	f.signed = append(f.signed, partyID)
	return nil
}

type fakeNotifier struct {
	sent [][]string
}

func (f *fakeNotifier) WaiverSigned(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string) error {
	f.sent = append(f.sent, recipients)
	return nil
}

func fixtures() (*fakeRepo, *fakeParties, *fakeTrips, *fakeMarker, *fakeNotifier, Service) {
	repo := newFakeRepo()
	parties := &fakeParties{parties: map[uint]*bookings.TripParty{
		5: {
			ID:     5,
			TripID: 2,
			PrimaryGuest: &bookings.GuestProfile{
				Email:     "lead@example.com",
				FirstName: "Jamie",
				LastName:  "Ford",
			},
		},
	}}
	tripRepo := &fakeTrips{trips: map[uint]*trips.Trip{
		2: {ID: 2, GuideServiceID: 1, Title: "Canyon Overnight"},
	}}
	marker := &fakeMarker{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, parties, tripRepo, marker, notifier)
	return repo, parties, tripRepo, marker, notifier, svc
}

func TestCreateWaiver_OnePerParty(t *testing.T) {
	_, _, _, _, _, svc := fixtures()

	waiver, err := svc.CreateWaiver(context.Background(), 1, 2, 5, &CreateWaiverRequest{
		Provider:   "smartwaiver",
		URL:        "https://waivers.example/w/abc",
		ExternalID: "sw_abc",
	})
	if err != nil {
		t.Fatalf("CreateWaiver: %v", err)
	}
	if waiver.Signed() {
		t.Error("new waiver should not be signed")
	}

	_, err = svc.CreateWaiver(context.Background(), 1, 2, 5, &CreateWaiverRequest{Provider: "smartwaiver"})
	if !errors.Is(err, ErrWaiverExists) {
		t.Errorf("expected ErrWaiverExists, got %v", err)
	}
}

func TestCreateWaiver_TenantScoped(t *testing.T) {
	_, _, _, _, _, svc := fixtures()

	if _, err := svc.CreateWaiver(context.Background(), 9, 2, 5, &CreateWaiverRequest{Provider: "smartwaiver"}); !errors.Is(err, ErrPartyNotFound) {
		t.Errorf("foreign service: expected ErrPartyNotFound, got %v", err)
	}
	if _, err := svc.CreateWaiver(context.Background(), 1, 8, 5, &CreateWaiverRequest{Provider: "smartwaiver"}); !errors.Is(err, ErrPartyNotFound) {
		t.Errorf("wrong trip: expected ErrPartyNotFound, got %v", err)
	}
}

func TestGetWaiver_NotFound(t *testing.T) {
	_, _, _, _, _, svc := fixtures()

	if _, err := svc.GetWaiver(context.Background(), 1, 2, 5); !errors.Is(err, ErrWaiverNotFound) {
		t.Errorf("expected ErrWaiverNotFound, got %v", err)
	}
}

func TestHandleProviderEvent_MarksSignedAndNotifies(t *testing.T) {
	_, _, _, marker, notifier, svc := fixtures()

	if _, err := svc.CreateWaiver(context.Background(), 1, 2, 5, &CreateWaiverRequest{
		Provider:   "smartwaiver",
		ExternalID: "sw_abc",
	}); err != nil {
		t.Fatalf("CreateWaiver: %v", err)
	}

	signedAt := time.Date(2024, 7, 9, 12, 0, 0, 0, time.UTC)
	err := svc.HandleProviderEvent(context.Background(), &ProviderEvent{
		ExternalID: "sw_abc",
		SignedAt:   &signedAt,
	})
	if err != nil {
		t.Fatalf("HandleProviderEvent: %v", err)
	}

	waiver, err := svc.GetWaiver(context.Background(), 1, 2, 5)
	if err != nil {
		t.Fatalf("GetWaiver: %v", err)
	}
	if waiver.SignedAt == nil || !waiver.SignedAt.Equal(signedAt) {
		t.Errorf("signed_at = %v", waiver.SignedAt)
	}
	if len(marker.signed) != 1 || marker.signed[0] != 5 {
		t.Errorf("marked parties = %v", marker.signed)
	}
	if len(notifier.sent) != 1 || notifier.sent[0][0] != "lead@example.com" {
		t.Errorf("notifications = %v", notifier.sent)
	}
}

func TestHandleProviderEvent_Idempotent(t *testing.T) {
	_, _, _, marker, _, svc := fixtures()

	if _, err := svc.CreateWaiver(context.Background(), 1, 2, 5, &CreateWaiverRequest{
		Provider:   "smartwaiver",
		ExternalID: "sw_abc",
	}); err != nil {
		t.Fatalf("CreateWaiver: %v", err)
	}

	event := &ProviderEvent{ExternalID: "sw_abc"}
	if err := svc.HandleProviderEvent(context.Background(), event); err != nil {
		t.Fatalf("first event: %v", err)
	}
	if err := svc.HandleProviderEvent(context.Background(), event); err != nil {
		t.Fatalf("second event: %v", err)
	}
	if len(marker.signed) != 1 {
		t.Errorf("expected a single mark, got %d", len(marker.signed))
	}
}

func TestHandleProviderEvent_UnknownIgnored(t *testing.T) {
	_, _, _, marker, _, svc := fixtures()

	if err := svc.HandleProviderEvent(context.Background(), &ProviderEvent{ExternalID: "sw_missing"}); err != nil {
		t.Fatalf("unknown external id should be ignored, got %v", err)
	}
	if len(marker.signed) != 0 {
		t.Errorf("expected no marks, got %v", marker.signed)
	}
}
