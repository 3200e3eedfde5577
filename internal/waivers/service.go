package waivers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"anchorpoint/internal/bookings"
	"anchorpoint/internal/trips"
	"anchorpoint/pkg/logger"
)

var (
	ErrWaiverNotFound = errors.New("waiver not found")
	ErrWaiverExists   = errors.New("waiver already exists for party")
	ErrPartyNotFound  = errors.New("party not found")
)

// PartyDirectory looks up parties. Satisfied by bookings.Repository.
type PartyDirectory interface {
	GetParty(ctx context.Context, id uint) (*bookings.TripParty, error)
}

// TripSource resolves trips for tenant checks. Satisfied by
// trips.Repository.
type TripSource interface {
	GetByID(ctx context.Context, id uint) (*trips.Trip, error)
}

// PartyMarker flips the party's waiver status. Satisfied by
// bookings.Service.
type PartyMarker interface {
	MarkWaiverSigned(ctx context.Context, partyID uint) error
}

// Notifier announces signed waivers. Satisfied by notifications.Service.
type Notifier interface {
	WaiverSigned(ctx context.Context, recipients []string, guestName, tripTitle, serviceName string) error
}

type CreateWaiverRequest struct {
	Provider   string `json:"provider" binding:"required,max=50"`
	URL        string `json:"url" binding:"omitempty,url,max=500"`
	ExternalID string `json:"external_id" binding:"omitempty,max=100"`
}

// ProviderEvent is the webhook payload posted by the waiver provider.
type ProviderEvent struct {
	ExternalID string     `json:"external_id"`
	SignedAt   *time.Time `json:"signed_at"`
}

type Service interface {
	CreateWaiver(ctx context.Context, serviceID, tripID, partyID uint, req *CreateWaiverRequest) (*Waiver, error)
	GetWaiver(ctx context.Context, serviceID, tripID, partyID uint) (*Waiver, error)
	HandleProviderEvent(ctx context.Context, event *ProviderEvent) error
}

type service struct {
	repo     Repository
	parties  PartyDirectory
	tripRepo TripSource
	marker   PartyMarker
	notifier Notifier
	logger   *logger.Logger
}

func NewService(repo Repository, parties PartyDirectory, tripRepo TripSource, marker PartyMarker, notifier Notifier) Service {
	return &service{
		repo:     repo,
		parties:  parties,
		tripRepo: tripRepo,
		marker:   marker,
		notifier: notifier,
		logger:   logger.GetDefault(),
	}
}

func (s *service) CreateWaiver(ctx context.Context, serviceID, tripID, partyID uint, req *CreateWaiverRequest) (*Waiver, error) {
	if _, _, err := s.getOwnedParty(ctx, serviceID, tripID, partyID); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByParty(ctx, partyID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: party %d", ErrWaiverExists, partyID)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing waiver: %w", err)
	}

	waiver := &Waiver{
		PartyID:    partyID,
		Provider:   req.Provider,
		URL:        req.URL,
		ExternalID: req.ExternalID,
	}
	if err := s.repo.Create(ctx, waiver); err != nil {
		return nil, fmt.Errorf("failed to create waiver: %w", err)
	}
	return waiver, nil
}

func (s *service) GetWaiver(ctx context.Context, serviceID, tripID, partyID uint) (*Waiver, error) {
	if _, _, err := s.getOwnedParty(ctx, serviceID, tripID, partyID); err != nil {
		return nil, err
	}

	waiver, err := s.repo.GetByParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWaiverNotFound
		}
		return nil, fmt.Errorf("failed to fetch waiver: %w", err)
	}
	return waiver, nil
}

// HandleProviderEvent marks the matching waiver signed. Events for unknown
// external ids are ignored, and already-signed waivers are left untouched
// so provider retries stay idempotent.
func (s *service) HandleProviderEvent(ctx context.Context, event *ProviderEvent) error {
	if event.ExternalID == "" {
		return nil
	}

	waiver, err := s.repo.GetByExternalID(ctx, event.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn(fmt.Sprintf("waiver event for unknown external id %s ignored", event.ExternalID))
			return nil
		}
		return fmt.Errorf("failed to fetch waiver: %w", err)
	}
	if waiver.Signed() {
		return nil
	}

	signedAt := time.Now()
	if event.SignedAt != nil {
		signedAt = *event.SignedAt
	}
	waiver.SignedAt = &signedAt
	if err := s.repo.Update(ctx, waiver); err != nil {
		return fmt.Errorf("failed to update waiver: %w", err)
	}

	if err := s.marker.MarkWaiverSigned(ctx, waiver.PartyID); err != nil {
		return fmt.Errorf("failed to mark party waiver signed: %w", err)
	}

	s.notifySigned(ctx, waiver)
	return nil
}

// notifySigned is best effort; a broken notification pipeline must not fail
// the webhook.
func (s *service) notifySigned(ctx context.Context, waiver *Waiver) {
	if s.notifier == nil {
		return
	}

	party, err := s.parties.GetParty(ctx, waiver.PartyID)
	if err != nil || party.PrimaryGuest == nil {
		return
	}
	trip, err := s.tripRepo.GetByID(ctx, party.TripID)
	if err != nil {
		return
	}

	err = s.notifier.WaiverSigned(ctx,
		[]string{party.PrimaryGuest.Email},
		party.PrimaryGuest.DisplayName(),
		trip.Title,
		"")
	if err != nil {
		s.logger.Warn(fmt.Sprintf("waiver signed notification failed for party %d: %v", waiver.PartyID, err))
	}
}

func (s *service) getOwnedParty(ctx context.Context, serviceID, tripID, partyID uint) (*trips.Trip, *bookings.TripParty, error) {
	party, err := s.parties.GetParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPartyNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch party: %w", err)
	}
	if party.TripID != tripID {
		return nil, nil, ErrPartyNotFound
	}

	trip, err := s.tripRepo.GetByID(ctx, party.TripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPartyNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch trip: %w", err)
	}
	if trip.GuideServiceID != serviceID {
		return nil, nil, ErrPartyNotFound
	}
	return trip, party, nil
}
