package trips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"anchorpoint/internal/availability"
	"anchorpoint/internal/pricing"
	"anchorpoint/internal/shared/constants"
	"anchorpoint/internal/users"
	"anchorpoint/pkg/cache"
	"anchorpoint/pkg/logger"
)

var (
	ErrTripNotFound     = errors.New("trip not found")
	ErrTemplateNotFound = errors.New("trip template not found")
	ErrInvalidRange     = errors.New("end must be after start")
	ErrPartyRequired    = errors.New("a trip requires an initial party")
	ErrGuideNotOnRoster = errors.New("guide is not an active member of this service")
	ErrTitleTaken       = errors.New("a template with this title already exists")
)

// PartyCreator books the initial party onto a freshly created trip. The
// bookings module implements it; the indirection keeps trips free of a
// dependency on booking internals.
type PartyCreator interface {
	CreateInitialParty(ctx context.Context, trip *Trip, req *InitialPartyRequest) (partyID uint, err error)
}

// CalendarWriter is the slice of the availability repository trips needs to
// mirror assignments onto guide calendars.
type CalendarWriter interface {
	Create(ctx context.Context, block *availability.Availability) error
	DeleteForTrip(ctx context.Context, tripID uint, guideIDs []uint) error
}

// RosterDirectory answers membership questions about a service's staff.
type RosterDirectory interface {
	GetByID(ctx context.Context, id uint) (*users.User, error)
	HasActiveRole(ctx context.Context, userID, serviceID uint, roles ...users.Role) (bool, error)
}

// PricingCatalog resolves a service's pricing models for snapshot capture.
type PricingCatalog interface {
	GetModel(ctx context.Context, serviceID, modelID uint) (*pricing.PricingModel, error)
}

// TripWithParty is returned from trip creation.
type TripWithParty struct {
	Trip    *Trip `json:"trip"`
	PartyID uint  `json:"party_id"`
}

type Service interface {
	CreateTrip(ctx context.Context, serviceID, creatorID uint, req *CreateTripRequest) (*TripWithParty, error)
	GetTrip(ctx context.Context, serviceID, tripID uint) (*Trip, error)
	ListTrips(ctx context.Context, serviceID, viewerID uint, from, to *time.Time) ([]Trip, error)
	UpdateTrip(ctx context.Context, serviceID, tripID uint, req *UpdateTripRequest) (*Trip, error)
	DeleteTrip(ctx context.Context, serviceID, tripID uint) error
	AssignGuides(ctx context.Context, serviceID, tripID uint, req *AssignGuidesRequest) ([]Assignment, error)

	CreateTemplate(ctx context.Context, serviceID uint, req *CreateTemplateRequest) (*TripTemplate, error)
	GetTemplate(ctx context.Context, serviceID, templateID uint) (*TripTemplate, error)
	ListTemplates(ctx context.Context, serviceID uint, activeOnly bool) ([]TripTemplate, error)
	UpdateTemplate(ctx context.Context, serviceID, templateID uint, req *UpdateTemplateRequest) (*TripTemplate, error)
	DeleteTemplate(ctx context.Context, serviceID, templateID uint) error
	DuplicateTemplate(ctx context.Context, serviceID, templateID uint) (*TripTemplate, error)
}

type service struct {
	repo         Repository
	pricing      PricingCatalog
	calendar     CalendarWriter
	usersRepo    RosterDirectory
	partyCreator PartyCreator
	cache        cache.Service
	logger       *logger.Logger
}

func NewService(repo Repository, pricingService PricingCatalog, calendar CalendarWriter, usersRepo RosterDirectory, partyCreator PartyCreator, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		pricing:      pricingService,
		calendar:     calendar,
		usersRepo:    usersRepo,
		partyCreator: partyCreator,
		cache:        cacheService,
		logger:       logger.GetDefault(),
	}
}

func (s *service) CreateTrip(ctx context.Context, serviceID, creatorID uint, req *CreateTripRequest) (*TripWithParty, error) {
	if !req.End.After(req.Start) {
		return nil, ErrInvalidRange
	}
	if req.Party == nil || len(req.Party.Guests) == 0 {
		return nil, ErrPartyRequired
	}

	trip := &Trip{
		GuideServiceID: serviceID,
		Title:          strings.TrimSpace(req.Title),
		Location:       req.Location,
		Start:          req.Start,
		End:            req.End,
		PriceCents:     req.PriceCents,
		Difficulty:     req.Difficulty,
		Description:    req.Description,
		DurationHours:  req.DurationHours,
		TargetGuests:   req.TargetGuests,
		TargetGuides:   req.TargetGuides,
		Notes:          req.Notes,
	}

	// Blank titles fall back to the primary guest's name
	if trip.Title == "" {
		trip.Title = primaryGuestName(req.Party.Guests)
	}

	if req.TemplateID != nil {
		template, err := s.GetTemplate(ctx, serviceID, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		applyTemplate(trip, template)
	}

	if req.PricingModelID != nil {
		snapshot, err := s.modelSnapshot(ctx, serviceID, *req.PricingModelID)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return nil, err
		}
		trip.PricingSnapshot = raw
	} else if len(trip.PricingSnapshot) == 0 && req.PriceCents != nil {
		raw, err := json.Marshal(pricing.BuildSingleTierSnapshot(*req.PriceCents, pricing.SingleTierOptions{}))
		if err != nil {
			return nil, err
		}
		trip.PricingSnapshot = raw
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, err
	}

	partyID, err := s.partyCreator.CreateInitialParty(ctx, trip, req.Party)
	if err != nil {
		// The trip is useless without its party
		if delErr := s.repo.Delete(ctx, trip.ID); delErr != nil {
			s.logger.Warn(fmt.Sprintf("failed to roll back trip %d after party error: %v", trip.ID, delErr))
		}
		return nil, err
	}

	s.invalidateTrip(ctx, serviceID, trip.ID)
	s.logger.LogTripCreated(ctx,
		strconv.FormatUint(uint64(trip.ID), 10),
		strconv.FormatUint(uint64(serviceID), 10),
		strconv.FormatUint(uint64(creatorID), 10))

	return &TripWithParty{Trip: trip, PartyID: partyID}, nil
}

func (s *service) GetTrip(ctx context.Context, serviceID, tripID uint) (*Trip, error) {
	var trip Trip
	err := s.cache.GetOrSet(ctx, constants.TripCacheKey(tripID), constants.TripCacheTTL,
		func() (interface{}, error) {
			return s.repo.GetByID(ctx, tripID)
		}, &trip)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.GuideServiceID != serviceID {
		return nil, ErrTripNotFound
	}
	return &trip, nil
}

// ListTrips scopes results by role: management sees the whole service,
// guides only the trips they are assigned to.
func (s *service) ListTrips(ctx context.Context, serviceID, viewerID uint, from, to *time.Time) ([]Trip, error) {
	if viewer, err := s.usersRepo.GetByID(ctx, viewerID); err == nil && viewer.IsSuperuser {
		return s.repo.ListForService(ctx, serviceID, from, to)
	}
	isManagement, err := s.usersRepo.HasActiveRole(ctx, viewerID, serviceID, users.ManagementRoles...)
	if err != nil {
		return nil, err
	}
	if isManagement {
		return s.repo.ListForService(ctx, serviceID, from, to)
	}
	return s.repo.ListAssignedToGuide(ctx, serviceID, viewerID, from, to)
}

func (s *service) UpdateTrip(ctx context.Context, serviceID, tripID uint, req *UpdateTripRequest) (*Trip, error) {
	trip, err := s.getOwned(ctx, serviceID, tripID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		trip.Title = strings.TrimSpace(*req.Title)
	}
	if req.Location != nil {
		trip.Location = *req.Location
	}
	if req.Start != nil {
		trip.Start = *req.Start
	}
	if req.End != nil {
		trip.End = *req.End
	}
	if !trip.End.After(trip.Start) {
		return nil, ErrInvalidRange
	}
	if req.PriceCents != nil {
		trip.PriceCents = req.PriceCents
	}
	if req.Difficulty != nil {
		trip.Difficulty = *req.Difficulty
	}
	if req.Description != nil {
		trip.Description = *req.Description
	}
	if req.DurationHours != nil {
		trip.DurationHours = req.DurationHours
	}
	if req.TargetGuests != nil {
		trip.TargetGuests = req.TargetGuests
	}
	if req.TargetGuides != nil {
		trip.TargetGuides = req.TargetGuides
	}
	if req.Notes != nil {
		trip.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, err
	}

	s.invalidateTrip(ctx, serviceID, tripID)
	return trip, nil
}

func (s *service) DeleteTrip(ctx context.Context, serviceID, tripID uint) error {
	trip, err := s.getOwned(ctx, serviceID, tripID)
	if err != nil {
		return err
	}

	guideIDs := make([]uint, 0, len(trip.Assignments))
	for _, assignment := range trip.Assignments {
		guideIDs = append(guideIDs, assignment.GuideID)
	}
	if err := s.calendar.DeleteForTrip(ctx, tripID, guideIDs); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tripID); err != nil {
		return err
	}
	s.invalidateTrip(ctx, serviceID, tripID)
	return nil
}

// AssignGuides replaces the trip's full assignment set: assignments not in
// the request are removed (with their mirrored calendar blocks), new ones
// are bulk created and mirrored. Every guide must hold an active
// membership at the service.
func (s *service) AssignGuides(ctx context.Context, serviceID, tripID uint, req *AssignGuidesRequest) ([]Assignment, error) {
	trip, err := s.getOwned(ctx, serviceID, tripID)
	if err != nil {
		return nil, err
	}

	// Dedupe the request
	requested := make([]uint, 0, len(req.GuideIDs))
	seen := make(map[uint]bool, len(req.GuideIDs))
	for _, guideID := range req.GuideIDs {
		if !seen[guideID] {
			seen[guideID] = true
			requested = append(requested, guideID)
		}
	}

	for _, guideID := range requested {
		onRoster, err := s.usersRepo.HasActiveRole(ctx, guideID, serviceID)
		if err != nil {
			return nil, err
		}
		if !onRoster {
			return nil, fmt.Errorf("%w: guide %d", ErrGuideNotOnRoster, guideID)
		}
	}

	existing, err := s.repo.ListAssignments(ctx, tripID)
	if err != nil {
		return nil, err
	}
	current := make(map[uint]bool, len(existing))
	for _, assignment := range existing {
		current[assignment.GuideID] = true
	}

	var removed []uint
	for _, assignment := range existing {
		if !seen[assignment.GuideID] {
			removed = append(removed, assignment.GuideID)
		}
	}
	var added []Assignment
	for _, guideID := range requested {
		if !current[guideID] {
			added = append(added, Assignment{TripID: tripID, GuideID: guideID})
		}
	}

	if err := s.repo.DeleteAssignments(ctx, tripID, removed); err != nil {
		return nil, err
	}
	if err := s.calendar.DeleteForTrip(ctx, tripID, removed); err != nil {
		return nil, err
	}
	if err := s.repo.CreateAssignments(ctx, added); err != nil {
		return nil, err
	}

	// Mirror each new assignment onto the guide's calendar
	for _, assignment := range added {
		block := &availability.Availability{
			GuideID:        assignment.GuideID,
			GuideServiceID: &serviceID,
			TripID:         &tripID,
			Start:          trip.Start,
			End:            trip.End,
			IsAvailable:    false,
			Source:         availability.SourceAssignment,
			Visibility:     availability.VisibilityDetail,
			Note:           trip.Title,
		}
		if err := s.calendar.Create(ctx, block); err != nil {
			return nil, err
		}
	}

	s.invalidateTrip(ctx, serviceID, tripID)
	return s.repo.ListAssignments(ctx, tripID)
}

func (s *service) CreateTemplate(ctx context.Context, serviceID uint, req *CreateTemplateRequest) (*TripTemplate, error) {
	title := strings.TrimSpace(req.Title)
	exists, err := s.repo.TemplateTitleExists(ctx, serviceID, title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTitleTaken
	}

	template := &TripTemplate{
		GuideServiceID: serviceID,
		Title:          title,
		Location:       req.Location,
		Difficulty:     req.Difficulty,
		Description:    req.Description,
		DurationHours:  req.DurationHours,
		TargetGuests:   req.TargetGuests,
		TargetGuides:   req.TargetGuides,
		Notes:          req.Notes,
		PriceCents:     req.PriceCents,
		IsActive:       true,
	}

	if req.PricingModelID != nil {
		snapshot, err := s.modelSnapshot(ctx, serviceID, *req.PricingModelID)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return nil, err
		}
		template.PricingSnapshot = raw
	}

	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *service) GetTemplate(ctx context.Context, serviceID, templateID uint) (*TripTemplate, error) {
	template, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if template.GuideServiceID != serviceID {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

func (s *service) ListTemplates(ctx context.Context, serviceID uint, activeOnly bool) ([]TripTemplate, error) {
	return s.repo.ListTemplates(ctx, serviceID, activeOnly)
}

func (s *service) UpdateTemplate(ctx context.Context, serviceID, templateID uint, req *UpdateTemplateRequest) (*TripTemplate, error) {
	template, err := s.GetTemplate(ctx, serviceID, templateID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != template.Title {
			exists, err := s.repo.TemplateTitleExists(ctx, serviceID, title)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrTitleTaken
			}
			template.Title = title
		}
	}
	if req.Location != nil {
		template.Location = *req.Location
	}
	if req.Difficulty != nil {
		template.Difficulty = *req.Difficulty
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.DurationHours != nil {
		template.DurationHours = req.DurationHours
	}
	if req.TargetGuests != nil {
		template.TargetGuests = req.TargetGuests
	}
	if req.TargetGuides != nil {
		template.TargetGuides = req.TargetGuides
	}
	if req.Notes != nil {
		template.Notes = *req.Notes
	}
	if req.PriceCents != nil {
		template.PriceCents = req.PriceCents
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateTemplate(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *service) DeleteTemplate(ctx context.Context, serviceID, templateID uint) error {
	if _, err := s.GetTemplate(ctx, serviceID, templateID); err != nil {
		return err
	}
	return s.repo.DeleteTemplate(ctx, templateID)
}

// DuplicateTemplate clones a template as "<title> (Copy)", counting up
// until the title is free. Copies start inactive so they do not show up in
// trip creation until edited.
func (s *service) DuplicateTemplate(ctx context.Context, serviceID, templateID uint) (*TripTemplate, error) {
	original, err := s.GetTemplate(ctx, serviceID, templateID)
	if err != nil {
		return nil, err
	}

	title, err := s.copyTitle(ctx, serviceID, original.Title)
	if err != nil {
		return nil, err
	}

	clone := *original
	clone.ID = 0
	clone.Title = title
	clone.IsActive = false
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}

	if err := s.repo.CreateTemplate(ctx, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

func (s *service) copyTitle(ctx context.Context, serviceID uint, base string) (string, error) {
	candidate := base + " (Copy)"
	for n := 2; ; n++ {
		exists, err := s.repo.TemplateTitleExists(ctx, serviceID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (Copy %d)", base, n)
	}
}

func (s *service) modelSnapshot(ctx context.Context, serviceID, modelID uint) (*pricing.Snapshot, error) {
	model, err := s.pricing.GetModel(ctx, serviceID, modelID)
	if err != nil {
		return nil, err
	}
	return model.ToSnapshot(), nil
}

func (s *service) getOwned(ctx context.Context, serviceID, tripID uint) (*Trip, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if trip.GuideServiceID != serviceID {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

func (s *service) invalidateTrip(ctx context.Context, serviceID, tripID uint) {
	s.cache.Delete(ctx, constants.TripCacheKey(tripID))
	s.cache.Delete(ctx, constants.TripListCacheKey(serviceID))
}

func applyTemplate(trip *Trip, template *TripTemplate) {
	if trip.Location == "" {
		trip.Location = template.Location
	}
	if trip.Difficulty == "" {
		trip.Difficulty = template.Difficulty
	}
	if trip.Description == "" {
		trip.Description = template.Description
	}
	if trip.DurationHours == nil {
		trip.DurationHours = template.DurationHours
	}
	if trip.TargetGuests == nil {
		trip.TargetGuests = template.TargetGuests
	}
	if trip.TargetGuides == nil {
		trip.TargetGuides = template.TargetGuides
	}
	if trip.Notes == "" {
		trip.Notes = template.Notes
	}
	if trip.PriceCents == nil {
		trip.PriceCents = template.PriceCents
	}
	if len(template.PricingSnapshot) > 0 {
		trip.PricingSnapshot = template.PricingSnapshot
	}
	if raw, err := json.Marshal(template); err == nil {
		trip.TemplateSnapshot = raw
	}
}

func primaryGuestName(guests []InitialGuest) string {
	primary := guests[0]
	for _, guest := range guests {
		if guest.IsPrimary {
			primary = guest
			break
		}
	}
	name := strings.TrimSpace(primary.FirstName + " " + primary.LastName)
	if name == "" {
		return primary.Email
	}
	return name
}
