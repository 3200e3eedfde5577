package availability

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"anchorpoint/internal/shared/constants"
	"anchorpoint/pkg/cache"
	"anchorpoint/pkg/logger"
)

var (
	ErrBlockNotFound       = errors.New("availability block not found")
	ErrIntegrationNotFound = errors.New("calendar integration not found")
	ErrInvalidRange        = errors.New("end must be after start")
	ErrNotBlockOwner       = errors.New("availability block belongs to another guide")
)

// DeleteResult surfaces the warning for linked blocks; deletion of
// sync/assignment rows is allowed, not prevented.
type DeleteResult struct {
	Deleted bool   `json:"deleted"`
	Warning string `json:"warning,omitempty"`
}

// SyncResult summarizes one calendar sync ingest.
type SyncResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Pruned  int        `json:"pruned"`
	SyncedAt time.Time `json:"synced_at"`
}

type Service interface {
	CreateBlock(ctx context.Context, guideID uint, req *CreateBlockRequest) (*Availability, error)
	GetBlock(ctx context.Context, guideID, blockID uint) (*Availability, error)
	ListBlocks(ctx context.Context, guideID uint, from, to *time.Time) ([]Availability, error)
	UpdateBlock(ctx context.Context, guideID, blockID uint, req *UpdateBlockRequest) (*Availability, error)
	DeleteBlock(ctx context.Context, guideID, blockID uint) (*DeleteResult, error)
	FindConflicts(ctx context.Context, guideID uint, windowStart, windowEnd string, excludeID *uint) ([]Availability, error)

	SetShare(ctx context.Context, guideID, blockID uint, req *ShareRequest) (*AvailabilityShare, error)
	ListShares(ctx context.Context, guideID, blockID uint) ([]AvailabilityShare, error)
	RemoveShare(ctx context.Context, guideID, blockID, serviceID uint) error

	CreateIntegration(ctx context.Context, guideID uint, req *CreateIntegrationRequest) (*CalendarIntegration, error)
	ListIntegrations(ctx context.Context, guideID uint) ([]CalendarIntegration, error)
	DeleteIntegration(ctx context.Context, guideID, integrationID uint) error
	SyncIntegration(ctx context.Context, guideID, integrationID uint, req *SyncRequest) (*SyncResult, error)
}

type service struct {
	repo   Repository
	cache  cache.Service
	logger *logger.Logger
}

func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:   repo,
		cache:  cacheService,
		logger: logger.GetDefault(),
	}
}

func (s *service) CreateBlock(ctx context.Context, guideID uint, req *CreateBlockRequest) (*Availability, error) {
	if !req.End.After(req.Start) {
		return nil, ErrInvalidRange
	}

	visibility := Visibility(req.Visibility)
	if visibility == "" {
		visibility = VisibilityBusy
	}

	block := &Availability{
		GuideID:        guideID,
		GuideServiceID: req.GuideServiceID,
		Start:          req.Start,
		End:            req.End,
		IsAvailable:    req.IsAvailable,
		Source:         SourceManual,
		Visibility:     visibility,
		Note:           req.Note,
	}

	if err := s.repo.Create(ctx, block); err != nil {
		return nil, err
	}

	s.invalidateCalendar(ctx, guideID)
	return block, nil
}

func (s *service) GetBlock(ctx context.Context, guideID, blockID uint) (*Availability, error) {
	return s.getOwned(ctx, guideID, blockID)
}

func (s *service) ListBlocks(ctx context.Context, guideID uint, from, to *time.Time) ([]Availability, error) {
	// Unbounded guide calendars are cached; ranged queries go straight to
	// the database.
	if from == nil && to == nil {
		var blocks []Availability
		err := s.cache.GetOrSet(ctx, constants.GuideCalendarCacheKey(guideID), constants.CalendarCacheTTL,
			func() (interface{}, error) {
				return s.repo.ListForGuide(ctx, guideID, nil, nil)
			}, &blocks)
		if err != nil {
			return nil, err
		}
		return blocks, nil
	}
	return s.repo.ListForGuide(ctx, guideID, from, to)
}

func (s *service) UpdateBlock(ctx context.Context, guideID, blockID uint, req *UpdateBlockRequest) (*Availability, error) {
	block, err := s.getOwned(ctx, guideID, blockID)
	if err != nil {
		return nil, err
	}

	if req.Start != nil {
		block.Start = *req.Start
	}
	if req.End != nil {
		block.End = *req.End
	}
	if !block.End.After(block.Start) {
		return nil, ErrInvalidRange
	}
	if req.IsAvailable != nil {
		block.IsAvailable = *req.IsAvailable
	}
	if req.ClearService {
		block.GuideServiceID = nil
	} else if req.GuideServiceID != nil {
		block.GuideServiceID = req.GuideServiceID
	}
	if req.Visibility != nil {
		block.Visibility = Visibility(*req.Visibility)
	}
	if req.Note != nil {
		block.Note = *req.Note
	}

	if err := s.repo.Update(ctx, block); err != nil {
		return nil, err
	}

	s.invalidateCalendar(ctx, guideID)
	return block, nil
}

func (s *service) DeleteBlock(ctx context.Context, guideID, blockID uint) (*DeleteResult, error) {
	block, err := s.getOwned(ctx, guideID, blockID)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{Deleted: true}
	switch block.Source {
	case SourceAssignment:
		result.Warning = "this block mirrors a trip assignment; the assignment itself is not removed"
	case SourceSync:
		result.Warning = "this block came from a calendar sync and may reappear on the next sync"
	}

	if err := s.repo.Delete(ctx, blockID); err != nil {
		return nil, err
	}

	s.invalidateCalendar(ctx, guideID)
	return result, nil
}

// FindConflicts runs the overlap scan over the guide's unavailable blocks.
// Parsing is left to the detector so malformed windows degrade to an empty
// list, matching what the editing form expects mid-keystroke.
func (s *service) FindConflicts(ctx context.Context, guideID uint, windowStart, windowEnd string, excludeID *uint) ([]Availability, error) {
	blocks, err := s.ListBlocks(ctx, guideID, nil, nil)
	if err != nil {
		return nil, err
	}

	conflicts := FindOverlappingUnavailableEvents(blocks, windowStart, windowEnd, ConflictOptions{
		ExcludeAvailabilityID: excludeID,
	})
	if len(conflicts) > 0 {
		s.logger.LogAvailabilityConflict(ctx, strconv.FormatUint(uint64(guideID), 10), len(conflicts))
	}
	return conflicts, nil
}

func (s *service) SetShare(ctx context.Context, guideID, blockID uint, req *ShareRequest) (*AvailabilityShare, error) {
	if _, err := s.getOwned(ctx, guideID, blockID); err != nil {
		return nil, err
	}

	share := &AvailabilityShare{
		AvailabilityID: blockID,
		GuideServiceID: req.GuideServiceID,
		Visibility:     Visibility(req.Visibility),
	}
	if err := s.repo.UpsertShare(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

func (s *service) ListShares(ctx context.Context, guideID, blockID uint) ([]AvailabilityShare, error) {
	if _, err := s.getOwned(ctx, guideID, blockID); err != nil {
		return nil, err
	}
	return s.repo.ListShares(ctx, blockID)
}

func (s *service) RemoveShare(ctx context.Context, guideID, blockID, serviceID uint) error {
	if _, err := s.getOwned(ctx, guideID, blockID); err != nil {
		return err
	}
	return s.repo.DeleteShare(ctx, blockID, serviceID)
}

func (s *service) CreateIntegration(ctx context.Context, guideID uint, req *CreateIntegrationRequest) (*CalendarIntegration, error) {
	integration := &CalendarIntegration{
		GuideID:  guideID,
		Provider: req.Provider,
		Name:     req.Name,
		FeedURL:  req.FeedURL,
		IsActive: true,
	}
	if err := s.repo.CreateIntegration(ctx, integration); err != nil {
		return nil, err
	}
	return integration, nil
}

func (s *service) ListIntegrations(ctx context.Context, guideID uint) ([]CalendarIntegration, error) {
	return s.repo.ListIntegrations(ctx, guideID)
}

func (s *service) DeleteIntegration(ctx context.Context, guideID, integrationID uint) error {
	if _, err := s.getOwnedIntegration(ctx, guideID, integrationID); err != nil {
		return err
	}
	if err := s.repo.DeleteIntegration(ctx, integrationID); err != nil {
		return err
	}
	s.invalidateCalendar(ctx, guideID)
	return nil
}

// SyncIntegration ingests the full current state of an external calendar:
// events are upserted by uid and mirrored into sync-sourced availability
// blocks (busy unless the upstream status says free); uids missing from
// the payload are pruned along with their mirrored blocks.
func (s *service) SyncIntegration(ctx context.Context, guideID, integrationID uint, req *SyncRequest) (*SyncResult, error) {
	integration, err := s.getOwnedIntegration(ctx, guideID, integrationID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListExternalEvents(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	byUID := make(map[string]*ExternalEvent, len(existing))
	for i := range existing {
		byUID[existing[i].UID] = &existing[i]
	}

	result := &SyncResult{}
	seen := make(map[string]bool, len(req.Events))
	for _, input := range req.Events {
		if !input.End.After(input.Start) {
			continue
		}
		seen[input.UID] = true

		status := input.Status
		if status == "" {
			status = "busy"
		}
		busy := status != "free"

		event, exists := byUID[input.UID]
		if !exists {
			event = &ExternalEvent{
				IntegrationID: integrationID,
				UID:           input.UID,
			}
		}
		event.Title = input.Title
		event.Start = input.Start
		event.End = input.End
		event.Status = status

		if busy {
			block, err := s.mirrorBlock(ctx, integration, event, input)
			if err != nil {
				return nil, err
			}
			event.AvailabilityID = &block.ID
		} else if event.AvailabilityID != nil {
			if err := s.repo.Delete(ctx, *event.AvailabilityID); err != nil {
				return nil, err
			}
			event.AvailabilityID = nil
		}

		if err := s.repo.SaveExternalEvent(ctx, event); err != nil {
			return nil, err
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}

	var stale []string
	for uid := range byUID {
		if !seen[uid] {
			stale = append(stale, uid)
		}
	}
	if err := s.repo.DeleteExternalEvents(ctx, integrationID, stale); err != nil {
		return nil, err
	}
	result.Pruned = len(stale)

	now := time.Now()
	integration.LastSyncedAt = &now
	result.SyncedAt = now
	if err := s.repo.SaveIntegration(ctx, integration); err != nil {
		return nil, err
	}

	s.invalidateCalendar(ctx, guideID)
	s.logger.LogCalendarSync(ctx, strconv.FormatUint(uint64(integrationID), 10), result.Created+result.Updated, result.Pruned)
	return result, nil
}

func (s *service) mirrorBlock(ctx context.Context, integration *CalendarIntegration, event *ExternalEvent, input ExternalEventInput) (*Availability, error) {
	if event.AvailabilityID != nil {
		block, err := s.repo.GetByID(ctx, *event.AvailabilityID)
		if err == nil {
			block.Start = input.Start
			block.End = input.End
			block.Note = input.Title
			if err := s.repo.Update(ctx, block); err != nil {
				return nil, err
			}
			return block, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	block := &Availability{
		GuideID:     integration.GuideID,
		Start:       input.Start,
		End:         input.End,
		IsAvailable: false,
		Source:      SourceSync,
		Visibility:  VisibilityBusy,
		Note:        input.Title,
	}
	if err := s.repo.Create(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *service) getOwned(ctx context.Context, guideID, blockID uint) (*Availability, error) {
	block, err := s.repo.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	if block.GuideID != guideID {
		return nil, ErrNotBlockOwner
	}
	return block, nil
}

func (s *service) getOwnedIntegration(ctx context.Context, guideID, integrationID uint) (*CalendarIntegration, error) {
	integration, err := s.repo.GetIntegration(ctx, integrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntegrationNotFound
		}
		return nil, err
	}
	if integration.GuideID != guideID {
		return nil, ErrIntegrationNotFound
	}
	return integration, nil
}

func (s *service) invalidateCalendar(ctx context.Context, guideID uint) {
	if err := s.cache.Delete(ctx, constants.GuideCalendarCacheKey(guideID)); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to invalidate calendar cache for guide %d: %v", guideID, err))
	}
}
