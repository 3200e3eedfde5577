package availability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

type fakeRepo struct {
	blocks       map[uint]*Availability
	shares       map[uint][]AvailabilityShare
	integrations map[uint]*CalendarIntegration
	events       map[uint]map[string]*ExternalEvent
	nextID       uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		blocks:       make(map[uint]*Availability),
		shares:       make(map[uint][]AvailabilityShare),
		integrations: make(map[uint]*CalendarIntegration),
		events:       make(map[uint]map[string]*ExternalEvent),
		nextID:       1,
	}
}

func (r *fakeRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeRepo) Create(ctx context.Context, block *Availability) error {
	block.ID = r.id()
	r.blocks[block.ID] = block
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uint) (*Availability, error) {
	block, ok := r.blocks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *block
	return &copied, nil
}

func (r *fakeRepo) ListForGuide(ctx context.Context, guideID uint, from, to *time.Time) ([]Availability, error) {
	var out []Availability
	for id := uint(1); id < r.nextID; id++ {
		block, ok := r.blocks[id]
		if !ok || block.GuideID != guideID {
			continue
		}
		if from != nil && !block.End.After(*from) {
			continue
		}
		if to != nil && !block.Start.Before(*to) {
			continue
		}
		out = append(out, *block)
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, block *Availability) error {
	r.blocks[block.ID] = block
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uint) error {
	delete(r.blocks, id)
	delete(r.shares, id)
	return nil
}

func (r *fakeRepo) DeleteForTrip(ctx context.Context, tripID uint, guideIDs []uint) error {
	for id, block := range r.blocks {
		if block.TripID != nil && *block.TripID == tripID && block.Source == SourceAssignment {
			for _, guideID := range guideIDs {
				if block.GuideID == guideID {
					delete(r.blocks, id)
				}
			}
		}
	}
	return nil
}

func (r *fakeRepo) UpsertShare(ctx context.Context, share *AvailabilityShare) error {
	existing := r.shares[share.AvailabilityID]
	for i := range existing {
		if existing[i].GuideServiceID == share.GuideServiceID {
			existing[i].Visibility = share.Visibility
			*share = existing[i]
			return nil
		}
	}
	share.ID = r.id()
	r.shares[share.AvailabilityID] = append(existing, *share)
	return nil
}

func (r *fakeRepo) ListShares(ctx context.Context, availabilityID uint) ([]AvailabilityShare, error) {
	return r.shares[availabilityID], nil
}

func (r *fakeRepo) DeleteShare(ctx context.Context, availabilityID, serviceID uint) error {
	existing := r.shares[availabilityID]
	var kept []AvailabilityShare
	for _, share := range existing {
		if share.GuideServiceID != serviceID {
			kept = append(kept, share)
		}
	}
	r.shares[availabilityID] = kept
	return nil
}

func (r *fakeRepo) GetIntegration(ctx context.Context, id uint) (*CalendarIntegration, error) {
	integration, ok := r.integrations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return integration, nil
}

func (r *fakeRepo) ListIntegrations(ctx context.Context, guideID uint) ([]CalendarIntegration, error) {
	var out []CalendarIntegration
	for _, integration := range r.integrations {
		if integration.GuideID == guideID {
			out = append(out, *integration)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateIntegration(ctx context.Context, integration *CalendarIntegration) error {
	integration.ID = r.id()
	r.integrations[integration.ID] = integration
	r.events[integration.ID] = make(map[string]*ExternalEvent)
	return nil
}

func (r *fakeRepo) SaveIntegration(ctx context.Context, integration *CalendarIntegration) error {
	r.integrations[integration.ID] = integration
	return nil
}

func (r *fakeRepo) DeleteIntegration(ctx context.Context, id uint) error {
	for _, event := range r.events[id] {
		if event.AvailabilityID != nil {
			delete(r.blocks, *event.AvailabilityID)
		}
	}
	delete(r.events, id)
	delete(r.integrations, id)
	return nil
}

func (r *fakeRepo) ListExternalEvents(ctx context.Context, integrationID uint) ([]ExternalEvent, error) {
	var out []ExternalEvent
	for _, event := range r.events[integrationID] {
		out = append(out, *event)
	}
	return out, nil
}

func (r *fakeRepo) SaveExternalEvent(ctx context.Context, event *ExternalEvent) error {
	if event.ID == 0 {
		event.ID = r.id()
	}
	copied := *event
	r.events[event.IntegrationID][event.UID] = &copied
	return nil
}

func (r *fakeRepo) DeleteExternalEvents(ctx context.Context, integrationID uint, uids []string) error {
	for _, uid := range uids {
		if event, ok := r.events[integrationID][uid]; ok {
			if event.AvailabilityID != nil {
				delete(r.blocks, *event.AvailabilityID)
			}
			delete(r.events[integrationID], uid)
		}
	}
	return nil
}

type stubCache struct{}

func (stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("cache miss")
}
func (stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (stubCache) Delete(ctx context.Context, key string) error            { return nil }
func (stubCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (stubCache) Exists(ctx context.Context, key string) bool             { return false }
func (stubCache) Ping(ctx context.Context) error                          { return nil }
func (stubCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	value, err := fetcher()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func newTestService() (Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, stubCache{}), repo
}

func TestCreateBlock_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateBlock(context.Background(), 1, &CreateBlockRequest{
		Start: ts("2024-05-01T12:00:00Z"),
		End:   ts("2024-05-01T10:00:00Z"),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range: expected ErrInvalidRange, got %v", err)
	}

	// Zero-length blocks are rejected too
	_, err = svc.CreateBlock(context.Background(), 1, &CreateBlockRequest{
		Start: ts("2024-05-01T10:00:00Z"),
		End:   ts("2024-05-01T10:00:00Z"),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("zero-length range: expected ErrInvalidRange, got %v", err)
	}
}

func TestCreateBlock_Defaults(t *testing.T) {
	svc, _ := newTestService()

	block, err := svc.CreateBlock(context.Background(), 1, &CreateBlockRequest{
		Start: ts("2024-05-01T10:00:00Z"),
		End:   ts("2024-05-01T12:00:00Z"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block.Visibility != VisibilityBusy {
		t.Errorf("expected default visibility busy, got %q", block.Visibility)
	}
	if block.Source != SourceManual {
		t.Errorf("expected manual source, got %q", block.Source)
	}
}

func TestBlockOwnership(t *testing.T) {
	svc, _ := newTestService()

	block, err := svc.CreateBlock(context.Background(), 1, &CreateBlockRequest{
		Start: ts("2024-05-01T10:00:00Z"),
		End:   ts("2024-05-01T12:00:00Z"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.GetBlock(context.Background(), 2, block.ID); !errors.Is(err, ErrNotBlockOwner) {
		t.Errorf("other guide: expected ErrNotBlockOwner, got %v", err)
	}
	if _, err := svc.GetBlock(context.Background(), 1, 999); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("missing block: expected ErrBlockNotFound, got %v", err)
	}
}

func TestDeleteBlock_WarnsOnLinkedSources(t *testing.T) {
	svc, repo := newTestService()

	manual := &Availability{GuideID: 1, Start: ts("2024-05-01T08:00:00Z"), End: ts("2024-05-01T09:00:00Z"), Source: SourceManual}
	synced := &Availability{GuideID: 1, Start: ts("2024-05-02T08:00:00Z"), End: ts("2024-05-02T09:00:00Z"), Source: SourceSync}
	repo.Create(context.Background(), manual)
	repo.Create(context.Background(), synced)

	result, err := svc.DeleteBlock(context.Background(), 1, manual.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Deleted || result.Warning != "" {
		t.Errorf("manual block: expected clean delete, got %+v", result)
	}

	result, err = svc.DeleteBlock(context.Background(), 1, synced.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Deleted {
		t.Error("sync block: deletion must be allowed")
	}
	if result.Warning == "" {
		t.Error("sync block: expected a warning about linked records")
	}
}

func TestFindConflicts(t *testing.T) {
	svc, repo := newTestService()

	repo.Create(context.Background(), &Availability{
		GuideID: 1, Start: ts("2024-05-01T10:00:00Z"), End: ts("2024-05-01T12:30:00Z"), IsAvailable: false,
	})
	repo.Create(context.Background(), &Availability{
		GuideID: 1, Start: ts("2024-05-01T09:30:00Z"), End: ts("2024-05-01T10:30:00Z"), IsAvailable: true,
	})
	repo.Create(context.Background(), &Availability{
		GuideID: 2, Start: ts("2024-05-01T09:00:00Z"), End: ts("2024-05-01T11:00:00Z"), IsAvailable: false,
	})

	conflicts, err := svc.FindConflicts(context.Background(), 1, "2024-05-01T09:00:00Z", "2024-05-01T11:00:00Z", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict (unavailable, same guide), got %d", len(conflicts))
	}

	// Malformed window degrades to empty, not error
	conflicts, err = svc.FindConflicts(context.Background(), 1, "garbage", "2024-05-01T11:00:00Z", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected empty result for malformed window, got %d", len(conflicts))
	}
}

func TestSetShare_Upserts(t *testing.T) {
	svc, repo := newTestService()

	block := &Availability{GuideID: 1, Start: ts("2024-05-01T08:00:00Z"), End: ts("2024-05-01T09:00:00Z")}
	repo.Create(context.Background(), block)

	first, err := svc.SetShare(context.Background(), 1, block.ID, &ShareRequest{GuideServiceID: 10, Visibility: "busy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.SetShare(context.Background(), 1, block.ID, &ShareRequest{GuideServiceID: 10, Visibility: "detail"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected upsert to reuse share %d, got new id %d", first.ID, second.ID)
	}
	if second.Visibility != VisibilityDetail {
		t.Errorf("expected visibility updated to detail, got %q", second.Visibility)
	}

	shares, err := svc.ListShares(context.Background(), 1, block.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 1 {
		t.Errorf("expected a single share per (block, service), got %d", len(shares))
	}
}

func TestSyncIntegration(t *testing.T) {
	svc, repo := newTestService()

	integration := &CalendarIntegration{GuideID: 1, Provider: "ical"}
	repo.CreateIntegration(context.Background(), integration)

	first := &SyncRequest{Events: []ExternalEventInput{
		{UID: "a", Title: "Dentist", Start: ts("2024-05-01T10:00:00Z"), End: ts("2024-05-01T11:00:00Z")},
		{UID: "b", Title: "Open slot", Start: ts("2024-05-02T10:00:00Z"), End: ts("2024-05-02T11:00:00Z"), Status: "free"},
	}}

	result, err := svc.SyncIntegration(context.Background(), 1, integration.ID, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 || result.Pruned != 0 {
		t.Errorf("first sync: expected 2 created, got %+v", result)
	}

	// Only the busy event mirrors into an availability block
	blocks, _ := repo.ListForGuide(context.Background(), 1, nil, nil)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 mirrored block, got %d", len(blocks))
	}
	if blocks[0].Source != SourceSync || blocks[0].IsAvailable {
		t.Errorf("expected busy sync-sourced block, got %+v", blocks[0])
	}

	// Second sync: "a" moves, "b" disappears, "c" is new
	second := &SyncRequest{Events: []ExternalEventInput{
		{UID: "a", Title: "Dentist", Start: ts("2024-05-01T14:00:00Z"), End: ts("2024-05-01T15:00:00Z")},
		{UID: "c", Title: "Shuttle run", Start: ts("2024-05-03T08:00:00Z"), End: ts("2024-05-03T09:00:00Z")},
	}}

	result, err = svc.SyncIntegration(context.Background(), 1, integration.ID, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 || result.Pruned != 1 {
		t.Errorf("second sync: expected created=1 updated=1 pruned=1, got %+v", result)
	}

	blocks, _ = repo.ListForGuide(context.Background(), 1, nil, nil)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 mirrored blocks after resync, got %d", len(blocks))
	}
	for _, block := range blocks {
		if block.Note == "Dentist" && !block.Start.Equal(ts("2024-05-01T14:00:00Z")) {
			t.Errorf("expected moved event to update its block, got start %v", block.Start)
		}
	}

	updated, err := repo.GetIntegration(context.Background(), integration.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.LastSyncedAt == nil {
		t.Error("expected last_synced_at stamped")
	}
}

func TestSyncIntegration_OwnershipChecked(t *testing.T) {
	svc, repo := newTestService()

	integration := &CalendarIntegration{GuideID: 1, Provider: "ical"}
	repo.CreateIntegration(context.Background(), integration)

	_, err := svc.SyncIntegration(context.Background(), 2, integration.ID, &SyncRequest{})
	if !errors.Is(err, ErrIntegrationNotFound) {
		t.Errorf("foreign guide: expected ErrIntegrationNotFound, got %v", err)
	}
}
