package trips

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"anchorpoint/internal/availability"
	"anchorpoint/internal/pricing"
	"anchorpoint/internal/users"
)

type fakeRepo struct {
	trips       map[uint]*Trip
	assignments map[uint][]Assignment
	templates   map[uint]*TripTemplate
	nextID      uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		trips:       make(map[uint]*Trip),
		assignments: make(map[uint][]Assignment),
		templates:   make(map[uint]*TripTemplate),
		nextID:      1,
	}
}

func (r *fakeRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeRepo) Create(ctx context.Context, trip *Trip) error {
	trip.ID = r.id()
	r.trips[trip.ID] = trip
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uint) (*Trip, error) {
	trip, ok := r.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *trip
	copied.Assignments = append([]Assignment(nil), r.assignments[id]...)
	return &copied, nil
}

func (r *fakeRepo) ListForService(ctx context.Context, serviceID uint, from, to *time.Time) ([]Trip, error) {
	var out []Trip
	for id := uint(1); id < r.nextID; id++ {
		trip, ok := r.trips[id]
		if !ok || trip.GuideServiceID != serviceID {
			continue
		}
		out = append(out, *trip)
	}
	return out, nil
}

func (r *fakeRepo) ListAssignedToGuide(ctx context.Context, serviceID, guideID uint, from, to *time.Time) ([]Trip, error) {
	var out []Trip
	for id := uint(1); id < r.nextID; id++ {
		trip, ok := r.trips[id]
		if !ok || trip.GuideServiceID != serviceID {
			continue
		}
		for _, assignment := range r.assignments[id] {
			if assignment.GuideID == guideID {
				out = append(out, *trip)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, trip *Trip) error {
	r.trips[trip.ID] = trip
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uint) error {
	delete(r.trips, id)
	delete(r.assignments, id)
	return nil
}

func (r *fakeRepo) ListAssignments(ctx context.Context, tripID uint) ([]Assignment, error) {
	return append([]Assignment(nil), r.assignments[tripID]...), nil
}

func (r *fakeRepo) CreateAssignments(ctx context.Context, assignments []Assignment) error {
	for _, assignment := range assignments {
		assignment.ID = r.id()
		r.assignments[assignment.TripID] = append(r.assignments[assignment.TripID], assignment)
	}
	return nil
}

func (r *fakeRepo) DeleteAssignments(ctx context.Context, tripID uint, guideIDs []uint) error {
	if len(guideIDs) == 0 {
		return nil
	}
	drop := make(map[uint]bool, len(guideIDs))
	for _, id := range guideIDs {
		drop[id] = true
	}
	var kept []Assignment
	for _, assignment := range r.assignments[tripID] {
		if !drop[assignment.GuideID] {
			kept = append(kept, assignment)
		}
	}
	r.assignments[tripID] = kept
	return nil
}

func (r *fakeRepo) CreateTemplate(ctx context.Context, template *TripTemplate) error {
	template.ID = r.id()
	r.templates[template.ID] = template
	return nil
}

func (r *fakeRepo) GetTemplate(ctx context.Context, id uint) (*TripTemplate, error) {
	template, ok := r.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *template
	return &copied, nil
}

func (r *fakeRepo) ListTemplates(ctx context.Context, serviceID uint, activeOnly bool) ([]TripTemplate, error) {
	var out []TripTemplate
	for id := uint(1); id < r.nextID; id++ {
		template, ok := r.templates[id]
		if !ok || template.GuideServiceID != serviceID {
			continue
		}
		if activeOnly && !template.IsActive {
			continue
		}
		out = append(out, *template)
	}
	return out, nil
}

func (r *fakeRepo) UpdateTemplate(ctx context.Context, template *TripTemplate) error {
	r.templates[template.ID] = template
	return nil
}

func (r *fakeRepo) DeleteTemplate(ctx context.Context, id uint) error {
	delete(r.templates, id)
	return nil
}

func (r *fakeRepo) TemplateTitleExists(ctx context.Context, serviceID uint, title string) (bool, error) {
	for _, template := range r.templates {
		if template.GuideServiceID == serviceID && template.Title == title {
			return true, nil
		}
	}
	return false, nil
}

type fakeCalendar struct {
	blocks []availability.Availability
}

func (c *fakeCalendar) Create(ctx context.Context, block *availability.Availability) error {
	c.blocks = append(c.blocks, *block)
	return nil
}

func (c *fakeCalendar) DeleteForTrip(ctx context.Context, tripID uint, guideIDs []uint) error {
	drop := make(map[uint]bool, len(guideIDs))
	for _, id := range guideIDs {
		drop[id] = true
	}
	var kept []availability.Availability
	for _, block := range c.blocks {
		if block.TripID != nil && *block.TripID == tripID && drop[block.GuideID] {
			continue
		}
		kept = append(kept, block)
	}
	c.blocks = kept
	return nil
}

type fakeRoster struct {
	management map[uint]bool
	members    map[uint]bool
}

func (r *fakeRoster) GetByID(ctx context.Context, id uint) (*users.User, error) {
	return &users.User{ID: id}, nil
}

func (r *fakeRoster) HasActiveRole(ctx context.Context, userID, serviceID uint, roles ...users.Role) (bool, error) {
	if len(roles) > 0 {
		return r.management[userID], nil
	}
	return r.members[userID], nil
}

type fakeCatalog struct {
	models map[uint]*pricing.PricingModel
}

func (c *fakeCatalog) GetModel(ctx context.Context, serviceID, modelID uint) (*pricing.PricingModel, error) {
	model, ok := c.models[modelID]
	if !ok || model.GuideServiceID != serviceID {
		return nil, pricing.ErrModelNotFound
	}
	return model, nil
}

type fakePartyCreator struct {
	partyID uint
	lastReq *InitialPartyRequest
	err     error
}

func (p *fakePartyCreator) CreateInitialParty(ctx context.Context, trip *Trip, req *InitialPartyRequest) (uint, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.lastReq = req
	return p.partyID, nil
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

type tripFixture struct {
	svc      Service
	repo     *fakeRepo
	calendar *fakeCalendar
	roster   *fakeRoster
	catalog  *fakeCatalog
	parties  *fakePartyCreator
}

func newTripFixture() *tripFixture {
	f := &tripFixture{
		repo:     newFakeRepo(),
		calendar: &fakeCalendar{},
		roster: &fakeRoster{
			management: map[uint]bool{},
			members:    map[uint]bool{},
		},
		catalog: &fakeCatalog{models: map[uint]*pricing.PricingModel{}},
		parties: &fakePartyCreator{partyID: 77},
	}
	f.svc = NewService(f.repo, f.catalog, f.calendar, f.roster, f.parties, stubCache{})
	return f
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", value, err)
	}
	return parsed
}

func intPtr(v int) *int    { return &v }
func uintPtr(v uint) *uint { return &v }

func baseCreateRequest(t *testing.T) *CreateTripRequest {
	return &CreateTripRequest{
		Title: "Half Day Float",
		Start: ts(t, "2024-06-01T08:00:00Z"),
		End:   ts(t, "2024-06-01T12:00:00Z"),
		Party: &InitialPartyRequest{
			Guests: []InitialGuest{
				{Email: "pat@example.com", FirstName: "Pat", LastName: "Rivers", IsPrimary: true},
			},
		},
	}
}

func TestCreateTrip_InvalidRange(t *testing.T) {
	f := newTripFixture()

	req := baseCreateRequest(t)
	req.End = req.Start

	_, err := f.svc.CreateTrip(context.Background(), 1, 10, req)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestCreateTrip_BlankTitleFallsBackToPrimaryGuest(t *testing.T) {
	f := newTripFixture()

	req := baseCreateRequest(t)
	req.Title = "   "
	req.Party.Guests = []InitialGuest{
		{Email: "a@example.com", FirstName: "Alex", LastName: "Stone"},
		{Email: "b@example.com", FirstName: "Blake", LastName: "Marsh", IsPrimary: true},
	}

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, req)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if result.Trip.Title != "Blake Marsh" {
		t.Errorf("expected title from primary guest, got %q", result.Trip.Title)
	}
	if result.PartyID != 77 {
		t.Errorf("expected party id 77, got %d", result.PartyID)
	}
}

func TestCreateTrip_FlatPriceSnapshot(t *testing.T) {
	f := newTripFixture()

	req := baseCreateRequest(t)
	req.PriceCents = intPtr(25000)

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, req)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	snapshot := result.Trip.Snapshot()
	if snapshot == nil {
		t.Fatal("expected a pricing snapshot from the flat price")
	}
	if len(snapshot.Tiers) != 1 {
		t.Fatalf("expected a single tier, got %d", len(snapshot.Tiers))
	}
	if got := snapshot.Tiers[0].PricePerGuestCents; got == nil || *got != 25000 {
		t.Errorf("expected 25000 cents per guest, got %v", got)
	}
}

func TestCreateTrip_ModelSnapshot(t *testing.T) {
	f := newTripFixture()
	f.catalog.models[5] = &pricing.PricingModel{
		ID:             5,
		GuideServiceID: 1,
		Currency:       "USD",
		Tiers: []pricing.PricingTier{
			{MinGuests: 1, MaxGuests: intPtr(3), PricePerGuest: "150.00", PricePerGuestCents: intPtr(15000)},
			{MinGuests: 4, PricePerGuest: "140.00", PricePerGuestCents: intPtr(14000)},
		},
	}

	req := baseCreateRequest(t)
	req.PricingModelID = uintPtr(5)

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, req)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	if got := result.Trip.PerGuestCents(4); got == nil || *got != 14000 {
		t.Errorf("expected snapshot rate 14000 for party of 4, got %v", got)
	}

	// A wrong-service model must not leak across tenants
	req2 := baseCreateRequest(t)
	req2.PricingModelID = uintPtr(5)
	if _, err := f.svc.CreateTrip(context.Background(), 2, 10, req2); !errors.Is(err, pricing.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound for foreign model, got %v", err)
	}
}

func TestCreateTrip_PartyErrorRollsBackTrip(t *testing.T) {
	f := newTripFixture()
	f.parties.err = errors.New("guest rejected")

	_, err := f.svc.CreateTrip(context.Background(), 1, 10, baseCreateRequest(t))
	if err == nil {
		t.Fatal("expected party creation error")
	}
	if len(f.repo.trips) != 0 {
		t.Errorf("expected trip rolled back, %d trips remain", len(f.repo.trips))
	}
}

func TestGetTrip_ScopedToService(t *testing.T) {
	f := newTripFixture()

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, baseCreateRequest(t))
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	if _, err := f.svc.GetTrip(context.Background(), 1, result.Trip.ID); err != nil {
		t.Errorf("owner service lookup failed: %v", err)
	}
	if _, err := f.svc.GetTrip(context.Background(), 2, result.Trip.ID); !errors.Is(err, ErrTripNotFound) {
		t.Errorf("expected ErrTripNotFound from foreign service, got %v", err)
	}
}

func TestListTrips_RoleScoping(t *testing.T) {
	f := newTripFixture()
	f.roster.management[10] = true
	f.roster.members[20] = true

	first, err := f.svc.CreateTrip(context.Background(), 1, 10, baseCreateRequest(t))
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if _, err := f.svc.CreateTrip(context.Background(), 1, 10, baseCreateRequest(t)); err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	if _, err := f.svc.AssignGuides(context.Background(), 1, first.Trip.ID, &AssignGuidesRequest{GuideIDs: []uint{20}}); err != nil {
		t.Fatalf("AssignGuides: %v", err)
	}

	managerView, err := f.svc.ListTrips(context.Background(), 1, 10, nil, nil)
	if err != nil {
		t.Fatalf("ListTrips (manager): %v", err)
	}
	if len(managerView) != 2 {
		t.Errorf("manager should see all 2 trips, saw %d", len(managerView))
	}

	guideView, err := f.svc.ListTrips(context.Background(), 1, 20, nil, nil)
	if err != nil {
		t.Fatalf("ListTrips (guide): %v", err)
	}
	if len(guideView) != 1 || guideView[0].ID != first.Trip.ID {
		t.Errorf("guide should only see the assigned trip, saw %d", len(guideView))
	}
}

func TestAssignGuides_ReplaceSemantics(t *testing.T) {
	f := newTripFixture()
	f.roster.members[20] = true
	f.roster.members[21] = true
	f.roster.members[22] = true

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, baseCreateRequest(t))
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	tripID := result.Trip.ID

	if _, err := f.svc.AssignGuides(context.Background(), 1, tripID, &AssignGuidesRequest{GuideIDs: []uint{20, 21}}); err != nil {
		t.Fatalf("first AssignGuides: %v", err)
	}
	if len(f.calendar.blocks) != 2 {
		t.Fatalf("expected 2 mirrored calendar blocks, got %d", len(f.calendar.blocks))
	}

	// Replace: 21 stays, 20 drops, 22 joins; duplicates in the request collapse
	assignments, err := f.svc.AssignGuides(context.Background(), 1, tripID, &AssignGuidesRequest{GuideIDs: []uint{21, 22, 22}})
	if err != nil {
		t.Fatalf("second AssignGuides: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments after replace, got %d", len(assignments))
	}
	got := map[uint]bool{}
	for _, assignment := range assignments {
		got[assignment.GuideID] = true
	}
	if !got[21] || !got[22] || got[20] {
		t.Errorf("unexpected assignment set: %v", got)
	}

	if len(f.calendar.blocks) != 2 {
		t.Errorf("expected removed guide's block pruned, %d blocks remain", len(f.calendar.blocks))
	}
	for _, block := range f.calendar.blocks {
		if block.GuideID == 20 {
			t.Error("removed guide still has a mirrored block")
		}
		if block.Source != availability.SourceAssignment {
			t.Errorf("mirrored block has source %q", block.Source)
		}
	}
}

func TestAssignGuides_RequiresActiveMembership(t *testing.T) {
	f := newTripFixture()

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, baseCreateRequest(t))
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	_, err = f.svc.AssignGuides(context.Background(), 1, result.Trip.ID, &AssignGuidesRequest{GuideIDs: []uint{99}})
	if !errors.Is(err, ErrGuideNotOnRoster) {
		t.Errorf("expected ErrGuideNotOnRoster, got %v", err)
	}
}

func TestDeleteTrip_PrunesMirroredBlocks(t *testing.T) {
	f := newTripFixture()
	f.roster.members[20] = true

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, baseCreateRequest(t))
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if _, err := f.svc.AssignGuides(context.Background(), 1, result.Trip.ID, &AssignGuidesRequest{GuideIDs: []uint{20}}); err != nil {
		t.Fatalf("AssignGuides: %v", err)
	}

	if err := f.svc.DeleteTrip(context.Background(), 1, result.Trip.ID); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}
	if len(f.calendar.blocks) != 0 {
		t.Errorf("expected mirrored blocks pruned with the trip, %d remain", len(f.calendar.blocks))
	}
	if _, err := f.svc.GetTrip(context.Background(), 1, result.Trip.ID); !errors.Is(err, ErrTripNotFound) {
		t.Errorf("expected trip gone, got %v", err)
	}
}

func TestTemplates_TitleUniqueness(t *testing.T) {
	f := newTripFixture()

	if _, err := f.svc.CreateTemplate(context.Background(), 1, &CreateTemplateRequest{Title: "Sunset Paddle"}); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if _, err := f.svc.CreateTemplate(context.Background(), 1, &CreateTemplateRequest{Title: "Sunset Paddle"}); !errors.Is(err, ErrTitleTaken) {
		t.Errorf("expected ErrTitleTaken, got %v", err)
	}
	// Same title is fine at another service
	if _, err := f.svc.CreateTemplate(context.Background(), 2, &CreateTemplateRequest{Title: "Sunset Paddle"}); err != nil {
		t.Errorf("cross-service title should be allowed: %v", err)
	}
}

func TestDuplicateTemplate_CopyTitles(t *testing.T) {
	f := newTripFixture()

	original, err := f.svc.CreateTemplate(context.Background(), 1, &CreateTemplateRequest{
		Title:      "Sunset Paddle",
		PriceCents: intPtr(9500),
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	first, err := f.svc.DuplicateTemplate(context.Background(), 1, original.ID)
	if err != nil {
		t.Fatalf("DuplicateTemplate: %v", err)
	}
	if first.Title != "Sunset Paddle (Copy)" {
		t.Errorf("expected \"Sunset Paddle (Copy)\", got %q", first.Title)
	}
	if first.IsActive {
		t.Error("copies should start inactive")
	}
	if first.PriceCents == nil || *first.PriceCents != 9500 {
		t.Errorf("expected price carried over, got %v", first.PriceCents)
	}

	second, err := f.svc.DuplicateTemplate(context.Background(), 1, original.ID)
	if err != nil {
		t.Fatalf("DuplicateTemplate: %v", err)
	}
	if second.Title != "Sunset Paddle (Copy 2)" {
		t.Errorf("expected \"Sunset Paddle (Copy 2)\", got %q", second.Title)
	}
}

func TestCreateTrip_TemplateDefaults(t *testing.T) {
	f := newTripFixture()

	template, err := f.svc.CreateTemplate(context.Background(), 1, &CreateTemplateRequest{
		Title:        "Gorge Run",
		Location:     "Lower Gorge",
		Difficulty:   "moderate",
		PriceCents:   intPtr(18000),
		TargetGuests: intPtr(6),
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	req := baseCreateRequest(t)
	req.TemplateID = uintPtr(template.ID)
	req.Location = "Upper Gorge" // explicit values win over template defaults

	result, err := f.svc.CreateTrip(context.Background(), 1, 10, req)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	trip := result.Trip
	if trip.Location != "Upper Gorge" {
		t.Errorf("explicit location overridden: %q", trip.Location)
	}
	if trip.Difficulty != "moderate" {
		t.Errorf("expected difficulty from template, got %q", trip.Difficulty)
	}
	if trip.PriceCents == nil || *trip.PriceCents != 18000 {
		t.Errorf("expected price from template, got %v", trip.PriceCents)
	}
	if trip.TargetGuests == nil || *trip.TargetGuests != 6 {
		t.Errorf("expected target guests from template, got %v", trip.TargetGuests)
	}
	if len(trip.TemplateSnapshot) == 0 {
		t.Error("expected template snapshot recorded on the trip")
	}
}
