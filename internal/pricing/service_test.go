package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

type fakeRepo struct {
	models map[uint]*PricingModel
	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{models: make(map[uint]*PricingModel), nextID: 1}
}

func (r *fakeRepo) Create(ctx context.Context, model *PricingModel) error {
	model.ID = r.nextID
	r.nextID++
	r.models[model.ID] = model
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uint) (*PricingModel, error) {
	model, ok := r.models[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return model, nil
}

func (r *fakeRepo) ListForService(ctx context.Context, serviceID uint) ([]PricingModel, error) {
	var out []PricingModel
	for _, m := range r.models {
		if m.GuideServiceID == serviceID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(ctx context.Context, model *PricingModel) error {
	r.models[model.ID] = model
	return nil
}

func (r *fakeRepo) ReplaceTiers(ctx context.Context, modelID uint, tiers []PricingTier) error {
	model, ok := r.models[modelID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	model.Tiers = tiers
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uint) error {
	delete(r.models, id)
	return nil
}

// passthroughCache calls the fetcher every time; cache behavior is covered
// by the cache package's own tests.
type passthroughCache struct{}

func (passthroughCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("cache miss")
}
func (passthroughCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (passthroughCache) Delete(ctx context.Context, key string) error         { return nil }
func (passthroughCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (passthroughCache) Exists(ctx context.Context, key string) bool          { return false }
func (passthroughCache) Ping(ctx context.Context) error                       { return nil }
func (passthroughCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
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
	return NewService(repo, passthroughCache{}), repo
}

func validCreateRequest() *CreateModelRequest {
	return &CreateModelRequest{
		Name:     "Day Trips",
		Currency: "usd",
		Tiers: []TierInput{
			{MinGuests: 1, MaxGuests: intPtr(2), PricePerGuest: "150.00"},
			{MinGuests: 3, MaxGuests: intPtr(6), PricePerGuest: "140.00"},
			{MinGuests: 7, PricePerGuest: "130.00"},
		},
	}
}

func TestCreateModel(t *testing.T) {
	svc, _ := newTestService()

	model, err := svc.CreateModel(context.Background(), 1, validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Currency != "USD" {
		t.Errorf("expected currency normalized to USD, got %q", model.Currency)
	}
	if len(model.Tiers) != 3 {
		t.Errorf("expected 3 tiers, got %d", len(model.Tiers))
	}
	if model.Tiers[2].Position != 2 {
		t.Errorf("expected positions assigned in order, got %d", model.Tiers[2].Position)
	}
}

func TestCreateModel_TierValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name  string
		tiers []TierInput
	}{
		{
			"first tier must start at one guest",
			[]TierInput{
				{MinGuests: 2, MaxGuests: intPtr(4), PricePerGuest: "100"},
				{MinGuests: 5, PricePerGuest: "90"},
			},
		},
		{
			"gap between tiers",
			[]TierInput{
				{MinGuests: 1, MaxGuests: intPtr(2), PricePerGuest: "100"},
				{MinGuests: 5, PricePerGuest: "90"},
			},
		},
		{
			"overlapping tiers",
			[]TierInput{
				{MinGuests: 1, MaxGuests: intPtr(4), PricePerGuest: "100"},
				{MinGuests: 3, PricePerGuest: "90"},
			},
		},
		{
			"final tier must be open ended",
			[]TierInput{
				{MinGuests: 1, MaxGuests: intPtr(4), PricePerGuest: "100"},
				{MinGuests: 5, MaxGuests: intPtr(8), PricePerGuest: "90"},
			},
		},
		{
			"only final tier may be open ended",
			[]TierInput{
				{MinGuests: 1, PricePerGuest: "100"},
				{MinGuests: 5, PricePerGuest: "90"},
			},
		},
		{
			"price must be a decimal",
			[]TierInput{
				{MinGuests: 1, PricePerGuest: "free"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &CreateModelRequest{Name: "Bad", Tiers: tt.tiers}
			_, err := svc.CreateModel(context.Background(), 1, req)
			if !errors.Is(err, ErrInvalidTiers) {
				t.Errorf("expected ErrInvalidTiers, got %v", err)
			}
		})
	}
}

func TestCreateModel_DepositValidation(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	req.IsDepositRequired = true
	req.DepositPercent = "0"
	if _, err := svc.CreateModel(context.Background(), 1, req); !errors.Is(err, ErrInvalidDeposit) {
		t.Errorf("deposit required with zero percent: expected ErrInvalidDeposit, got %v", err)
	}

	req = validCreateRequest()
	req.DepositPercent = "150"
	if _, err := svc.CreateModel(context.Background(), 1, req); !errors.Is(err, ErrInvalidDeposit) {
		t.Errorf("percent above 100: expected ErrInvalidDeposit, got %v", err)
	}

	req = validCreateRequest()
	req.IsDepositRequired = true
	req.DepositPercent = "25"
	if _, err := svc.CreateModel(context.Background(), 1, req); err != nil {
		t.Errorf("valid deposit: unexpected error %v", err)
	}
}

func TestGetModel_ScopedToService(t *testing.T) {
	svc, _ := newTestService()

	model, err := svc.CreateModel(context.Background(), 1, validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.GetModel(context.Background(), 1, model.ID); err != nil {
		t.Errorf("owning service: unexpected error %v", err)
	}

	// Another tenant must not see it
	if _, err := svc.GetModel(context.Background(), 2, model.ID); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("foreign service: expected ErrModelNotFound, got %v", err)
	}

	if _, err := svc.GetModel(context.Background(), 1, 999); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("missing model: expected ErrModelNotFound, got %v", err)
	}
}

func TestQuoteModel(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	req.IsDepositRequired = true
	req.DepositPercent = "50"
	model, err := svc.CreateModel(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	quote, err := svc.QuoteModel(context.Background(), 1, model.ID, &QuoteRequest{PartySize: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.PricePerGuestCents == nil || *quote.PricePerGuestCents != 14000 {
		t.Errorf("expected per-guest 14000, got %v", quote.PricePerGuestCents)
	}
	if quote.TotalCents == nil || *quote.TotalCents != 56000 {
		t.Errorf("expected total 56000, got %v", quote.TotalCents)
	}
	if quote.DepositCents == nil || *quote.DepositCents != 28000 {
		t.Errorf("expected deposit 28000, got %v", quote.DepositCents)
	}
	if quote.Display == nil || *quote.Display != "$560.00" {
		t.Errorf("expected display $560.00, got %v", quote.Display)
	}
}
