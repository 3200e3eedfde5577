package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"anchorpoint/internal/shared/constants"
	"anchorpoint/pkg/cache"
)

var (
	ErrModelNotFound = errors.New("pricing model not found")
	ErrInvalidTiers  = errors.New("invalid tier configuration")
	ErrInvalidDeposit = errors.New("invalid deposit configuration")
)

// Quote is the resolved price for a party size.
type Quote struct {
	PartySize         int     `json:"party_size"`
	PricePerGuestCents *int   `json:"price_per_guest_cents"`
	TotalCents        *int    `json:"total_cents"`
	DepositCents      *int    `json:"deposit_cents,omitempty"`
	Display           *string `json:"display,omitempty"`
}

type Service interface {
	CreateModel(ctx context.Context, serviceID uint, req *CreateModelRequest) (*PricingModel, error)
	GetModel(ctx context.Context, serviceID, modelID uint) (*PricingModel, error)
	ListModels(ctx context.Context, serviceID uint) ([]PricingModel, error)
	UpdateModel(ctx context.Context, serviceID, modelID uint, req *UpdateModelRequest) (*PricingModel, error)
	DeleteModel(ctx context.Context, serviceID, modelID uint) error
	QuoteModel(ctx context.Context, serviceID, modelID uint, req *QuoteRequest) (*Quote, error)
}

type service struct {
	repo  Repository
	cache cache.Service
}

func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:  repo,
		cache: cacheService,
	}
}

func (s *service) CreateModel(ctx context.Context, serviceID uint, req *CreateModelRequest) (*PricingModel, error) {
	tiers, err := buildTiers(req.Tiers)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	depositPercent := req.DepositPercent
	if depositPercent == "" {
		depositPercent = "0"
	}
	if err := validateDeposit(req.IsDepositRequired, depositPercent); err != nil {
		return nil, err
	}

	model := &PricingModel{
		GuideServiceID:    serviceID,
		Name:              strings.TrimSpace(req.Name),
		Currency:          currency,
		IsDepositRequired: req.IsDepositRequired,
		DepositPercent:    depositPercent,
		IsActive:          true,
		Tiers:             tiers,
	}

	if err := s.repo.Create(ctx, model); err != nil {
		return nil, err
	}
	return model, nil
}

func (s *service) GetModel(ctx context.Context, serviceID, modelID uint) (*PricingModel, error) {
	var model PricingModel
	err := s.cache.GetOrSet(ctx, constants.PricingModelCacheKey(modelID), constants.PricingCacheTTL,
		func() (interface{}, error) {
			return s.repo.GetByID(ctx, modelID)
		}, &model)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	if model.GuideServiceID != serviceID {
		return nil, ErrModelNotFound
	}
	return &model, nil
}

func (s *service) ListModels(ctx context.Context, serviceID uint) ([]PricingModel, error) {
	return s.repo.ListForService(ctx, serviceID)
}

func (s *service) UpdateModel(ctx context.Context, serviceID, modelID uint, req *UpdateModelRequest) (*PricingModel, error) {
	model, err := s.getOwned(ctx, serviceID, modelID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		model.Name = strings.TrimSpace(*req.Name)
	}
	if req.Currency != nil {
		model.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.IsDepositRequired != nil {
		model.IsDepositRequired = *req.IsDepositRequired
	}
	if req.DepositPercent != nil {
		model.DepositPercent = *req.DepositPercent
	}
	if req.IsActive != nil {
		model.IsActive = *req.IsActive
	}
	if err := validateDeposit(model.IsDepositRequired, model.DepositPercent); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, model); err != nil {
		return nil, err
	}

	if req.Tiers != nil {
		tiers, err := buildTiers(req.Tiers)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceTiers(ctx, modelID, tiers); err != nil {
			return nil, err
		}
	}

	s.cache.Delete(ctx, constants.PricingModelCacheKey(modelID))
	return s.repo.GetByID(ctx, modelID)
}

func (s *service) DeleteModel(ctx context.Context, serviceID, modelID uint) error {
	if _, err := s.getOwned(ctx, serviceID, modelID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, modelID); err != nil {
		return err
	}
	s.cache.Delete(ctx, constants.PricingModelCacheKey(modelID))
	return nil
}

func (s *service) QuoteModel(ctx context.Context, serviceID, modelID uint, req *QuoteRequest) (*Quote, error) {
	model, err := s.GetModel(ctx, serviceID, modelID)
	if err != nil {
		return nil, err
	}

	snapshot := model.ToSnapshot()
	perGuest := SelectPricePerGuestCents(snapshot, req.PartySize, req.FallbackCents)

	quote := &Quote{
		PartySize:          req.PartySize,
		PricePerGuestCents: perGuest,
	}
	if perGuest != nil {
		total := *perGuest * req.PartySize
		quote.TotalCents = &total
		quote.DepositCents = FormatDepositFromCents(snapshot, &total)
		quote.Display = FormatCurrencyFromCents(&total, snapshot.Currency)
	}
	return quote, nil
}

func (s *service) getOwned(ctx context.Context, serviceID, modelID uint) (*PricingModel, error) {
	model, err := s.repo.GetByID(ctx, modelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	if model.GuideServiceID != serviceID {
		return nil, ErrModelNotFound
	}
	return model, nil
}

// buildTiers validates the contiguity rules persisted tiers must satisfy:
// the first tier starts at 1, each next tier starts where the previous one
// ended, and only the final tier is open ended.
func buildTiers(inputs []TierInput) ([]PricingTier, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one tier is required", ErrInvalidTiers)
	}

	tiers := make([]PricingTier, 0, len(inputs))
	expectedMin := 1
	for i, in := range inputs {
		if in.MinGuests != expectedMin {
			return nil, fmt.Errorf("%w: tier %d must start at %d guests", ErrInvalidTiers, i+1, expectedMin)
		}
		last := i == len(inputs)-1
		if last {
			if in.MaxGuests != nil {
				return nil, fmt.Errorf("%w: final tier must be open ended", ErrInvalidTiers)
			}
		} else {
			if in.MaxGuests == nil {
				return nil, fmt.Errorf("%w: only the final tier may be open ended", ErrInvalidTiers)
			}
			if *in.MaxGuests < in.MinGuests {
				return nil, fmt.Errorf("%w: tier %d max below min", ErrInvalidTiers, i+1)
			}
			expectedMin = *in.MaxGuests + 1
		}

		if _, err := strconv.ParseFloat(strings.TrimSpace(in.PricePerGuest), 64); err != nil {
			return nil, fmt.Errorf("%w: tier %d price is not a decimal", ErrInvalidTiers, i+1)
		}

		tier := PricingTier{
			MinGuests:     in.MinGuests,
			MaxGuests:     in.MaxGuests,
			PricePerGuest: strings.TrimSpace(in.PricePerGuest),
			Position:      i,
		}
		if in.PricePerGuestCents != nil {
			cents := *in.PricePerGuestCents
			tier.PricePerGuestCents = &cents
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func validateDeposit(required bool, percent string) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(percent), 64)
	if err != nil {
		return fmt.Errorf("%w: deposit percent is not a decimal", ErrInvalidDeposit)
	}
	if value < 0 || value > 100 {
		return fmt.Errorf("%w: deposit percent must be between 0 and 100", ErrInvalidDeposit)
	}
	if required && value <= 0 {
		return fmt.Errorf("%w: deposit required but percent is zero", ErrInvalidDeposit)
	}
	return nil
}
