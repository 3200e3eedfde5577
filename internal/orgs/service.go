package orgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/account"
	"github.com/stripe/stripe-go/v76/accountlink"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"anchorpoint/internal/shared/config"
	"anchorpoint/internal/users"
)

var (
	ErrServiceNotFound       = errors.New("guide service not found")
	ErrStripeNotConnected    = errors.New("stripe account not connected")
	ErrStripeAlreadyLinked   = errors.New("stripe account already connected")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
)

// OnboardingLink is returned when connecting a Stripe account.
type OnboardingLink struct {
	AccountID string `json:"account_id"`
	URL       string `json:"url"`
	Stub      bool   `json:"stub,omitempty"`
}

// StripeStatus summarizes the connected account for the dashboard.
type StripeStatus struct {
	Connected        bool       `json:"connected"`
	AccountID        string     `json:"account_id,omitempty"`
	ChargesEnabled   bool       `json:"charges_enabled"`
	PayoutsEnabled   bool       `json:"payouts_enabled"`
	DetailsSubmitted bool       `json:"details_submitted"`
	DisabledReason   string     `json:"disabled_reason,omitempty"`
	LastWebhookAt    *time.Time `json:"last_webhook_at,omitempty"`
}

type Service interface {
	CreateService(ctx context.Context, ownerID uint, req *CreateServiceRequest) (*GuideService, error)
	GetService(ctx context.Context, serviceID uint) (*GuideService, error)
	UpdateService(ctx context.Context, serviceID uint, req *UpdateServiceRequest) (*GuideService, error)
	ListMyServices(ctx context.Context, userID uint) ([]GuideService, error)
	GetRoster(ctx context.Context, serviceID uint) ([]users.ServiceMembership, error)

	ConnectStripe(ctx context.Context, serviceID uint) (*OnboardingLink, error)
	GetStripeStatus(ctx context.Context, serviceID uint) (*StripeStatus, error)
	DisconnectStripe(ctx context.Context, serviceID uint) error
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}

type service struct {
	repo      Repository
	usersRepo users.Repository
	config    *config.Config
}

func NewService(repo Repository, usersRepo users.Repository, cfg *config.Config) Service {
	if cfg.StripeEnabled() {
		stripe.Key = cfg.Stripe.SecretKey
	}
	return &service{
		repo:      repo,
		usersRepo: usersRepo,
		config:    cfg,
	}
}

func (s *service) CreateService(ctx context.Context, ownerID uint, req *CreateServiceRequest) (*GuideService, error) {
	slug, err := s.uniqueSlug(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	svc := &GuideService{
		Name:         strings.TrimSpace(req.Name),
		Slug:         slug,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		LogoURL:      req.LogoURL,
		Timezone:     req.Timezone,
	}
	if svc.Timezone == "" {
		svc.Timezone = "UTC"
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}

	// The creator becomes the owner
	now := time.Now()
	membership := &users.ServiceMembership{
		UserID:         ownerID,
		GuideServiceID: svc.ID,
		Role:           users.RoleOwner,
		IsActive:       true,
		AcceptedAt:     &now,
	}
	if err := s.usersRepo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *service) GetService(ctx context.Context, serviceID uint) (*GuideService, error) {
	svc, err := s.repo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *service) UpdateService(ctx context.Context, serviceID uint, req *UpdateServiceRequest) (*GuideService, error) {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactEmail != nil {
		svc.ContactEmail = *req.ContactEmail
	}
	if req.Phone != nil {
		svc.Phone = *req.Phone
	}
	if req.LogoURL != nil {
		svc.LogoURL = *req.LogoURL
	}
	if req.Timezone != nil {
		svc.Timezone = *req.Timezone
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *service) ListMyServices(ctx context.Context, userID uint) ([]GuideService, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *service) GetRoster(ctx context.Context, serviceID uint) ([]users.ServiceMembership, error) {
	if _, err := s.GetService(ctx, serviceID); err != nil {
		return nil, err
	}
	return s.repo.GetRoster(ctx, serviceID)
}

func (s *service) ConnectStripe(ctx context.Context, serviceID uint) (*OnboardingLink, error) {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetStripeAccount(ctx, serviceID)
	if err == nil && existing.Ready() {
		return nil, ErrStripeAlreadyLinked
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Without a secret key we mint stub identifiers so the rest of the
	// onboarding flow can be exercised end to end in development.
	if !s.config.StripeEnabled() {
		return s.connectStub(ctx, serviceID, existing)
	}

	accountID := ""
	if existing != nil {
		accountID = existing.StripeAccountID
	}
	if accountID == "" {
		acct, err := account.New(&stripe.AccountParams{
			Type:  stripe.String(string(stripe.AccountTypeExpress)),
			Email: stripe.String(svc.ContactEmail),
		})
		if err != nil {
			return nil, fmt.Errorf("create stripe account: %w", err)
		}
		accountID = acct.ID
	}

	link, err := accountlink.New(&stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(s.config.FrontendURL + "/settings/billing?refresh=1"),
		ReturnURL:  stripe.String(s.config.FrontendURL + "/settings/billing?connected=1"),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return nil, fmt.Errorf("create onboarding link: %w", err)
	}

	if existing == nil {
		existing = &ServiceStripeAccount{GuideServiceID: serviceID}
	}
	existing.StripeAccountID = accountID
	if err := s.repo.SaveStripeAccount(ctx, existing); err != nil {
		return nil, err
	}

	return &OnboardingLink{AccountID: accountID, URL: link.URL}, nil
}

func (s *service) connectStub(ctx context.Context, serviceID uint, existing *ServiceStripeAccount) (*OnboardingLink, error) {
	if existing == nil {
		existing = &ServiceStripeAccount{GuideServiceID: serviceID}
	}
	if existing.StripeAccountID == "" {
		existing.StripeAccountID = "acct_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}
	existing.ChargesEnabled = true
	existing.PayoutsEnabled = true
	existing.DetailsSubmitted = true
	if err := s.repo.SaveStripeAccount(ctx, existing); err != nil {
		return nil, err
	}
	return &OnboardingLink{
		AccountID: existing.StripeAccountID,
		URL:       s.config.FrontendURL + "/settings/billing?connected=1&stub=1",
		Stub:      true,
	}, nil
}

func (s *service) GetStripeStatus(ctx context.Context, serviceID uint) (*StripeStatus, error) {
	if _, err := s.GetService(ctx, serviceID); err != nil {
		return nil, err
	}

	acct, err := s.repo.GetStripeAccount(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StripeStatus{Connected: false}, nil
		}
		return nil, err
	}

	return &StripeStatus{
		Connected:        true,
		AccountID:        acct.StripeAccountID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
		DisabledReason:   acct.DisabledReason,
		LastWebhookAt:    acct.LastWebhookAt,
	}, nil
}

func (s *service) DisconnectStripe(ctx context.Context, serviceID uint) error {
	_, err := s.repo.GetStripeAccount(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStripeNotConnected
		}
		return err
	}
	return s.repo.DeleteStripeAccount(ctx, serviceID)
}

// HandleStripeWebhook processes Connect events. Only account.updated does
// bookkeeping; everything else is acknowledged and dropped.
func (s *service) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	var event stripe.Event
	if s.config.Stripe.WebhookSecret != "" {
		verified, err := webhook.ConstructEvent(payload, signature, s.config.Stripe.WebhookSecret)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	if event.Type != "account.updated" {
		return nil
	}

	var acct stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}

	record, err := s.repo.GetStripeAccountByAccountID(ctx, acct.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Account unknown to us; nothing to update
			return nil
		}
		return err
	}

	record.ChargesEnabled = acct.ChargesEnabled
	record.PayoutsEnabled = acct.PayoutsEnabled
	record.DetailsSubmitted = acct.DetailsSubmitted
	record.DisabledReason = ""
	if acct.Requirements != nil {
		record.DisabledReason = string(acct.Requirements.DisabledReason)
	}
	now := time.Now()
	record.LastWebhookAt = &now

	return s.repo.SaveStripeAccount(ctx, record)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// uniqueSlug turns the service name into a url slug and suffixes a counter
// until it is free.
func (s *service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "service"
	}

	slug := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
