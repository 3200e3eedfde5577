package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"anchorpoint/internal/availability"
	"anchorpoint/internal/orgs"
	"anchorpoint/internal/pricing"
	"anchorpoint/internal/shared/config"
	"anchorpoint/internal/shared/database"
	"anchorpoint/internal/trips"
	"anchorpoint/internal/users"

	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Anchorpoint Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"trip_reports",
		"waivers",
		"payments",
		"guest_access_tokens",
		"trip_party_guests",
		"trip_parties",
		"guest_profiles",
		"trip_assignments",
		"trips",
		"trip_templates",
		"external_calendar_events",
		"calendar_integrations",
		"availability_shares",
		"availability_blocks",
		"pricing_tiers",
		"pricing_models",
		"service_stripe_accounts",
		"service_invitations",
		"service_memberships",
		"guide_services",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	serviceID, err := s.SeedGuideService(userIDs)
	if err != nil {
		return fmt.Errorf("failed to seed guide service: %w", err)
	}

	model, err := s.SeedPricing(serviceID)
	if err != nil {
		return fmt.Errorf("failed to seed pricing: %w", err)
	}

	if err := s.SeedTemplates(serviceID, model); err != nil {
		return fmt.Errorf("failed to seed trip templates: %w", err)
	}

	if err := s.SeedAvailability(userIDs["guide"], serviceID); err != nil {
		return fmt.Errorf("failed to seed availability: %w", err)
	}

	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates an owner, an office manager, and a guide.
func (s *Seeder) SeedUsers() (map[string]uint, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uint)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
	}{
		{"owner", "Dana", "Rivers", "owner@anchorpoint.test"},
		{"manager", "Casey", "Holt", "office@anchorpoint.test"},
		{"guide", "Robin", "Vale", "guide@anchorpoint.test"},
	}

	for _, userData := range usersData {
		user := users.User{
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s\n", user.Email)
	}

	return userIDs, nil
}

// SeedGuideService creates one guide service with a full roster.
func (s *Seeder) SeedGuideService(userIDs map[string]uint) (uint, error) {
	fmt.Println("  🏔️ Seeding guide service...")

	service := orgs.GuideService{
		Name:         "Cascade River Guides",
		Slug:         "cascade-river-guides",
		ContactEmail: "office@anchorpoint.test",
		Timezone:     "America/Los_Angeles",
	}
	if err := s.db.PostgreSQL.Create(&service).Error; err != nil {
		return 0, fmt.Errorf("failed to create guide service: %w", err)
	}
	fmt.Printf("    ✅ Created service: %s\n", service.Name)

	now := time.Now()
	memberships := []users.ServiceMembership{
		{UserID: userIDs["owner"], GuideServiceID: service.ID, Role: users.RoleOwner, IsActive: true, AcceptedAt: &now},
		{UserID: userIDs["manager"], GuideServiceID: service.ID, Role: users.RoleOfficeManager, IsActive: true, AcceptedAt: &now},
		{UserID: userIDs["guide"], GuideServiceID: service.ID, Role: users.RoleGuide, IsActive: true, AcceptedAt: &now},
	}
	for _, membership := range memberships {
		if err := s.db.PostgreSQL.Create(&membership).Error; err != nil {
			return 0, fmt.Errorf("failed to create membership: %w", err)
		}
		fmt.Printf("    ✅ Added %s to roster\n", membership.Role)
	}

	return service.ID, nil
}

// SeedPricing creates a tiered pricing model.
func (s *Seeder) SeedPricing(serviceID uint) (*pricing.PricingModel, error) {
	fmt.Println("  💵 Seeding pricing model...")

	three := 3
	cents150 := 15000
	cents135 := 13500

	model := pricing.PricingModel{
		GuideServiceID: serviceID,
		Name:           "Standard Day Trips",
		Currency:       "USD",
		IsActive:       true,
		Tiers: []pricing.PricingTier{
			{MinGuests: 1, MaxGuests: &three, PricePerGuest: "150.00", PricePerGuestCents: &cents150, Position: 0},
			{MinGuests: 4, PricePerGuest: "135.00", PricePerGuestCents: &cents135, Position: 1},
		},
	}
	if err := s.db.PostgreSQL.Create(&model).Error; err != nil {
		return nil, fmt.Errorf("failed to create pricing model: %w", err)
	}
	fmt.Printf("    ✅ Created pricing model: %s (%d tiers)\n", model.Name, len(model.Tiers))

	return &model, nil
}

// SeedTemplates creates reusable trip templates. The tiered template
// embeds a snapshot of the pricing model, matching what the API captures
// at creation time.
func (s *Seeder) SeedTemplates(serviceID uint, model *pricing.PricingModel) error {
	fmt.Println("  📋 Seeding trip templates...")

	snapshot, err := json.Marshal(model.ToSnapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal pricing snapshot: %w", err)
	}

	eight := 8.0
	six := 6
	two := 2
	price := 15000

	templatesData := []trips.TripTemplate{
		{
			GuideServiceID: serviceID,
			Title:          "Half-Day Float",
			Location:       "Lower Canyon",
			Difficulty:     "easy",
			Description:    "A relaxed float through the lower canyon, good for families.",
			DurationHours:  &eight,
			TargetGuests:   &six,
			TargetGuides:   &two,
			PriceCents:     &price,
			IsActive:       true,
		},
		{
			GuideServiceID:  serviceID,
			Title:           "Canyon Overnight",
			Location:        "Upper Gorge",
			Difficulty:      "moderate",
			Description:     "Two days on the water with a riverside camp.",
			TargetGuests:    &six,
			TargetGuides:    &two,
			PricingSnapshot: snapshot,
			IsActive:        true,
		},
	}

	for i := range templatesData {
		if err := s.db.PostgreSQL.Create(&templatesData[i]).Error; err != nil {
			return fmt.Errorf("failed to create template %s: %w", templatesData[i].Title, err)
		}
		fmt.Printf("    ✅ Created template: %s\n", templatesData[i].Title)
	}

	return nil
}

// SeedAvailability blocks out some of the guide's calendar.
func (s *Seeder) SeedAvailability(guideID, serviceID uint) error {
	fmt.Println("  📅 Seeding availability...")

	base := time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	blocks := []availability.Availability{
		{
			GuideID:        guideID,
			GuideServiceID: &serviceID,
			Start:          base.Add(8 * time.Hour),
			End:            base.Add(18 * time.Hour),
			IsAvailable:    true,
			Source:         availability.SourceManual,
			Visibility:     availability.VisibilityDetail,
			Note:           "Open for day trips",
		},
		{
			GuideID:     guideID,
			Start:       base.AddDate(0, 0, 2),
			End:         base.AddDate(0, 0, 4),
			IsAvailable: false,
			Source:      availability.SourceManual,
			Visibility:  availability.VisibilityBusy,
			Note:        "Personal time",
		},
	}

	for i := range blocks {
		if err := s.db.PostgreSQL.Create(&blocks[i]).Error; err != nil {
			return fmt.Errorf("failed to create availability block: %w", err)
		}
	}
	fmt.Printf("    ✅ Created %d availability blocks\n", len(blocks))

	return nil
}
