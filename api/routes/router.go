package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"anchorpoint/internal/auth"
	"anchorpoint/internal/availability"
	"anchorpoint/internal/bookings"
	"anchorpoint/internal/notifications"
	"anchorpoint/internal/orgs"
	"anchorpoint/internal/payments"
	"anchorpoint/internal/pricing"
	"anchorpoint/internal/reports"
	"anchorpoint/internal/shared/config"
	"anchorpoint/internal/shared/database"
	"anchorpoint/internal/shared/middleware"
	"anchorpoint/internal/trips"
	"anchorpoint/internal/users"
	"anchorpoint/internal/waivers"
	"anchorpoint/pkg/cache"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier notifications.Service
}

// NewRouter creates a new router instance. The notifier may be nil; booking
// flows then run without emails.
func NewRouter(cfg *config.Config, db *database.DB, notifier notifications.Service) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupDomainRoutes(api)
	}
}

// setupDomainRoutes builds the dependency graph and mounts every module.
// Construction order matters: payments learns about bookings through a
// setter because bookings already depends on payments for checkout.
func (r *Router) setupDomainRoutes(rg *gin.RouterGroup) {
	pg := r.db.GetPostgreSQL()
	cacheService := cache.NewService(r.db.GetRedisClient())

	usersRepo := users.NewRepository(pg)
	orgsRepo := orgs.NewRepository(pg)
	pricingRepo := pricing.NewRepository(pg)
	availabilityRepo := availability.NewRepository(pg)
	tripsRepo := trips.NewRepository(pg)
	bookingsRepo := bookings.NewRepository(pg)
	paymentsRepo := payments.NewRepository(pg)
	waiversRepo := waivers.NewRepository(pg)
	reportsRepo := reports.NewRepository(pg)

	authRequired := middleware.JWTAuthWithConfig(r.config)
	staff := middleware.RequireStaff(usersRepo)
	management := middleware.RequireManagement(usersRepo)
	owner := middleware.RequireOwner(usersRepo)

	// Auth and user accounts
	authRepo := auth.NewRepository(pg)
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	auth.NewRouter(authController, authRequired).SetupRoutes(rg)

	usersService := users.NewService(usersRepo)
	usersController := users.NewController(usersService)
	users.SetupUserRoutes(rg, usersController, authRequired)
	rosterController := users.NewRosterController(usersService)
	users.SetupRosterRoutes(rg, rosterController, authRequired, management)

	// Guide services
	orgsService := orgs.NewService(orgsRepo, usersRepo, r.config)
	orgsController := orgs.NewController(orgsService)
	orgs.SetupOrgRoutes(rg, orgsController, orgs.RouteGuards{
		AuthRequired: authRequired,
		Staff:        staff,
		Management:   management,
		Owner:        owner,
	})

	// Pricing
	pricingService := pricing.NewService(pricingRepo, cacheService)
	pricingController := pricing.NewController(pricingService)
	pricing.SetupPricingRoutes(rg, pricingController, authRequired, staff, management)

	// Availability
	availabilityService := availability.NewService(availabilityRepo, cacheService)
	availabilityController := availability.NewController(availabilityService)
	availability.SetupAvailabilityRoutes(rg, availabilityController, authRequired)

	// Payments before bookings, bookings before trips; the party marker
	// setter closes the loop afterwards.
	paymentsService := payments.NewService(paymentsRepo, r.config)
	paymentsController := payments.NewController(paymentsService)
	payments.SetupPaymentRoutes(rg, paymentsController)

	bookingsService := bookings.NewService(bookingsRepo, paymentsService, tripsRepo, orgsRepo, r.bookingNotifier(), r.config)
	paymentsService.SetPartyMarker(bookingsService)
	bookingsController := bookings.NewController(bookingsService)
	bookings.SetupBookingRoutes(rg, bookingsController, authRequired, staff, management)

	tripsService := trips.NewService(tripsRepo, pricingService, availabilityRepo, usersRepo, bookingsService, cacheService)
	tripsController := trips.NewController(tripsService)
	trips.SetupTripRoutes(rg, tripsController, authRequired, staff, management)

	// Waivers and trip reports
	waiversService := waivers.NewService(waiversRepo, bookingsRepo, tripsRepo, bookingsService, r.waiverNotifier())
	waiversController := waivers.NewController(waiversService)
	waivers.SetupWaiverRoutes(rg, waiversController, authRequired, management)

	reportsService := reports.NewService(reportsRepo, tripsRepo, usersRepo)
	reportsController := reports.NewController(reportsService)
	reports.SetupReportRoutes(rg, reportsController, authRequired, staff)
}

// bookingNotifier converts the optional notification service into the
// bookings dependency, keeping the interface nil when no service exists.
func (r *Router) bookingNotifier() bookings.Notifier {
	if r.notifier == nil {
		return nil
	}
	return r.notifier
}

func (r *Router) waiverNotifier() waivers.Notifier {
	if r.notifier == nil {
		return nil
	}
	return r.notifier
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "anchorpoint-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "anchorpoint-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
