package trips

import "github.com/gin-gonic/gin"

// SetupTripRoutes mounts trip and template endpoints under a service scope.
// Staff (owners, office managers, guides) can read; management mutates.
func SetupTripRoutes(router *gin.RouterGroup, controller *Controller, authRequired, staff, management gin.HandlerFunc) {
	trips := router.Group("/services/:serviceId/trips")
	trips.Use(authRequired)
	{
		trips.GET("", staff, controller.ListTrips)
		trips.GET("/:tripId", staff, controller.GetTrip)

		trips.POST("", management, controller.CreateTrip)
		trips.PATCH("/:tripId", management, controller.UpdateTrip)
		trips.DELETE("/:tripId", management, controller.DeleteTrip)
		trips.PUT("/:tripId/guides", management, controller.AssignGuides)
	}

	templates := router.Group("/services/:serviceId/trip-templates")
	templates.Use(authRequired, management)
	{
		templates.POST("", controller.CreateTemplate)
		templates.GET("", controller.ListTemplates)
		templates.GET("/:templateId", controller.GetTemplate)
		templates.PATCH("/:templateId", controller.UpdateTemplate)
		templates.DELETE("/:templateId", controller.DeleteTemplate)
		templates.POST("/:templateId/duplicate", controller.DuplicateTemplate)
	}
}
