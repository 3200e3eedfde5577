package bookings

import "github.com/gin-gonic/gin"

// SetupBookingRoutes mounts party management under the trip scope, guest
// lookups under the service scope, and the token-based guest portal at the
// top level (no session auth there).
func SetupBookingRoutes(router *gin.RouterGroup, controller *Controller, authRequired, staff, management gin.HandlerFunc) {
	parties := router.Group("/services/:serviceId/trips/:tripId/parties")
	parties.Use(authRequired, management)
	{
		parties.POST("", controller.CreateParty)
		parties.GET("", controller.ListParties)
		parties.GET("/:partyId", controller.GetParty)
		parties.PATCH("/:partyId", controller.UpdateParty)
	}

	guests := router.Group("/services/:serviceId/guests")
	guests.Use(authRequired, staff)
	{
		guests.GET("", controller.ListGuests)
		guests.GET("/:guestId", controller.GetGuest)
	}

	router.POST("/services/:serviceId/guest-links", authRequired, management, controller.IssueGuestLink)

	portal := router.Group("/guest-portal")
	{
		portal.GET("/:token", controller.PortalSession)
		portal.PATCH("/:token/profile", controller.UpdateGuestProfile)
	}
}
