package waivers

import "github.com/gin-gonic/gin"

// SetupWaiverRoutes mounts waiver management under the party scope and the
// provider callback at the top level (providers authenticate via payload,
// not session).
func SetupWaiverRoutes(router *gin.RouterGroup, controller *Controller, authRequired, management gin.HandlerFunc) {
	waivers := router.Group("/services/:serviceId/trips/:tripId/parties/:partyId/waiver")
	waivers.Use(authRequired, management)
	{
		waivers.POST("", controller.CreateWaiver)
		waivers.GET("", controller.GetWaiver)
	}

	router.POST("/webhooks/waivers", controller.ProviderWebhook)
}
