package availability

import (
	"github.com/gin-gonic/gin"
)

// SetupAvailabilityRoutes registers the current guide's calendar routes.
// Everything here is scoped to the authenticated user; service-level
// visibility comes through shares, not through these endpoints.
func SetupAvailabilityRoutes(rg *gin.RouterGroup, controller *Controller, authRequired gin.HandlerFunc) {
	calendar := rg.Group("/availability")
	calendar.Use(authRequired)
	{
		calendar.POST("", controller.CreateBlock)
		calendar.GET("", controller.ListBlocks)
		calendar.GET("/conflicts", controller.FindConflicts)
		calendar.GET("/form-seed", controller.FormSeed)

		calendar.GET("/:blockId", controller.GetBlock)
		calendar.PATCH("/:blockId", controller.UpdateBlock)
		calendar.DELETE("/:blockId", controller.DeleteBlock)

		calendar.PUT("/:blockId/shares", controller.SetShare)
		calendar.GET("/:blockId/shares", controller.ListShares)
		calendar.DELETE("/:blockId/shares/:shareServiceId", controller.RemoveShare)
	}

	integrations := rg.Group("/calendar-integrations")
	integrations.Use(authRequired)
	{
		integrations.POST("", controller.CreateIntegration)
		integrations.GET("", controller.ListIntegrations)
		integrations.DELETE("/:integrationId", controller.DeleteIntegration)
		integrations.POST("/:integrationId/sync", controller.SyncIntegration)
	}
}
