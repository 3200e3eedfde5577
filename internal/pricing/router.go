package pricing

import (
	"github.com/gin-gonic/gin"
)

// SetupPricingRoutes registers pricing-model routes under a service scope.
// Reads are open to any active staff member, writes to management.
func SetupPricingRoutes(rg *gin.RouterGroup, controller *Controller, authRequired, staff, management gin.HandlerFunc) {
	models := rg.Group("/services/:serviceId/pricing-models")
	models.Use(authRequired)
	{
		models.GET("", staff, controller.ListModels)
		models.GET("/:modelId", staff, controller.GetModel)
		models.POST("/:modelId/quote", staff, controller.Quote)

		models.POST("", management, controller.CreateModel)
		models.PATCH("/:modelId", management, controller.UpdateModel)
		models.DELETE("/:modelId", management, controller.DeleteModel)
	}
}
