package orgs

import (
	"github.com/gin-gonic/gin"
)

// RouteGuards holds the middleware applied to service-scoped route groups.
type RouteGuards struct {
	AuthRequired gin.HandlerFunc
	Staff        gin.HandlerFunc
	Management   gin.HandlerFunc
	Owner        gin.HandlerFunc
}

// SetupOrgRoutes registers guide-service routes. The webhook route is
// unauthenticated; Stripe signs the payload instead.
func SetupOrgRoutes(rg *gin.RouterGroup, controller *Controller, guards RouteGuards) {
	rg.POST("/webhooks/stripe/connect", controller.StripeWebhook)

	services := rg.Group("/services")
	services.Use(guards.AuthRequired)
	{
		services.POST("", controller.CreateService)
		services.GET("", controller.ListMyServices)

		scoped := services.Group("/:serviceId")
		{
			scoped.GET("", guards.Staff, controller.GetService)
			scoped.PATCH("", guards.Management, controller.UpdateService)
			scoped.GET("/roster", guards.Management, controller.GetRoster)

			stripe := scoped.Group("/stripe", guards.Owner)
			{
				stripe.POST("/connect", controller.ConnectStripe)
				stripe.GET("/status", controller.GetStripeStatus)
				stripe.DELETE("", controller.DisconnectStripe)
			}
		}
	}
}
