package payments

import "github.com/gin-gonic/gin"

// SetupPaymentRoutes mounts the checkout webhook. Stripe signs requests;
// there is no session auth on webhook traffic.
func SetupPaymentRoutes(router *gin.RouterGroup, controller *Controller) {
	router.POST("/webhooks/stripe/checkout", controller.StripeWebhook)
}
