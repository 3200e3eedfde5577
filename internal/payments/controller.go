package payments

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"anchorpoint/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// StripeWebhook receives checkout lifecycle events from Stripe.
func (c *Controller) StripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<20))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to read webhook payload", nil, nil)
		return
	}

	signature := ctx.GetHeader("Stripe-Signature")
	if err := c.service.HandleWebhook(ctx.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, ErrInvalidWebhookPayload) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid webhook payload", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process webhook", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Webhook processed", nil, nil)
}
