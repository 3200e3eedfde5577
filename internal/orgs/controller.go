package orgs

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"anchorpoint/internal/shared/middleware"
	"anchorpoint/internal/shared/utils/response"
	"anchorpoint/internal/users"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) CreateService(ctx *gin.Context) {
	userID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateServiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	svc, err := c.service.CreateService(ctx.Request.Context(), userID, &req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create guide service", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Guide service created successfully", svc, nil)
}

func (c *Controller) ListMyServices(ctx *gin.Context) {
	userID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	services, err := c.service.ListMyServices(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list guide services", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guide services retrieved successfully", services, nil)
}

func (c *Controller) GetService(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	svc, err := c.service.GetService(ctx.Request.Context(), serviceID)
	if err != nil {
		switch err {
		case ErrServiceNotFound:
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Guide service not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get guide service", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guide service retrieved successfully", svc, nil)
}

func (c *Controller) UpdateService(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	var req UpdateServiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	svc, err := c.service.UpdateService(ctx.Request.Context(), serviceID, &req)
	if err != nil {
		switch err {
		case ErrServiceNotFound:
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Guide service not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update guide service", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guide service updated successfully", svc, nil)
}

func (c *Controller) GetRoster(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	roster, err := c.service.GetRoster(ctx.Request.Context(), serviceID)
	if err != nil {
		switch err {
		case ErrServiceNotFound:
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Guide service not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get roster", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Roster retrieved successfully", roster, nil)
}

func (c *Controller) ConnectStripe(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	link, err := c.service.ConnectStripe(ctx.Request.Context(), serviceID)
	if err != nil {
		switch err {
		case ErrServiceNotFound:
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Guide service not found", nil, nil)
		case ErrStripeAlreadyLinked:
			response.RespondJSON(ctx, "error", http.StatusConflict, "Stripe account already connected", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to connect Stripe account", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Stripe onboarding link created", link, nil)
}

func (c *Controller) GetStripeStatus(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	status, err := c.service.GetStripeStatus(ctx.Request.Context(), serviceID)
	if err != nil {
		switch err {
		case ErrServiceNotFound:
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Guide service not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get Stripe status", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Stripe status retrieved successfully", status, nil)
}

func (c *Controller) DisconnectStripe(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	if err := c.service.DisconnectStripe(ctx.Request.Context(), serviceID); err != nil {
		switch err {
		case ErrStripeNotConnected:
			response.RespondJSON(ctx, "error", http.StatusNotFound, "No Stripe account connected", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to disconnect Stripe account", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Stripe account disconnected", nil, nil)
}

// StripeWebhook receives Connect events. Signature verification happens in
// the service so stub mode can skip it.
func (c *Controller) StripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<20))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to read webhook payload", nil, nil)
		return
	}

	err = c.service.HandleStripeWebhook(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Webhook rejected", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Webhook processed", nil, nil)
}
