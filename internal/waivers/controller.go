package waivers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"anchorpoint/internal/shared/middleware"
	"anchorpoint/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func scopeParams(ctx *gin.Context) (serviceID, tripID, partyID uint, ok bool) {
	serviceID, ok = middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return 0, 0, 0, false
	}
	trip, err := strconv.ParseUint(ctx.Param("tripId"), 10, 64)
	if err != nil || trip == 0 {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip id", nil, nil)
		return 0, 0, 0, false
	}
	party, err := strconv.ParseUint(ctx.Param("partyId"), 10, 64)
	if err != nil || party == 0 {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid party id", nil, nil)
		return 0, 0, 0, false
	}
	return serviceID, uint(trip), uint(party), true
}

func (c *Controller) CreateWaiver(ctx *gin.Context) {
	serviceID, tripID, partyID, ok := scopeParams(ctx)
	if !ok {
		return
	}

	var req CreateWaiverRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	waiver, err := c.service.CreateWaiver(ctx.Request.Context(), serviceID, tripID, partyID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPartyNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Party not found", nil, nil)
		case errors.Is(err, ErrWaiverExists):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Waiver already exists for this party", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create waiver", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Waiver created successfully", waiver, nil)
}

func (c *Controller) GetWaiver(ctx *gin.Context) {
	serviceID, tripID, partyID, ok := scopeParams(ctx)
	if !ok {
		return
	}

	waiver, err := c.service.GetWaiver(ctx.Request.Context(), serviceID, tripID, partyID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPartyNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Party not found", nil, nil)
		case errors.Is(err, ErrWaiverNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Waiver not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to fetch waiver", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Waiver retrieved successfully", waiver, nil)
}

// ProviderWebhook receives signature callbacks from the waiver provider.
func (c *Controller) ProviderWebhook(ctx *gin.Context) {
	var event ProviderEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid webhook payload", nil, err.Error())
		return
	}

	if err := c.service.HandleProviderEvent(ctx.Request.Context(), &event); err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process waiver event", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Waiver event processed", nil, nil)
}
