package pricing

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

func modelIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("modelId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (c *Controller) CreateModel(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	var req CreateModelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	model, err := c.service.CreateModel(ctx.Request.Context(), serviceID, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidTiers) || errors.Is(err, ErrInvalidDeposit) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create pricing model", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Pricing model created successfully", model, nil)
}

func (c *Controller) ListModels(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	models, err := c.service.ListModels(ctx.Request.Context(), serviceID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list pricing models", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pricing models retrieved successfully", models, nil)
}

func (c *Controller) GetModel(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	modelID, ok := modelIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid pricing model id", nil, nil)
		return
	}

	model, err := c.service.GetModel(ctx.Request.Context(), serviceID, modelID)
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Pricing model not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get pricing model", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pricing model retrieved successfully", model, nil)
}

func (c *Controller) UpdateModel(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	modelID, ok := modelIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid pricing model id", nil, nil)
		return
	}

	var req UpdateModelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	model, err := c.service.UpdateModel(ctx.Request.Context(), serviceID, modelID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrModelNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Pricing model not found", nil, nil)
		case errors.Is(err, ErrInvalidTiers), errors.Is(err, ErrInvalidDeposit):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update pricing model", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pricing model updated successfully", model, nil)
}

func (c *Controller) DeleteModel(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	modelID, ok := modelIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid pricing model id", nil, nil)
		return
	}

	if err := c.service.DeleteModel(ctx.Request.Context(), serviceID, modelID); err != nil {
		if errors.Is(err, ErrModelNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Pricing model not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to delete pricing model", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pricing model deleted successfully", nil, nil)
}

// Quote resolves a per-guest rate and party total for a candidate size.
// Booking forms call this on every size change.
func (c *Controller) Quote(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	modelID, ok := modelIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid pricing model id", nil, nil)
		return
	}

	var req QuoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	quote, err := c.service.QuoteModel(ctx.Request.Context(), serviceID, modelID, &req)
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Pricing model not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to quote pricing model", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Quote resolved successfully", quote, nil)
}
