package reports

import (
	"errors"
	"net/http"
	"strconv"

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

func scopeParams(ctx *gin.Context) (serviceID, tripID uint, ok bool) {
	serviceID, ok = middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return 0, 0, false
	}
	trip, err := strconv.ParseUint(ctx.Param("tripId"), 10, 64)
	if err != nil || trip == 0 {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip id", nil, nil)
		return 0, 0, false
	}
	return serviceID, uint(trip), true
}

func reportIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("reportId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func respondReportError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTripNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
	case errors.Is(err, ErrReportNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Report not found", nil, nil)
	case errors.Is(err, ErrNotAssigned):
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Only assigned guides or managers can file reports", nil, nil)
	case errors.Is(err, ErrNotAuthor):
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Only the report author can do this", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process report", nil, err.Error())
	}
}

func (c *Controller) CreateReport(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}
	userID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req CreateReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	report, err := c.service.CreateReport(ctx.Request.Context(), serviceID, tripID, userID, &req)
	if err != nil {
		respondReportError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Report created successfully", report, nil)
}

func (c *Controller) ListReports(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}

	reports, err := c.service.ListReports(ctx.Request.Context(), serviceID, tripID)
	if err != nil {
		respondReportError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Reports retrieved successfully", reports, nil)
}

func (c *Controller) GetReport(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}
	reportID, ok := reportIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid report id", nil, nil)
		return
	}

	report, err := c.service.GetReport(ctx.Request.Context(), serviceID, tripID, reportID)
	if err != nil {
		respondReportError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Report retrieved successfully", report, nil)
}

func (c *Controller) UpdateReport(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}
	reportID, ok := reportIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid report id", nil, nil)
		return
	}
	userID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req UpdateReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	report, err := c.service.UpdateReport(ctx.Request.Context(), serviceID, tripID, reportID, userID, &req)
	if err != nil {
		respondReportError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Report updated successfully", report, nil)
}

func (c *Controller) DeleteReport(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}
	reportID, ok := reportIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid report id", nil, nil)
		return
	}
	userID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	if err := c.service.DeleteReport(ctx.Request.Context(), serviceID, tripID, reportID, userID); err != nil {
		respondReportError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Report deleted successfully", nil, nil)
}
