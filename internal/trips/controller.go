package trips

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

func tripIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("tripId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func templateIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("templateId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseTimeQuery(ctx *gin.Context, name string) *time.Time {
	raw := ctx.Query(name)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func (c *Controller) CreateTrip(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	userID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req CreateTripRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := c.service.CreateTrip(ctx.Request.Context(), serviceID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrPartyRequired):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
		case errors.Is(err, ErrTemplateNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip template not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create trip", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Trip created successfully", result, nil)
}

func (c *Controller) ListTrips(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	userID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	from := parseTimeQuery(ctx, "from")
	to := parseTimeQuery(ctx, "to")

	trips, err := c.service.ListTrips(ctx.Request.Context(), serviceID, userID, from, to)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list trips", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trips retrieved successfully", trips, nil)
}

func (c *Controller) GetTrip(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	tripID, ok := tripIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip id", nil, nil)
		return
	}

	trip, err := c.service.GetTrip(ctx.Request.Context(), serviceID, tripID)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get trip", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip retrieved successfully", trip, nil)
}

func (c *Controller) UpdateTrip(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	tripID, ok := tripIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip id", nil, nil)
		return
	}

	var req UpdateTripRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	trip, err := c.service.UpdateTrip(ctx.Request.Context(), serviceID, tripID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
		case errors.Is(err, ErrInvalidRange):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update trip", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip updated successfully", trip, nil)
}

func (c *Controller) DeleteTrip(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	tripID, ok := tripIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip id", nil, nil)
		return
	}

	if err := c.service.DeleteTrip(ctx.Request.Context(), serviceID, tripID); err != nil {
		if errors.Is(err, ErrTripNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to delete trip", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip deleted successfully", nil, nil)
}

// AssignGuides replaces the trip's guide roster with the requested set.
func (c *Controller) AssignGuides(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	tripID, ok := tripIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip id", nil, nil)
		return
	}

	var req AssignGuidesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	assignments, err := c.service.AssignGuides(ctx.Request.Context(), serviceID, tripID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
		case errors.Is(err, ErrGuideNotOnRoster):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to assign guides", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guides assigned successfully", assignments, nil)
}

func (c *Controller) CreateTemplate(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	var req CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	template, err := c.service.CreateTemplate(ctx.Request.Context(), serviceID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleTaken):
			response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create trip template", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Trip template created successfully", template, nil)
}

func (c *Controller) ListTemplates(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	activeOnly := ctx.Query("active") == "true"
	templates, err := c.service.ListTemplates(ctx.Request.Context(), serviceID, activeOnly)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list trip templates", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip templates retrieved successfully", templates, nil)
}

func (c *Controller) GetTemplate(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	templateID, ok := templateIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid template id", nil, nil)
		return
	}

	template, err := c.service.GetTemplate(ctx.Request.Context(), serviceID, templateID)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip template not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get trip template", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip template retrieved successfully", template, nil)
}

func (c *Controller) UpdateTemplate(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	templateID, ok := templateIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid template id", nil, nil)
		return
	}

	var req UpdateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	template, err := c.service.UpdateTemplate(ctx.Request.Context(), serviceID, templateID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTemplateNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip template not found", nil, nil)
		case errors.Is(err, ErrTitleTaken):
			response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update trip template", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip template updated successfully", template, nil)
}

func (c *Controller) DeleteTemplate(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	templateID, ok := templateIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid template id", nil, nil)
		return
	}

	if err := c.service.DeleteTemplate(ctx.Request.Context(), serviceID, templateID); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip template not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to delete trip template", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip template deleted successfully", nil, nil)
}

func (c *Controller) DuplicateTemplate(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	templateID, ok := templateIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid template id", nil, nil)
		return
	}

	template, err := c.service.DuplicateTemplate(ctx.Request.Context(), serviceID, templateID)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip template not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to duplicate trip template", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Trip template duplicated successfully", template, nil)
}
