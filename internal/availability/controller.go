package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"anchorpoint/internal/shared/utils/response"
	"anchorpoint/internal/users"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func blockIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("blockId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func respondBlockError(ctx *gin.Context, err error, fallbackMessage string) {
	switch {
	case errors.Is(err, ErrBlockNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Availability block not found", nil, nil)
	case errors.Is(err, ErrNotBlockOwner):
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Availability block belongs to another guide", nil, nil)
	case errors.Is(err, ErrInvalidRange):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "End must be after start", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, fallbackMessage, nil, nil)
	}
}

func (c *Controller) CreateBlock(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateBlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	block, err := c.service.CreateBlock(ctx.Request.Context(), guideID, &req)
	if err != nil {
		respondBlockError(ctx, err, "Failed to create availability block")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Availability block created successfully", block, nil)
}

func (c *Controller) ListBlocks(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var from, to *time.Time
	if raw := ctx.Query("from"); raw != "" {
		if t, ok := parseWindowTimestamp(raw); ok {
			from = &t
		}
	}
	if raw := ctx.Query("to"); raw != "" {
		if t, ok := parseWindowTimestamp(raw); ok {
			to = &t
		}
	}

	blocks, err := c.service.ListBlocks(ctx.Request.Context(), guideID, from, to)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list availability", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", blocks, nil)
}

func (c *Controller) GetBlock(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	blockID, ok := blockIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid block id", nil, nil)
		return
	}

	block, err := c.service.GetBlock(ctx.Request.Context(), guideID, blockID)
	if err != nil {
		respondBlockError(ctx, err, "Failed to get availability block")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability block retrieved successfully", block, nil)
}

func (c *Controller) UpdateBlock(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	blockID, ok := blockIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid block id", nil, nil)
		return
	}

	var req UpdateBlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	block, err := c.service.UpdateBlock(ctx.Request.Context(), guideID, blockID, &req)
	if err != nil {
		respondBlockError(ctx, err, "Failed to update availability block")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability block updated successfully", block, nil)
}

func (c *Controller) DeleteBlock(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	blockID, ok := blockIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid block id", nil, nil)
		return
	}

	result, err := c.service.DeleteBlock(ctx.Request.Context(), guideID, blockID)
	if err != nil {
		respondBlockError(ctx, err, "Failed to delete availability block")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability block deleted", result, nil)
}

// FindConflicts answers GET /availability/conflicts?start&end&exclude. The
// editing form polls it while the guide types, so malformed windows return
// an empty list instead of an error.
func (c *Controller) FindConflicts(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var excludeID *uint
	if raw := ctx.Query("exclude"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			parsed := uint(id)
			excludeID = &parsed
		}
	}

	conflicts, err := c.service.FindConflicts(ctx.Request.Context(), guideID, ctx.Query("start"), ctx.Query("end"), excludeID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to check conflicts", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Conflicts retrieved successfully", conflicts, nil)
}

func (c *Controller) SetShare(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	blockID, ok := blockIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid block id", nil, nil)
		return
	}

	var req ShareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	share, err := c.service.SetShare(ctx.Request.Context(), guideID, blockID, &req)
	if err != nil {
		respondBlockError(ctx, err, "Failed to set share")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Share saved successfully", share, nil)
}

func (c *Controller) ListShares(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	blockID, ok := blockIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid block id", nil, nil)
		return
	}

	shares, err := c.service.ListShares(ctx.Request.Context(), guideID, blockID)
	if err != nil {
		respondBlockError(ctx, err, "Failed to list shares")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Shares retrieved successfully", shares, nil)
}

func (c *Controller) RemoveShare(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	blockID, ok := blockIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid block id", nil, nil)
		return
	}
	serviceID, err := strconv.ParseUint(ctx.Param("shareServiceId"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	if err := c.service.RemoveShare(ctx.Request.Context(), guideID, blockID, uint(serviceID)); err != nil {
		respondBlockError(ctx, err, "Failed to remove share")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Share removed", nil, nil)
}

func (c *Controller) CreateIntegration(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateIntegrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	integration, err := c.service.CreateIntegration(ctx.Request.Context(), guideID, &req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create calendar integration", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Calendar integration created successfully", integration, nil)
}

func (c *Controller) ListIntegrations(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	integrations, err := c.service.ListIntegrations(ctx.Request.Context(), guideID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list calendar integrations", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Calendar integrations retrieved successfully", integrations, nil)
}

func (c *Controller) DeleteIntegration(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	integrationID, err := strconv.ParseUint(ctx.Param("integrationId"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid integration id", nil, nil)
		return
	}

	if err := c.service.DeleteIntegration(ctx.Request.Context(), guideID, uint(integrationID)); err != nil {
		if errors.Is(err, ErrIntegrationNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Calendar integration not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to delete calendar integration", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Calendar integration deleted", nil, nil)
}

func (c *Controller) SyncIntegration(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	integrationID, err := strconv.ParseUint(ctx.Param("integrationId"), 10, 64)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid integration id", nil, nil)
		return
	}

	var req SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := c.service.SyncIntegration(ctx.Request.Context(), guideID, uint(integrationID), &req)
	if err != nil {
		if errors.Is(err, ErrIntegrationNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Calendar integration not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to sync calendar", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Calendar synced successfully", result, nil)
}

// FormSeed answers GET /availability/form-seed. The calendar UI hands it a
// selected slot or an existing block id and gets back the initial form
// values.
func (c *Controller) FormSeed(ctx *gin.Context) {
	guideID, ok := users.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	if raw := ctx.Query("block"); raw != "" {
		blockID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid block id", nil, nil)
			return
		}
		block, err := c.service.GetBlock(ctx.Request.Context(), guideID, uint(blockID))
		if err != nil {
			respondBlockError(ctx, err, "Failed to seed form")
			return
		}
		values := BuildInitialFormValues(FormState{Mode: FormModeEdit, Event: block})
		response.RespondJSON(ctx, "success", http.StatusOK, "Form values retrieved successfully", values, nil)
		return
	}

	values := BuildInitialFormValues(FormState{
		Mode:      FormModeCreate,
		SlotStart: ctx.Query("start"),
		SlotEnd:   ctx.Query("end"),
	})
	response.RespondJSON(ctx, "success", http.StatusOK, "Form values retrieved successfully", values, nil)
}
