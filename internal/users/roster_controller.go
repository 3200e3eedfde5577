package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"anchorpoint/internal/shared/utils/response"
)

// RosterController exposes the service-scoped invitation and membership
// management endpoints.
type RosterController interface {
	Invite(c *gin.Context)
	ListInvitations(c *gin.Context)
	CancelInvitation(c *gin.Context)
	DeactivateMembership(c *gin.Context)
}

type rosterController struct {
	service Service
}

func NewRosterController(service Service) RosterController {
	return &rosterController{service: service}
}

func serviceIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("serviceId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (ctrl *rosterController) Invite(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Not authenticated", nil, nil)
		return
	}
	serviceID, ok := serviceIDParam(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	invitation, rawToken, err := ctrl.service.InviteToService(c.Request.Context(), serviceID, userID, req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidRole) {
			statusCode = http.StatusBadRequest
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	// The raw token is only available at creation time; it goes out in the
	// invitation email and is echoed here for the management UI.
	data := gin.H{
		"invitation": invitation,
		"token":      rawToken,
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Invitation created", data, nil)
}

func (ctrl *rosterController) ListInvitations(c *gin.Context) {
	serviceID, ok := serviceIDParam(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	invitations, err := ctrl.service.ListInvitations(c.Request.Context(), serviceID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Invitations retrieved successfully", invitations, nil)
}

func (ctrl *rosterController) CancelInvitation(c *gin.Context) {
	serviceID, ok := serviceIDParam(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	invitationID, err := strconv.ParseUint(c.Param("invitationId"), 10, 64)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid invitation id", nil, nil)
		return
	}

	if err := ctrl.service.CancelInvitation(c.Request.Context(), serviceID, uint(invitationID)); err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrInvitationNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Invitation cancelled", nil, nil)
}

func (ctrl *rosterController) DeactivateMembership(c *gin.Context) {
	serviceID, ok := serviceIDParam(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}
	membershipID, err := strconv.ParseUint(c.Param("membershipId"), 10, 64)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid membership id", nil, nil)
		return
	}

	if err := ctrl.service.DeactivateMembership(c.Request.Context(), serviceID, uint(membershipID)); err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrUserNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Membership deactivated", nil, nil)
}
