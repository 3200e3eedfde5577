package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"anchorpoint/internal/shared/middleware"
	"anchorpoint/internal/shared/utils/response"
	"anchorpoint/internal/trips"
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

func partyIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("partyId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func guestIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("guestId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func scopeParams(ctx *gin.Context) (serviceID, tripID uint, ok bool) {
	serviceID, ok = middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return 0, 0, false
	}
	tripID, ok = tripIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip id", nil, nil)
		return 0, 0, false
	}
	return serviceID, tripID, true
}

func (c *Controller) CreateParty(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}

	var req trips.InitialPartyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	created, err := c.service.CreateParty(ctx.Request.Context(), serviceID, tripID, &req)
	if err != nil {
		switch {
		case errors.Is(err, trips.ErrTripNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
		case errors.Is(err, ErrGuestEmailMissing):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create party", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Party created successfully", created, nil)
}

func (c *Controller) ListParties(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}

	parties, err := c.service.ListParties(ctx.Request.Context(), serviceID, tripID)
	if err != nil {
		if errors.Is(err, trips.ErrTripNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list parties", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Parties retrieved successfully", parties, nil)
}

func (c *Controller) GetParty(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}
	partyID, ok := partyIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid party id", nil, nil)
		return
	}

	party, err := c.service.GetParty(ctx.Request.Context(), serviceID, tripID, partyID)
	if err != nil {
		c.respondPartyError(ctx, err, "Failed to get party")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Party retrieved successfully", party, nil)
}

func (c *Controller) UpdateParty(ctx *gin.Context) {
	serviceID, tripID, ok := scopeParams(ctx)
	if !ok {
		return
	}
	partyID, ok := partyIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid party id", nil, nil)
		return
	}

	var req UpdatePartyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	party, err := c.service.UpdateParty(ctx.Request.Context(), serviceID, tripID, partyID, &req)
	if err != nil {
		if errors.Is(err, ErrPartySizeTooSmall) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
			return
		}
		c.respondPartyError(ctx, err, "Failed to update party")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Party updated successfully", party, nil)
}

func (c *Controller) respondPartyError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, trips.ErrTripNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Trip not found", nil, nil)
	case errors.Is(err, ErrPartyNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Party not found", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, fallback, nil, nil)
	}
}

func (c *Controller) ListGuests(ctx *gin.Context) {
	guests, err := c.service.ListGuests(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list guests", nil, nil)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Guests retrieved successfully", guests, nil)
}

func (c *Controller) GetGuest(ctx *gin.Context) {
	guestID, ok := guestIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid guest id", nil, nil)
		return
	}

	detail, err := c.service.GetGuest(ctx.Request.Context(), guestID)
	if err != nil {
		if errors.Is(err, ErrGuestNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Guest not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get guest", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guest retrieved successfully", detail, nil)
}

// IssueGuestLink mints a portal magic link. The raw token is only present
// in this response.
func (c *Controller) IssueGuestLink(ctx *gin.Context) {
	serviceID, ok := middleware.ServiceIDParam(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
		return
	}

	var req GuestLinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	link, err := c.service.IssueGuestLink(ctx.Request.Context(), serviceID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGuestNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Guest not found", nil, nil)
		case errors.Is(err, ErrPartyNotFound), errors.Is(err, trips.ErrTripNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Party not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to issue guest link", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Guest link issued successfully", link, nil)
}

// PortalSession resolves a token to the guest's portal view. Token-based;
// no session auth.
func (c *Controller) PortalSession(ctx *gin.Context) {
	session, err := c.service.ResolvePortalSession(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid or expired token", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to resolve portal session", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Portal session resolved successfully", session, nil)
}

func (c *Controller) UpdateGuestProfile(ctx *gin.Context) {
	var req GuestSelfUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	guest, err := c.service.UpdateGuestViaToken(ctx.Request.Context(), ctx.Param("token"), &req)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid or expired token", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update guest profile", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Guest profile updated successfully", guest, nil)
}
