package users

import (
	"github.com/gin-gonic/gin"
)

// SetupUserRoutes registers the current-user account endpoints. The auth
// middleware is injected by the central router so this package does not
// depend on it.
func SetupUserRoutes(router *gin.RouterGroup, controller Controller, authRequired gin.HandlerFunc) {
	me := router.Group("/users/me")
	me.Use(authRequired)
	{
		me.GET("", controller.GetMe)                          // GET /api/v1/users/me
		me.PATCH("", controller.UpdateMe)                     // PATCH /api/v1/users/me
		me.GET("/memberships", controller.GetMyMemberships)   // GET /api/v1/users/me/memberships
		me.POST("/invitations/accept", controller.AcceptInvitation) // POST /api/v1/users/me/invitations/accept
	}
}

// SetupRosterRoutes registers invitation and membership management under a
// service scope. The management guard is injected by the central router.
func SetupRosterRoutes(router *gin.RouterGroup, controller RosterController, authRequired, management gin.HandlerFunc) {
	scoped := router.Group("/services/:serviceId")
	scoped.Use(authRequired, management)
	{
		scoped.POST("/invitations", controller.Invite)
		scoped.GET("/invitations", controller.ListInvitations)
		scoped.DELETE("/invitations/:invitationId", controller.CancelInvitation)
		scoped.DELETE("/memberships/:membershipId", controller.DeactivateMembership)
	}
}
