package reports

import "github.com/gin-gonic/gin"

// SetupReportRoutes mounts trip report CRUD under the trip scope. Any staff
// member can read; the service layer restricts writes to assigned guides
// and management.
func SetupReportRoutes(router *gin.RouterGroup, controller *Controller, authRequired, staff gin.HandlerFunc) {
	reports := router.Group("/services/:serviceId/trips/:tripId/reports")
	reports.Use(authRequired, staff)
	{
		reports.POST("", controller.CreateReport)
		reports.GET("", controller.ListReports)
		reports.GET("/:reportId", controller.GetReport)
		reports.PATCH("/:reportId", controller.UpdateReport)
		reports.DELETE("/:reportId", controller.DeleteReport)
	}
}
