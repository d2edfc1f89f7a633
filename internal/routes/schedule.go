package routes

import (
	"github.com/labstack/echo/v4"

	"pool-service/internal/controllers"
)

func runScheduleRouter(g *echo.Group, ctrl *controllers.ScheduleController) {
	g.POST("/schedule/assignments", ctrl.CreateAssignment)
	g.GET("/schedule/assignments", ctrl.GetAssignments)
	g.DELETE("/schedule/assignments/:id", ctrl.DeleteAssignment)
	g.PUT("/schedule/assignments/:id/disable", ctrl.DisableAssignment)
	g.PUT("/schedule/assignments/reorder", ctrl.ReorderAssignments)
	g.GET("/schedule/available-clients", ctrl.GetAvailableClients)
}
