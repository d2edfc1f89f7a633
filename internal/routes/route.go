package routes

import (
	"github.com/labstack/echo/v4"

	"pool-service/internal/controllers"
)

func runRouteRouter(g *echo.Group, routeCtrl *controllers.RouteController, stopCtrl *controllers.StopController) {
	g.POST("/routes/generate", routeCtrl.GenerateRoutes)
	g.GET("/routes/today", routeCtrl.GetTodaysRoute)
	g.GET("/routes/date/:date", routeCtrl.GetRouteForDate)
	g.GET("/routes/history", routeCtrl.GetHistory)
	g.PUT("/routes/:id/notes", routeCtrl.UpdateNotes)
	g.PUT("/routes/:id/stops/reorder", routeCtrl.ReorderStops)

	g.POST("/stops/:id/start", stopCtrl.StartStop)
	g.POST("/stops/:id/complete", stopCtrl.CompleteStop)
	g.POST("/stops/:id/skip", stopCtrl.SkipStop)
}
