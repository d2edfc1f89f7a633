package routes

import (
	"github.com/labstack/echo/v4"

	"pool-service/internal/controllers"
)

func runClientRouter(g *echo.Group, ctrl *controllers.ClientController) {
	g.GET("/clients", ctrl.GetClients)
	g.GET("/clients/:id", ctrl.FindClient)
	g.GET("/technicians", ctrl.GetTechnicians)
}
