package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theletterjeff/gin-rummy-scoresheet/middleware"
	"github.com/theletterjeff/gin-rummy-scoresheet/services"
)

func SetupStandingsRoutes(app *fiber.App, standingsService *services.StandingsService) {
	app.Get("/standings", standingsService.GetStandings)
	app.Get("/standings/:username", standingsService.GetStandingByUsername)

	app.Post("/admin/standings/refresh", middleware.UserContextMiddleware(), standingsService.RefreshStandings)
}
