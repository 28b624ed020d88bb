package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theletterjeff/gin-rummy-scoresheet/middleware"
	"github.com/theletterjeff/gin-rummy-scoresheet/services"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService) {
	app.Get("/players", playerService.GetAllPlayers)
	app.Get("/players/:username", playerService.GetPlayerByUsername)

	// mutations need the gateway's user context
	userCtx := middleware.UserContextMiddleware()
	app.Post("/players", userCtx, playerService.CreatePlayer)
	app.Put("/players/:username", userCtx, playerService.UpdatePlayer)
	app.Patch("/players/:username", userCtx, playerService.UpdatePlayer)
}
