package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theletterjeff/gin-rummy-scoresheet/middleware"
	"github.com/theletterjeff/gin-rummy-scoresheet/services"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService, gameService *services.GameService) {
	app.Get("/matches", matchService.GetAllMatches)
	app.Get("/matches/:id", matchService.GetMatchByID)
	app.Get("/matches/:id/games", gameService.GetGamesByMatch)
	app.Get("/games/:id", gameService.GetGameByID)

	userCtx := middleware.UserContextMiddleware()

	app.Post("/matches", userCtx, matchService.CreateMatch)
	app.Delete("/matches/:id", userCtx, matchService.DeleteMatch)
	app.Post("/matches/:id/players", userCtx, matchService.AddPlayer)

	// game entry drives the scoring engine
	app.Post("/matches/:id/games", userCtx, gameService.CreateGame)
	app.Put("/games/:id", userCtx, gameService.UpdateGame)
	app.Patch("/games/:id", userCtx, gameService.UpdateGame)
	app.Delete("/games/:id", userCtx, gameService.DeleteGame)
}
