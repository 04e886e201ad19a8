// handlers/gamification_routes.go
package handlers

import (
	"github.com/marlonyi/senas-web/middleware"
	"github.com/marlonyi/senas-web/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGamificationRoutes(app *fiber.App, gamificationService *services.GamificationService) {
	// 🔓 Public catalog reads
	app.Get("/levels", gamificationService.GetLevels)
	app.Get("/badges", gamificationService.GetBadges)
	app.Get("/gamification/leaderboard", gamificationService.GetLeaderboard)

	// 🔐 My-account routes
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/me/points", gamificationService.GetMyPoints)
	secured.Get("/me/badges", gamificationService.GetMyBadges)
	secured.Post("/session/login", gamificationService.RecordLogin)

	// 🔐 Catalog administration
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	admin.Post("/levels", gamificationService.CreateLevel)
	admin.Put("/levels/:id", gamificationService.UpdateLevel)
	admin.Delete("/levels/:id", gamificationService.DeleteLevel)

	admin.Post("/badges", gamificationService.CreateBadge)
	admin.Put("/badges/:id", gamificationService.UpdateBadge)
	admin.Delete("/badges/:id", gamificationService.DeleteBadge)

	admin.Post("/leaderboard/refresh", gamificationService.RefreshLeaderboardNow)
}
