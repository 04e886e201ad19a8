// handlers/user_routes.go
package handlers

import (
	"github.com/marlonyi/senas-web/middleware"
	"github.com/marlonyi/senas-web/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	// 🔓 Lesson accessibility metadata is a public read
	app.Get("/lessons/:id/accessibility", userService.GetLessonAccessibility)

	// 🔐 My profile / preferences
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/me/profile", userService.GetMyProfile)
	secured.Put("/me/profile", userService.UpdateMyProfile)
	secured.Get("/me/accessibility", userService.GetMyAccessibility)
	secured.Put("/me/accessibility", userService.UpdateMyAccessibility)

	// 🔐 Lesson accessibility writes — admin only
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	admin.Put("/lessons/:id/accessibility", userService.UpsertLessonAccessibility)
}
