// handlers/progress_routes.go
package handlers

import (
	"github.com/marlonyi/senas-web/middleware"
	"github.com/marlonyi/senas-web/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressRoutes(app *fiber.App, progressService *services.ProgressService) {
	// 🔐 All progress routes need user context
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/activities/:id/attempt", progressService.SubmitAttempt)
	secured.Get("/me/progress", progressService.GetMyProgress)
	secured.Get("/me/progress/courses/:id", progressService.GetMyCourseProgress)
}
