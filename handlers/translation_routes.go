// handlers/translation_routes.go
package handlers

import (
	"github.com/marlonyi/senas-web/middleware"
	"github.com/marlonyi/senas-web/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTranslationRoutes(app *fiber.App, translationService *services.TranslationService) {
	// 🔓 Public glossary reads
	app.Get("/signs", translationService.GetSigns)
	app.Get("/signs/:id", translationService.GetSignByID)
	app.Get("/sign-categories", translationService.GetSignCategories)

	// 🔐 Glossary writes — admin only
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	admin.Post("/sign-categories", translationService.CreateSignCategory)
	admin.Put("/sign-categories/:id", translationService.UpdateSignCategory)
	admin.Delete("/sign-categories/:id", translationService.DeleteSignCategory)

	admin.Post("/signs", translationService.CreateSign)
	admin.Put("/signs/:id", translationService.UpdateSign)
	admin.Delete("/signs/:id", translationService.DeleteSign)
}
