// handlers/course_routes.go
package handlers

import (
	"github.com/marlonyi/senas-web/middleware"
	"github.com/marlonyi/senas-web/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCourseRoutes(app *fiber.App, courseService *services.CourseService) {
	// 🔓 Public catalog reads — no user context, still behind Gateway auth
	app.Get("/courses", courseService.GetAllCourses)
	app.Get("/courses/:id", courseService.GetCourseByID)
	app.Get("/categories", courseService.GetAllCategories)
	app.Get("/modules", courseService.GetModules)
	app.Get("/lessons", courseService.GetLessons)
	app.Get("/activities", courseService.GetActivities)

	// 🔐 Catalog writes — admin only
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	admin.Post("/courses", courseService.CreateCourse)
	admin.Put("/courses/:id", courseService.UpdateCourse)
	admin.Delete("/courses/:id", courseService.DeleteCourse)

	admin.Post("/categories", courseService.CreateCategory)
	admin.Put("/categories/:id", courseService.UpdateCategory)
	admin.Delete("/categories/:id", courseService.DeleteCategory)

	admin.Post("/modules", courseService.CreateModule)
	admin.Put("/modules/:id", courseService.UpdateModule)
	admin.Delete("/modules/:id", courseService.DeleteModule)

	admin.Post("/lessons", courseService.CreateLesson)
	admin.Put("/lessons/:id", courseService.UpdateLesson)
	admin.Delete("/lessons/:id", courseService.DeleteLesson)

	admin.Post("/activities", courseService.CreateActivity)
	admin.Put("/activities/:id", courseService.UpdateActivity)
	admin.Delete("/activities/:id", courseService.DeleteActivity)
}
