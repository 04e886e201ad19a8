// handlers/community_routes.go
package handlers

import (
	"github.com/marlonyi/senas-web/middleware"
	"github.com/marlonyi/senas-web/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCommunityRoutes(app *fiber.App, communityService *services.CommunityService) {
	// 🔓 Public reads
	app.Get("/forums", communityService.GetForums)
	app.Get("/forums/:id", communityService.GetForumByID)
	app.Get("/forums/:id/comments", communityService.GetComments)

	// 🔐 Writes need user context (author rules enforced in the service)
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/forums", communityService.CreateForum)
	secured.Put("/forums/:id", communityService.UpdateForum)
	secured.Delete("/forums/:id", communityService.DeleteForum)

	secured.Post("/forums/:id/comments", communityService.CreateComment)
	secured.Put("/comments/:comment_id", communityService.UpdateComment)
	secured.Delete("/comments/:comment_id", communityService.DeleteComment)

	secured.Post("/comments/:comment_id/like", communityService.LikeComment)
	secured.Delete("/comments/:comment_id/like", communityService.UnlikeComment)
}
