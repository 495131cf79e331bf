package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusfind/lostfound/handlers"
	"github.com/campusfind/lostfound/middleware"
)

func UserRoutes(app *fiber.App, h *handlers.UserHandler) {
	api := app.Group("/api/v1")

	users := api.Group("/users", middleware.Protected())
	users.Get("/:id", h.Get)
}
