package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusfind/lostfound/handlers"
	"github.com/campusfind/lostfound/middleware"
)

func MessageRoutes(app *fiber.App, h *handlers.MessageHandler) {
	api := app.Group("/api/v1")

	messages := api.Group("/messages", middleware.Protected())
	messages.Post("", h.Send)
	messages.Get("", h.List)
	messages.Put("/mark-as-read", h.MarkRead)
	messages.Put("/:id/status", h.UpdateStatus)
	messages.Delete("/:id", middleware.AdminRequired(), h.Delete)
}
