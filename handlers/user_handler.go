package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusfind/lostfound/store"
)

type UserHandler struct {
	store store.MessageStore
}

func NewUserHandler(s store.MessageStore) *UserHandler {
	return &UserHandler{store: s}
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	user, err := h.store.User(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	return c.JSON(user)
}
