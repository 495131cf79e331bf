package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusfind/lostfound/models"
	"github.com/campusfind/lostfound/store"
)

var validate = validator.New()

type MessageHandler struct {
	store store.MessageStore
}

func NewMessageHandler(s store.MessageStore) *MessageHandler {
	return &MessageHandler{store: s}
}

type sendMessageRequest struct {
	SenderID       string `json:"senderId" validate:"required,uuid"`
	SenderName     string `json:"senderName"`
	SenderEmail    string `json:"senderEmail" validate:"omitempty,email"`
	RecipientID    string `json:"recipientId" validate:"required,uuid"`
	RecipientName  string `json:"recipientName"`
	RecipientEmail string `json:"recipientEmail" validate:"omitempty,email"`
	Subject        string `json:"subject"`
	Content        string `json:"content" validate:"required"`
}

// Send handles POST /api/v1/messages.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	senderID, _ := uuid.Parse(req.SenderID)
	recipientID, _ := uuid.Parse(req.RecipientID)

	msg, err := h.store.Send(c.Context(), store.SendInput{
		SenderID:       senderID,
		SenderName:     req.SenderName,
		SenderEmail:    req.SenderEmail,
		RecipientID:    recipientID,
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		Content:        req.Content,
	})
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": vErr.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// List handles GET /api/v1/messages?userId=U[&chatWith=C].
func (h *MessageHandler) List(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing userId"})
	}

	chatWith := uuid.Nil
	if raw := c.Query("chatWith"); raw != "" {
		chatWith, err = uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chatWith"})
		}
	}

	msgs, err := h.store.Messages(c.Context(), userID, chatWith)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	return c.JSON(msgs)
}

type markReadRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	ChatWith string `json:"chatWith" validate:"required,uuid"`
}

// MarkRead handles PUT /api/v1/messages/mark-as-read.
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	var req markReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, _ := uuid.Parse(req.UserID)
	chatWith, _ := uuid.Parse(req.ChatWith)

	updated, err := h.store.MarkRead(c.Context(), userID, chatWith)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark messages as read"})
	}

	return c.JSON(fiber.Map{"updated": updated})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PUT /api/v1/messages/:id/status.
func (h *MessageHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	msg, err := h.store.UpdateStatus(c.Context(), id, req.Status)
	switch {
	case errors.Is(err, store.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	case errors.Is(err, store.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status transition"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update status"})
	}

	return c.JSON(msg)
}

// Delete handles DELETE /api/v1/messages/:id. Admin moderation only, enforced
// at the route.
func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	if err := h.store.Delete(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete message"})
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}
