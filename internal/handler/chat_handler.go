package handler

import (
	"dealership-backend/internal/middleware"
	"dealership-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ChatHandler serves the REST side of the chat: derived conversation lists,
// unread badges and deletes.
type ChatHandler struct {
	convs *service.ConversationService
	log   zerolog.Logger
}

func NewChatHandler(convs *service.ConversationService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{convs: convs, log: log}
}

// Conversations lists the caller's conversations, newest first.
// GET /api/conversations (admin), GET /api/user-conversations (user)
func (h *ChatHandler) Conversations(c *fiber.Ctx) error {
	id, _ := middleware.IdentityFrom(c)
	list, err := h.convs.List(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

// UnreadCount returns how many conversations hold unread messages for the caller.
// GET /api/notifications/unread-count (admin), GET /api/user-notifications/unread-count (user)
func (h *ChatHandler) UnreadCount(c *fiber.Ctx) error {
	id, _ := middleware.IdentityFrom(c)
	n, err := h.convs.UnreadCount(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"unread_count": n})
}

// DeleteMessage DELETE /api/messages/:id
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	msgID, ok := paramID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid message id"})
	}
	id, _ := middleware.IdentityFrom(c)
	if err := h.convs.DeleteMessage(c.Context(), id, msgID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// DeleteConversation removes every message of the conversation in :key.
// DELETE /api/conversations/:key (admin), DELETE /api/user/conversations/:key (user)
func (h *ChatHandler) DeleteConversation(c *fiber.Ctx) error {
	id, _ := middleware.IdentityFrom(c)
	if err := h.convs.DeleteConversation(c.Context(), id, c.Params("key")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
