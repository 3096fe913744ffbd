package handler

import (
	"dealership-backend/internal/middleware"
	"dealership-backend/internal/model"
	"dealership-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	hub   *service.WSHub
	convs *service.ConversationService
	log   zerolog.Logger
}

func NewAdminHandler(hub *service.WSHub, convs *service.ConversationService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{hub: hub, convs: convs, log: log}
}

// Stats GET /api/admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	id, _ := middleware.IdentityFrom(c)
	unread, err := h.convs.UnreadCount(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"connections_online": h.hub.OnlineCount(),
		"admin_connections":  h.hub.SubjectConnections(id.SubjectID, model.RoleAdmin),
		"unread_count":       unread,
	})
}
