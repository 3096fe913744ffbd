package handler

import (
	"dealership-backend/internal/model"
	"dealership-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type PersonnelHandler struct {
	svc *service.PersonnelService
	log zerolog.Logger
}

func NewPersonnelHandler(svc *service.PersonnelService, log zerolog.Logger) *PersonnelHandler {
	return &PersonnelHandler{svc: svc, log: log}
}

func (h *PersonnelHandler) List(c *fiber.Ctx) error {
	staff, err := h.svc.List(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(staff)
}

func (h *PersonnelHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid personnel id"})
	}
	p, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *PersonnelHandler) Create(c *fiber.Ctx) error {
	var req model.PersonnelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	p, err := h.svc.Create(c.Context(), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(201).JSON(p)
}

func (h *PersonnelHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid personnel id"})
	}
	var req model.PersonnelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	p, err := h.svc.Update(c.Context(), id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *PersonnelHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid personnel id"})
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
