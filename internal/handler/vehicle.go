package handler

import (
	"dealership-backend/internal/middleware"
	"dealership-backend/internal/model"
	"dealership-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type VehicleHandler struct {
	svc *service.VehicleService
	log zerolog.Logger
}

func NewVehicleHandler(svc *service.VehicleService, log zerolog.Logger) *VehicleHandler {
	return &VehicleHandler{svc: svc, log: log}
}

func (h *VehicleHandler) List(c *fiber.Ctx) error {
	vehicles, err := h.svc.List(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(vehicles)
}

func (h *VehicleHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid vehicle id"})
	}
	v, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(v)
}

func (h *VehicleHandler) Create(c *fiber.Ctx) error {
	var req model.VehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	admin, _ := middleware.IdentityFrom(c)
	v, err := h.svc.Create(c.Context(), &req, admin.SubjectID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(201).JSON(v)
}

func (h *VehicleHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid vehicle id"})
	}
	var req model.VehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	v, err := h.svc.Update(c.Context(), id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(v)
}

// Delete removes a listing and its conversations.
func (h *VehicleHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid vehicle id"})
	}
	if err := h.svc.Delete(c.Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
