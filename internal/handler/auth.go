package handler

import (
	"dealership-backend/internal/model"
	"dealership-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authSvc *service.AuthService
	log     zerolog.Logger
}

func NewAuthHandler(authSvc *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name, email and password are required"})
	}

	user, err := h.authSvc.Register(c.Context(), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(201).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email and password are required"})
	}

	resp, err := h.authSvc.Login(c.Context(), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(resp)
}

// AdminUser returns the admin a buyer's conversation is addressed to.
// GET /api/admin-user
func (h *AuthHandler) AdminUser(c *fiber.Ctx) error {
	contact, err := h.authSvc.AdminContact(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(contact)
}
