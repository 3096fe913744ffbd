package handler

import (
	"errors"
	"strconv"

	"dealership-backend/internal/model"
	"dealership-backend/internal/repository"
	"dealership-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// respondError maps service and repository errors to HTTP responses.
// Unknown errors are logged and reported as 500 without detail.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, service.ErrUserExists):
		return c.Status(409).JSON(fiber.Map{"error": "already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	case errors.Is(err, model.ErrInvalidIdentity),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidVehicle),
		errors.Is(err, service.ErrInvalidPersonnel):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNoAdmin):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
	}
}

func paramID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}
