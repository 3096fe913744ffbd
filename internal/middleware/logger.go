package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Logger only logs slow (>500ms) or failed (status >= 400) requests.
func Logger(log zerolog.Logger) fiber.Handler {
	return loggerWithThreshold(log, 500*time.Millisecond)
}

func loggerWithThreshold(log zerolog.Logger, slow time.Duration) fiber.Handler {
	log = log.With().Str("component", "http").Logger()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		if status < 400 && latency < slow {
			return err
		}

		ev := log.Info()
		if status >= 500 {
			ev = log.Error().Err(err)
		} else if status >= 400 {
			ev = log.Warn()
		}
		ev.Int("status", status).
			Dur("latency", latency).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Msg("request")
		return err
	}
}
