package middleware

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis/v3"
)

// RateLimit limits requests per client IP. A nil storage keeps counters in
// process memory; pass shared storage when running several instances.
func RateLimit(max int, window time.Duration, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Route().Path + "|" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}

// NewRedisStorage connects limiter storage to Redis at host:port.
func NewRedisStorage(addr string) (storage fiber.Storage, err error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse redis port: %w", err)
	}

	// redis.New panics when the first ping fails.
	defer func() {
		if r := recover(); r != nil {
			storage, err = nil, fmt.Errorf("connect redis: %v", r)
		}
	}()
	return redis.New(redis.Config{Host: host, Port: port, PoolSize: 10}), nil
}
