package middleware

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dealership-backend/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenTable map[string]model.Identity

func (t tokenTable) VerifyAccessToken(token string) (model.Identity, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return model.Identity{}, errors.New("invalid token")
}

func newAuthApp() *fiber.App {
	tokens := tokenTable{
		"buyer": {SubjectID: 7, Role: model.RoleUser},
		"admin": {SubjectID: 1, Role: model.RoleAdmin},
	}
	app := fiber.New()
	api := app.Group("/api", Auth(tokens))
	api.Get("/me", func(c *fiber.Ctx) error {
		id, _ := IdentityFrom(c)
		return c.JSON(id)
	})
	api.Get("/admin", RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(204)
	})
	return app
}

func TestAuth(t *testing.T) {
	app := newAuthApp()
	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/api/me", "", 401},
		{"not bearer", "/api/me", "Token buyer", 401},
		{"unknown token", "/api/me", "Bearer nope", 401},
		{"valid", "/api/me", "Bearer buyer", 200},
		{"user on admin route", "/api/admin", "Bearer buyer", 403},
		{"admin on admin route", "/api/admin", "Bearer admin", 204},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error { return nil })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestLogger_OnlySlowOrFailed(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(loggerWithThreshold(zerolog.New(&buf), 50*time.Millisecond))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/slow", func(c *fiber.Ctx) error {
		time.Sleep(60 * time.Millisecond)
		return c.SendString("ok")
	})
	app.Get("/bad", func(c *fiber.Ctx) error { return c.Status(400).JSON(fiber.Map{"error": "bad"}) })

	_, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Zero(t, buf.Len())

	_, err = app.Test(httptest.NewRequest("GET", "/bad", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status":400`)
	buf.Reset()

	_, err = app.Test(httptest.NewRequest("GET", "/slow", nil), 2000)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"path":"/slow"`)
	buf.Reset()

	_, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Post("/login", RateLimit(2, time.Minute, nil), func(c *fiber.Ctx) error { return c.SendStatus(204) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
}

func TestNewRedisStorage_BadAddress(t *testing.T) {
	_, err := NewRedisStorage("localhost")
	assert.Error(t, err)
	_, err = NewRedisStorage("localhost:port")
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS("http://localhost:3000"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(204) })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "DELETE"))
}

func TestMetrics_PassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/vehicles/:id", func(c *fiber.Ctx) error { return c.SendStatus(200) })
	resp, err := app.Test(httptest.NewRequest("GET", "/vehicles/3", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
