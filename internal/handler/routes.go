package handler

import (
	"time"

	"dealership-backend/internal/middleware"
	"dealership-backend/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes bundles every handler mounted on the app.
type Routes struct {
	Verifier  middleware.IdentityVerifier
	Limiter   fiber.Storage
	Health    *HealthHandler
	Admin     *AdminHandler
	Auth      *AuthHandler
	Chat      *ChatHandler
	Vehicles  *VehicleHandler
	Personnel *PersonnelHandler
	WS        *WSHandler
}

func (r *Routes) Mount(app *fiber.App) {
	app.Get("/health", r.Health.Health)
	app.Get("/ready", r.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Public
	api.Post("/register", middleware.RateLimit(5, time.Minute, r.Limiter), r.Auth.Register)
	api.Post("/login", middleware.RateLimit(10, time.Minute, r.Limiter), r.Auth.Login)
	api.Get("/vehicles", r.Vehicles.List)
	api.Get("/vehicles/:id", r.Vehicles.Get)

	auth := middleware.Auth(r.Verifier)
	admin := middleware.RequireRole(model.RoleAdmin)
	user := middleware.RequireRole(model.RoleUser)

	api.Get("/admin-user", auth, r.Auth.AdminUser)
	api.Get("/admin/stats", auth, admin, r.Admin.Stats)

	// Chat
	api.Get("/conversations", auth, admin, r.Chat.Conversations)
	api.Get("/user-conversations", auth, user, r.Chat.Conversations)
	api.Get("/notifications/unread-count", auth, admin, r.Chat.UnreadCount)
	api.Get("/user-notifications/unread-count", auth, user, r.Chat.UnreadCount)
	api.Delete("/messages/:id", auth, r.Chat.DeleteMessage)
	api.Delete("/conversations/:key", auth, admin, r.Chat.DeleteConversation)
	api.Delete("/user/conversations/:key", auth, user, r.Chat.DeleteConversation)

	// Vehicles (admin)
	api.Post("/vehicles", auth, admin, r.Vehicles.Create)
	api.Put("/vehicles/:id", auth, admin, r.Vehicles.Update)
	api.Delete("/vehicles/:id", auth, admin, r.Vehicles.Delete)

	// Personnel (admin)
	staff := api.Group("/personnel", auth, admin)
	staff.Get("/", r.Personnel.List)
	staff.Get("/:id", r.Personnel.Get)
	staff.Post("/", r.Personnel.Create)
	staff.Put("/:id", r.Personnel.Update)
	staff.Delete("/:id", r.Personnel.Delete)

	// WebSocket
	app.Get("/ws", r.WS.Upgrade)
}
