package main

import (
	"context"
	"io"
	"os"
	"time"

	"dealership-backend/internal/cluster"
	"dealership-backend/internal/config"
	"dealership-backend/internal/database"
	"dealership-backend/internal/discord"
	"dealership-backend/internal/handler"
	"dealership-backend/internal/middleware"
	"dealership-backend/internal/repository"
	"dealership-backend/internal/service"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := newLogger(cfg, os.Stderr)

	ctx := context.Background()

	// Database
	db, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := database.RunMigrations(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	// Repositories
	users := repository.NewUserRepository(db)
	vehicles := repository.NewVehicleRepository(db)
	personnel := repository.NewPersonnelRepository(db)

	var store repository.MessageStore
	switch cfg.ChatStore {
	case "sqlite":
		sqliteStore, err := repository.NewSQLiteMessageStore(ctx, cfg.ChatSQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ChatSQLitePath).Msg("open sqlite chat store")
		}
		store = sqliteStore
	default:
		store = repository.NewMessageRepository(db)
	}
	log.Info().Str("backend", cfg.ChatStore).Msg("chat store ready")

	// Realtime core
	hub := service.NewWSHub(log)

	bot, err := discord.NewBot(cfg.DiscordBotToken, cfg.DiscordChannelID,
		discord.NewCommandHandler(hub, store), log)
	if err != nil {
		log.Fatal().Err(err).Msg("create discord bot")
	}
	var alerter service.AdminAlerter
	if bot != nil {
		alerter = bot
	}

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(users, tokens)
	notifier := service.NewNotifier(hub, alerter, log)
	guard := service.NewAccessGuard(log)
	chatSvc := service.NewChatService(store, hub, guard, notifier, authSvc, log)
	convSvc := service.NewConversationService(store, users, vehicles, notifier)
	vehicleSvc := service.NewVehicleService(vehicles, convSvc)
	personnelSvc := service.NewPersonnelService(personnel)

	sweeper, err := service.NewRetentionSweeper(store, notifier, service.RetentionConfig{
		Horizon:  cfg.RetentionHorizon,
		Schedule: cfg.RetentionSchedule,
		TimeZone: cfg.RetentionTZ,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create retention sweeper")
	}

	var relay *cluster.Relay
	if cfg.NATSURL != "" {
		relay, err = cluster.Connect(cfg.NATSURL, cfg.NATSSubject, hub, log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect relay")
		}
		hub.SetRelay(relay)
	}

	// Rate limiter storage is shared across instances when Redis is configured.
	var limiterStorage fiber.Storage
	if cfg.RedisAddr != "" {
		limiterStorage, err = middleware.NewRedisStorage(cfg.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limits")
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "dealership-backend",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger(log))
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(middleware.Metrics())

	routes := &handler.Routes{
		Verifier:  authSvc,
		Limiter:   limiterStorage,
		Health:    handler.NewHealthHandler(map[string]handler.Pinger{"postgres": db, "chat_store": store}),
		Admin:     handler.NewAdminHandler(hub, convSvc, log),
		Auth:      handler.NewAuthHandler(authSvc, log),
		Chat:      handler.NewChatHandler(convSvc, log),
		Vehicles:  handler.NewVehicleHandler(vehicleSvc, log),
		Personnel: handler.NewPersonnelHandler(personnelSvc, log),
		WS:        handler.NewWSHandler(chatSvc, authSvc, log),
	}
	routes.Mount(app)

	sweeper.Start()
	if err := bot.Start(); err != nil {
		log.Error().Err(err).Msg("start discord bot")
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("dealership backend running")

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			err := app.ShutdownWithContext(ctx)
			hub.Shutdown()
			return err
		},
		"retention": func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		},
		"relay": func(context.Context) error {
			if relay == nil {
				return nil
			}
			return relay.Close()
		},
		"discord": func(context.Context) error {
			bot.Stop()
			return nil
		},
	})

	code := <-wait
	store.Close()
	db.Close()
	log.Info().Int("code", code).Msg("server stopped")
	os.Exit(code)
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}).
			With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Str("service", "dealership-backend").Logger()
}
