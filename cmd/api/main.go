package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"go-label-ws/internal/config"
	"go-label-ws/internal/events"
	"go-label-ws/internal/handler"
	"go-label-ws/internal/label"
	"go-label-ws/internal/middleware"
	"go-label-ws/internal/model"
	"go-label-ws/internal/repository"
	"go-label-ws/internal/service"
	"go-label-ws/internal/ws"
	"go-label-ws/pkg/cache"
	"go-label-ws/pkg/database"
	"go-label-ws/pkg/jwt"
	applog "go-label-ws/pkg/logger"
)

func main() {
	// 1. Config and logging
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applog.Setup(cfg.LogLevel, cfg.LogFormat)
	jwt.Configure(cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// 3. WebSocket hub, relayed through Redis when configured
	wsHub := ws.NewHub()
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, live updates stay local to this instance")
		} else {
			defer rdb.Close()
			wsHub.UseRelay(ws.NewRedisRelay(rdb, ws.DefaultRelayChannel))
		}
	}
	go wsHub.Run(ctx)

	// 4. Domain events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := events.DialAMQP(cfg.RabbitMQURL, 10, 3*time.Second)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, domain events disabled")
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	stockRepo := repository.NewStockRepo(db)
	stockConfigRepo := repository.NewStockConfigRepo(db)
	historyRepo := repository.NewLabelHistoryRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)

	renderer := label.Renderer{
		Encoder: label.Encoder{BaseURL: cfg.PublicBaseURL},
		Brand:   label.Brand{Name: cfg.LabelBrandName, Tagline: cfg.LabelBrandTagline},
	}

	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, wsHub)
	stockService := service.NewStockService(stockRepo, stockConfigRepo, wsHub, publisher)
	labelService := service.NewLabelService(historyRepo, settingsRepo, stockRepo, renderer, wsHub, publisher)

	handlers := routes{
		auth:   handler.NewAuthHandler(authService),
		users:  handler.NewUserHandler(userService),
		stock:  handler.NewStockHandler(stockService),
		labels: handler.NewLabelHandler(labelService),
		public: handler.NewPublicHandler(labelService, cfg.AppName),
		ws:     handler.NewWSHandler(wsHub),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	handlers.register(app, middleware.RequireAuth(authService))

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

type routes struct {
	auth   *handler.AuthHandler
	users  *handler.UserHandler
	stock  *handler.StockHandler
	labels *handler.LabelHandler
	public *handler.PublicHandler
	ws     *handler.WSHandler
}

func (r routes) register(app *fiber.App, requireAuth fiber.Handler) {
	// QR links land here
	app.Get("/", r.public.Home)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", r.auth.Login)
	auth.Post("/register", r.auth.Register)
	auth.Post("/reset-password", r.auth.ResetPassword)
	auth.Get("/me", requireAuth, r.auth.Me)
	auth.Post("/logout", requireAuth, r.auth.Logout)

	api.Get("/public/labels/verify", r.public.Verify)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Labels
	protected.Get("/labels", r.labels.List)
	protected.Post("/labels", r.labels.Save)
	protected.Delete("/labels", r.labels.Clear)
	protected.Post("/labels/preview", r.labels.Preview)
	protected.Post("/labels/print", r.labels.Print)
	protected.Get("/labels/:id", r.labels.Get)
	protected.Get("/labels/:id/print", r.labels.Reprint)
	protected.Delete("/labels/:id", r.labels.Delete)

	protected.Get("/settings/label", r.labels.GetSettings)
	protected.Put("/settings/label", r.labels.UpdateSettings)

	// Stock; static paths before /:id
	protected.Get("/stock", r.stock.List)
	protected.Post("/stock", r.stock.Create)
	protected.Get("/stock/report", r.stock.Report)
	protected.Get("/stock/suggestions", r.stock.Suggestions)
	protected.Get("/stock/config", r.stock.Config)
	protected.Post("/stock/config/types", r.stock.AddType)
	protected.Post("/stock/config/frequencies", r.stock.AddFrequency)
	protected.Get("/stock/:id", r.stock.Get)
	protected.Put("/stock/:id", r.stock.Update)
	protected.Delete("/stock/:id", middleware.RequireRole(model.RoleAdmin), r.stock.Delete)
	protected.Post("/stock/:id/status", r.stock.UpdateStatus)
	protected.Get("/stock/:id/custody-report", r.stock.CustodyReport)

	// User management
	admin := protected.Group("/users", middleware.RequireRole(model.RoleAdmin))
	admin.Get("", r.users.GetUsers)
	admin.Post("", r.users.CreateUser)
	admin.Post("/:id/toggle-role", r.users.ToggleRole)
	admin.Delete("/:id", r.users.DeleteUser)

	// WebSocket Route
	app.Use("/ws", r.ws.Upgrade, requireAuth)
	app.Get("/ws", r.ws.Serve())
}
