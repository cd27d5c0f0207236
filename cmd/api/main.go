package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/config"
	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/handler"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/repository/postgres"
	"github.com/codepinky/ruptura/ruptura-backend/internal/repository/storage"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/codepinky/ruptura/ruptura-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid DATABASE_URL")
	}
	poolCfg.MaxConns = int32(cfg.DatabaseMaxConns)
	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Remote store and live sessions
	ledgerRepo := postgres.NewLedgerRepository(pool, log.Logger)
	hub := websocket.NewHub()

	sessions := ledger.NewSessionManager(ledgerRepo, log.Logger, ledger.SessionConfig{
		Sync: ledger.SyncConfig{
			InitialBackoff:    cfg.Sync.InitialBackoff,
			MaxBackoff:        cfg.Sync.MaxBackoff,
			MutationTimeout:   cfg.Sync.MutationTimeout,
			MutationQueueSize: cfg.Sync.MutationQueueSize,
		},
		IdleTTL: cfg.Session.IdleTTL,
	}, handler.ForwardChanges(hub))

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	reaper := ledger.NewReaper(sessions, log.Logger, ledger.DefaultReaperConfig())
	reaper.Start(reaperCtx)

	presetRepo, err := newPresetRepository(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize preset storage")
	}

	// Initialize services
	labels := service.NewTypeLabeler(cfg.Locale)
	budgetService := service.NewBudgetService(sessions)
	goalService := service.NewGoalService(sessions, sessions)
	projectionService := service.NewProjectionService(sessions)
	categoryService := service.NewCategoryService(sessions)
	reportService := service.NewReportService(sessions, labels)
	presetService := service.NewPresetService(presetRepo)
	searchService := service.NewSearchService(sessions)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	// WebSocket auth uses the token query parameter
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}

	// Initialize handlers
	handlers := handler.Handlers{
		Session:    handler.NewSessionHandler(sessions, hub),
		Entity:     handler.NewEntityHandler(sessions, sessions),
		Budget:     handler.NewBudgetHandler(budgetService),
		Goal:       handler.NewGoalHandler(goalService),
		Projection: handler.NewProjectionHandler(projectionService),
		Category:   handler.NewCategoryHandler(categoryService),
		Report:     handler.NewReportHandler(reportService, presetService),
		Search:     handler.NewSearchHandler(searchService),
		WebSocket:  handler.NewWebSocketHandler(hub, sessions, wsValidator, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": sessions.Count(),
			"clients":  hub.TotalClientCount(),
		})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	reaper.Stop()
	stopReaper()
	sessions.CloseAll()
	ledgerRepo.Close()
	rateLimiter.Stop()

	log.Info().Msg("Server exited")
}

// newPresetRepository picks the preset backend named by PRESET_STORAGE
func newPresetRepository(cfg *config.Config) (domain.PresetRepository, error) {
	if cfg.PresetStorage != config.PresetStorageS3 {
		log.Info().Msg("Using in-memory preset storage")
		return storage.NewMemoryPresetRepository(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := storage.NewS3PresetRepository(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.S3.Bucket).Msg("Using S3 preset storage")
	return repo, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("user_id", middleware.GetUserID(c)).
				Msg("request")

			return nil
		}
	}
}
