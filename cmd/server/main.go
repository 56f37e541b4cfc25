package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rentradar/scraper-api/internal/browser"
	"github.com/rentradar/scraper-api/internal/client"
	"github.com/rentradar/scraper-api/internal/config"
	"github.com/rentradar/scraper-api/internal/handler"
	"github.com/rentradar/scraper-api/internal/logger"
	"github.com/rentradar/scraper-api/internal/middleware"
	"github.com/rentradar/scraper-api/internal/service"
	"github.com/rentradar/scraper-api/internal/storage"
	"github.com/rentradar/scraper-api/internal/store"
	"github.com/rentradar/scraper-api/internal/worker"
	ws "github.com/rentradar/scraper-api/internal/websocket"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Initialize(cfg.Server.LogLevel)

	// Redis backs both the job store and the task queue
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatalf("Redis not available: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	launcher := browser.NewLauncher(cfg.Browser)
	defer launcher.Close()

	// Persistence sink is optional; extraction results are always kept on
	// the job either way
	var sink storage.Sink
	if cfg.Postgres.DSN != "" {
		pgSink, err := storage.NewPostgresSink(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Warnf("Postgres sink not initialized: %v", err)
		} else {
			defer pgSink.Close()
			sink = pgSink
		}
	} else {
		logger.Info("Postgres sink not configured, records kept on jobs only")
	}

	// Snapshot archive is optional
	var archive client.StorageClient
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			logger.Warnf("R2 client not initialized: %v", err)
		} else {
			archive = r2Client
		}
	}

	retention := time.Duration(cfg.Scraper.RetentionHours) * time.Hour
	jobStore := store.NewRedisJobStore(redisClient, retention)
	scrapeService := service.NewScrapeService(jobStore, asynqClient, retention)
	scrapeHandler := handler.NewScrapeHandler(scrapeService, validate)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams}\n"
	}
	app.Use(fiberlogger.New(fiberlogger.Config{Format: logFormat}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":    redisClient.Ping(c.Context()).Err() == nil,
				"postgres": sink != nil,
				"archive":  archive != nil,
			},
		})
	})

	api := app.Group("/api", middleware.APIKeyAuth(cfg.Auth.APIKey))
	scrape := api.Group("/scrape")
	scrape.Post("/start", rateLimiter.ScrapeLimit(cfg.RateLimit.ScrapesPerHour), scrapeHandler.Start)
	scrape.Get("/status/:jobId", scrapeHandler.Status)
	scrape.Get("/results/:jobId", scrapeHandler.Results)
	scrape.Post("/cancel/:jobId", scrapeHandler.Cancel)
	scrape.Get("/jobs", scrapeHandler.List)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("jobId"))
	}))

	go startWorkerServer(cfg, scrapeService, launcher, sink, archive, hub)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Errorf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	logger.Infof("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	scrapeService *service.ScrapeService,
	launcher *browser.Launcher,
	sink storage.Sink,
	archive client.StorageClient,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug":
		asynqLogLevel = asynq.DebugLevel
	case "warn":
		asynqLogLevel = asynq.WarnLevel
	case "error":
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// One headless browser per job; keep job parallelism low and
			// let the batch runner fan out within a job.
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"scrape": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	scrapeWorker := worker.NewScrapeWorker(scrapeService, launcher, sink, archive, hub, cfg.Scraper)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeScrape, scrapeWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		logger.Errorf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
