package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/api/handlers"
	redisCache "github.com/inferwatch/backend/internal/cache/redis"
	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/internal/drift/evidently"
	"github.com/inferwatch/backend/internal/features"
	"github.com/inferwatch/backend/internal/inference/detection"
	"github.com/inferwatch/backend/internal/inference/vqa"
	"github.com/inferwatch/backend/internal/metrics"
	"github.com/inferwatch/backend/internal/middleware/ratelimit"
	"github.com/inferwatch/backend/internal/storage/sqlite"
	"github.com/inferwatch/backend/pkg/config"
	appLogger "github.com/inferwatch/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting InferWatch API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var snapshotCache handlers.SnapshotCache
	if cfg.Redis.Enabled {
		redisClient, err := redisCache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, snapshot mirroring disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			snapshotCache = redisClient
		}
	}

	comparer := evidently.NewClient(
		cfg.Evidently.BaseURL,
		time.Duration(cfg.Evidently.TimeoutSec)*time.Second,
	)

	detectionClient := detection.NewClient(
		cfg.Upstream.Detection.BaseURL,
		cfg.Upstream.Detection.ConfThreshold,
		time.Duration(cfg.Upstream.Detection.TimeoutSec)*time.Second,
	)
	vqaClient := vqa.NewClient(
		cfg.Upstream.VQA.BaseURL,
		cfg.Upstream.VQA.MaxLength,
		cfg.Upstream.VQA.NumBeams,
		time.Duration(cfg.Upstream.VQA.TimeoutSec)*time.Second,
	)

	detectionMonitor := drift.NewMonitor[features.DetectionFeatures](
		handlers.DomainDetection,
		features.DetectionSchema,
		comparer,
		drift.Config{
			ReferenceSize:  cfg.Detection.ReferenceSize,
			DetectionSize:  cfg.Detection.DetectionSize,
			DriftThreshold: cfg.Detection.DriftThreshold,
		},
	)
	vqaMonitor := drift.NewMonitor[features.VQAFeatures](
		handlers.DomainVQA,
		features.VQASchema,
		comparer,
		drift.Config{
			ReferenceSize:  cfg.VQA.ReferenceSize,
			DetectionSize:  cfg.VQA.DetectionSize,
			DriftThreshold: cfg.VQA.DriftThreshold,
		},
	)

	detectionMeter := drift.NewMeter()
	vqaMeter := drift.NewMeter()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			RequestsPerWindow: cfg.RateLimit.MaxRequestsPerMinute,
			WindowDuration:    time.Minute,
		})
		defer limiter.Stop()
		app.Use(limiter.Middleware())
	}

	detectionHandler := handlers.NewDetectionHandler(detectionClient, detectionMonitor, detectionMeter, sqliteClient, snapshotCache)
	vqaHandler := handlers.NewVQAHandler(vqaClient, vqaMonitor, vqaMeter, sqliteClient, snapshotCache)

	detectionMonitoring := handlers.NewMonitoringHandler(handlers.DomainDetection, detectionMonitor, detectionMeter, sqliteClient)
	vqaMonitoring := handlers.NewMonitoringHandler(handlers.DomainVQA, vqaMonitor, vqaMeter, sqliteClient)

	streamHandler := handlers.NewDriftStreamHandler(map[string]drift.Service{
		handlers.DomainDetection: detectionMonitor,
		handlers.DomainVQA:       vqaMonitor,
	})

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	det := api.Group("/detection")
	det.Post("/infer", detectionHandler.HandleInfer)
	det.Get("/drift/status", detectionMonitoring.DriftStatus)
	det.Get("/drift/summary", detectionMonitoring.DriftSummary)
	det.Post("/drift/reset-reference", detectionMonitoring.ResetReference)
	det.Get("/data-quality", detectionMonitoring.DataQuality)
	det.Get("/history", detectionMonitoring.History)
	det.Get("/model/info", detectionHandler.ModelInfo)
	det.Get("/health", detectionHandler.Health)

	vq := api.Group("/vqa")
	vq.Post("/infer", vqaHandler.HandleInfer)
	vq.Get("/drift/status", vqaMonitoring.DriftStatus)
	vq.Get("/drift/summary", vqaMonitoring.DriftSummary)
	vq.Post("/drift/reset-reference", vqaMonitoring.ResetReference)
	vq.Get("/data-quality", vqaMonitoring.DataQuality)
	vq.Get("/history", vqaMonitoring.History)
	vq.Get("/model/info", vqaHandler.ModelInfo)
	vq.Get("/health", vqaHandler.Health)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/drift/:domain", websocket.New(streamHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
