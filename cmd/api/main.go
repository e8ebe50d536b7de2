package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"doclib/docs"
	"doclib/internal/cache"
	"doclib/internal/config"
	"doclib/internal/database"
	"doclib/internal/database/migration"
	handlers "doclib/internal/http/handler"
	"doclib/internal/http/middleware"
	"doclib/internal/logger"
	"doclib/internal/metrics"
	"doclib/internal/otel"
	"doclib/internal/preview"
	"doclib/internal/repository"
	"doclib/internal/repository/memory"
	"doclib/internal/repository/postgres"
	"doclib/internal/service"
	"doclib/internal/storage"
)

// @title Document Library API
// @version 1.0
// @description Stores PDFs with searchable metadata and tags.
// @BasePath /
func main() {
	// Load configuration from CONFIG_FILE and the environment (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Location(), slog.LevelInfo)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		fatal(log, "failed to initialize tracing", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	repo, pinger, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		fatal(log, "failed to initialize relational store", err)
	}
	defer closeRepo()

	blobs, err := openBlobStore(cfg)
	if err != nil {
		fatal(log, "failed to initialize blob store", err)
	}

	var docCache cache.DocumentCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedis(cfg.Redis)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			// the service treats cache failures as misses, so keep going
			log.Warn("redis unavailable, metadata cache degraded", "addr", cfg.Redis.Addr, "error", err.Error())
		}
		docCache = rc
	}

	domainMetrics, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(log, "failed to register metrics", err)
	}

	renderer := preview.NewPDFRenderer(preview.NewPoppler(cfg.Preview, log), log)
	docSvc := service.NewDocumentService(blobs, repo,
		service.WithRenderer(renderer),
		service.WithCache(docCache),
		service.WithMetrics(domainMetrics),
		service.WithLogger(log),
		service.WithUploadWorkers(cfg.Upload.Workers),
	)

	if err := os.MkdirAll(cfg.Blob.StagingDir, 0o750); err != nil {
		fatal(log, "failed to create staging directory", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.Upload.BodyLimitMB * 1024 * 1024,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(log, "failed to register http metrics", err)
	}

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, pinger, docSvc, handlers.RouteConfig{
		StagingDir:       cfg.Blob.StagingDir,
		UploadMiddleware: []fiber.Handler{middleware.NewRateLimiter(cfg.Upload.RateLimitRPS, cfg.Upload.RateLimitBurst).Handler()},
		Gatherer:         prometheus.DefaultGatherer,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("server shutdown failed", "error", err.Error())
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", "addr", addr, "db_backend", cfg.Database.Backend, "blob_backend", cfg.Blob.Backend)
	if err := app.Listen(addr); err != nil {
		fatal(log, "failed to start server", err)
	}
}

// openRepository returns the document repository, the health pinger backing /health and a close func.
func openRepository(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (repository.DocumentRepository, handlers.Pinger, func(), error) {
	if cfg.Database.Backend == "memory" {
		repo := memory.NewDocumentMemory()
		return repo, repo, func() {}, nil
	}

	// Initialize PostgreSQL connection (pooled, traced)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	mctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := migration.EnsureMigrated(mctx, db, log, cfg.Database.Host); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}

	return postgres.NewDocumentPostgres(db), db, func() { _ = db.Close() }, nil
}

func openBlobStore(cfg *config.AppConfig) (storage.BlobStore, error) {
	switch cfg.Blob.Backend {
	case "minio":
		return storage.NewMinIO(cfg.MinIO)
	case "memory":
		return storage.NewMemory(), nil
	default:
		return storage.NewFilesystem(cfg.Blob.Dir)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err.Error())
	os.Exit(1)
}
