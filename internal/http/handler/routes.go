package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doclib/internal/service"
)

// RouteConfig carries optional wiring for RegisterRoutes.
type RouteConfig struct {
	// StagingDir receives multipart parts before they are handed to the service.
	StagingDir string
	// UploadMiddleware runs in front of POST /pdfs only (rate limiting).
	UploadMiddleware []fiber.Handler
	// Gatherer backs /metrics. Nil skips the route.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db Pinger, docSvc service.DocumentService, cfg RouteConfig) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	pdfs := app.Group("/pdfs")
	pdfs.Get("/", ListDocuments(docSvc))
	// static segments before /:id
	pdfs.Get("/search", SearchDocuments(docSvc))
	pdfs.Get("/metadata/:id", GetMetadata(docSvc))
	pdfs.Get("/:id", GetBlob(docSvc))
	pdfs.Patch("/:id", UpdateDocument(docSvc))
	pdfs.Delete("/:id", DeleteDocument(docSvc))

	upload := append(append([]fiber.Handler{}, cfg.UploadMiddleware...), UploadDocuments(docSvc, cfg.StagingDir))
	pdfs.Post("/", upload...)
}
