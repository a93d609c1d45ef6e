// Package handler exposes the gateway's HTTP surface: tenant-scoped
// bucket and file operations behind API-key auth, project
// administration behind a shared admin secret, and operational probes.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/project"
	"github.com/filecrate/filecrate/internal/reconcile"
	"github.com/filecrate/filecrate/pkg/health"
)

type Handler struct {
	projects    *project.Service
	buckets     *bucket.Service
	files       *file.Service
	engine      *reconcile.Engine
	adminSecret string
	readiness   health.Checks
	log         *slog.Logger
}

func New(
	projects *project.Service,
	buckets *bucket.Service,
	files *file.Service,
	engine *reconcile.Engine,
	adminSecret string,
	readiness health.Checks,
	log *slog.Logger,
) *Handler {
	return &Handler{
		projects:    projects,
		buckets:     buckets,
		files:       files,
		engine:      engine,
		adminSecret: adminSecret,
		readiness:   readiness,
		log:         log,
	}
}

// Routes assembles the full router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", health.LivenessHandler())
	r.Get("/ready", health.ReadinessHandler(h.readiness, health.WithLogger(h.log)))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.adminAuth)
		r.Post("/projects", h.createProject)
		r.Get("/projects", h.listProjects)
		r.Delete("/projects/{id}", h.deleteProject)
		r.Put("/projects/{id}/regenerate-key", h.regenerateKey)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.projectAuth)

		r.Post("/buckets", h.createBucket)
		r.Get("/buckets", h.listBuckets)
		r.Put("/buckets/{name}", h.renameBucket)
		r.Delete("/buckets/{name}", h.deleteBucket)

		r.Post("/upload/init", h.initUpload)
		r.Post("/upload/complete", h.completeUpload)
		r.Delete("/file", h.deleteFile)
		r.Post("/file/url", h.fileURL)
		r.Get("/file/status", h.fileStatus)

		r.Post("/sync", h.syncProject)
	})

	return r
}
