package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsalter/lplate/internal/config"
	"github.com/jsalter/lplate/internal/scanner"
	"github.com/jsalter/lplate/internal/storage/sqlite"
	"github.com/jsalter/lplate/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(students *sqlite.StudentStorage, scans *sqlite.ScanStorage, pipeline *scanner.Pipeline, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(students, scans, pipeline, cfg, scanner.RealClock{}, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Student routes
		router.Post("/students", r.handler.CreateStudent)
		router.Get("/students/{id}", r.handler.GetStudent)
		router.Put("/students/{id}", r.handler.UpdateStudent)
		router.Post("/students/{id}/evaluate", r.handler.EvaluateStudent)
		router.Get("/students/{id}/totals", r.handler.GetStudentTotals)

		// Logbook scan routes
		router.Post("/students/{id}/scans", r.handler.SubmitScan)
		router.Get("/scans/{id}", r.handler.GetScanJob)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	return router
}
