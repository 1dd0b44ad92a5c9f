package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/straye-as/finance-api/docs" // Import generated swagger docs
	"github.com/straye-as/finance-api/internal/auth"
	"github.com/straye-as/finance-api/internal/cache"
	"github.com/straye-as/finance-api/internal/config"
	"github.com/straye-as/finance-api/internal/database"
	"github.com/straye-as/finance-api/internal/domain"
	"github.com/straye-as/finance-api/internal/http/handler"
	"github.com/straye-as/finance-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthCheckTimeout = 3 * time.Second

// Handlers groups the resource handlers mounted under /api/v1
type Handlers struct {
	Client      *handler.ClientHandler
	Project     *handler.ProjectHandler
	Installment *handler.InstallmentHandler
	Receipt     *handler.ReceiptHandler
	Account     *handler.AccountHandler
	Dashboard   *handler.DashboardHandler
	Import      *handler.ImportHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	cache          cache.Cache
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	c cache.Cache,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		cache:          c,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	writers := rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleAPIService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.Client.List)
			r.Get("/{id}", h.Client.GetByID)
			r.With(writers).Post("/", h.Client.Create)
			r.With(writers).Put("/{id}", h.Client.Update)
			r.With(writers).Delete("/{id}", h.Client.Delete)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.Project.List)
			r.Get("/{id}", h.Project.GetByID)
			r.Get("/{id}/summary", h.Project.Summary)
			r.Get("/{id}/cost-history", h.Project.CostHistory)
			r.Get("/{id}/installments", h.Installment.ListByProject)
			r.Get("/{id}/receipts", h.Receipt.ListByProject)

			r.Group(func(r chi.Router) {
				r.Use(writers)
				r.Post("/", h.Project.Create)
				r.Put("/{id}", h.Project.Update)
				r.Delete("/{id}", h.Project.Delete)
				r.Put("/{id}/financials", h.Project.UpdateFinancials)
				r.Put("/{id}/cost", h.Project.UpdateCost)
				r.Post("/{id}/installments", h.Installment.Add)
				r.Post("/{id}/receipts", h.Receipt.Create)
			})
		})

		r.Route("/installments", func(r chi.Router) {
			r.Get("/overdue", h.Installment.Overdue)
			r.With(writers).Put("/{id}", h.Installment.Update)
			r.With(writers).Post("/{id}/pay", h.Installment.Pay)
			r.With(writers).Delete("/{id}", h.Installment.Delete)
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Get("/{id}/attachment", h.Receipt.DownloadAttachment)
			r.With(writers).Post("/{id}/approve", h.Receipt.Approve)
			r.With(writers).Post("/{id}/reject", h.Receipt.Reject)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.Account.List)
			r.Get("/{id}", h.Account.GetByID)
			r.With(writers).Post("/", h.Account.Create)
		})

		r.Get("/dashboard", h.Dashboard.Get)
		r.With(writers).Post("/dashboard/refresh", h.Dashboard.InvalidateCache)

		r.Route("/import", func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireRole(domain.RoleAdmin))
			r.Post("/clients", h.Import.ImportClients)
			r.Post("/projects", h.Import.ImportProjects)
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	stats, err := database.HealthCheckWithStats(ctx, rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// readiness checks every dependency. The cache only takes part when its
// backend is remote.
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(ctx, rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if pinger, ok := rt.cache.(cache.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			rt.logger.Error("Cache health check failed", zap.Error(err))
			checks["cache"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
		} else {
			checks["cache"] = map[string]interface{}{"status": "healthy"}
		}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
