package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/tasklist/core/docs"
	rpc "github.com/tasklist/core/internal/adapters/http"
	"github.com/tasklist/core/internal/adapters/cache"
	"github.com/tasklist/core/internal/adapters/reminder"
	"github.com/tasklist/core/internal/adapters/repository"
	"github.com/tasklist/core/internal/application/services"
	"github.com/tasklist/core/internal/infrastructure/config"
	"github.com/tasklist/core/internal/infrastructure/database"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/infrastructure/redis"
	"github.com/tasklist/core/internal/infrastructure/validation"
	"github.com/tasklist/core/internal/ports"
)

// CachePrefix namespaces every read-cache key in Redis
const CachePrefix = "tasklist:"

// Server represents the HTTP server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	logger    *logger.Logger
	db        *database.DB
	redis     *redis.Client
	reminders *services.ReminderDispatcher
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance. rdb may be nil, in which case caching
// is disabled and reminders are only logged.
func New(cfg *config.Config, db *database.DB, rdb *redis.Client, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()
	validate := validation.New()

	e.Validator = &CustomValidator{validator: validate}
	e.Debug = cfg.App.IsDevelopment()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	todoRepo := repository.NewTodoRepository(db.DB)
	categoryRepo := repository.NewCategoryRepository(db.DB)
	tagRepo := repository.NewTagRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	attachmentRepo := repository.NewAttachmentRepository(db.DB)

	readCache := cache.NewNoopCache()
	if rdb != nil {
		readCache = cache.NewRedisCache(rdb.Client, CachePrefix)
	}

	reminders := services.NewReminderDispatcher(newScheduler(cfg, rdb, appLogger), cfg.Reminders.DispatchTimeout, appLogger)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg.JWT, appLogger)
	svc := rpc.Services{
		Auth:        authService,
		Users:       services.NewUserService(userRepo, appLogger),
		Todos:       services.NewTodoService(todoRepo, categoryRepo, readCache, reminders, cfg.Cache.StatisticsTTL, appLogger),
		Categories:  services.NewCategoryService(categoryRepo, readCache, cfg.Cache.CategoriesTTL, appLogger),
		Tags:        services.NewTagService(tagRepo, todoRepo, appLogger),
		Comments:    services.NewCommentService(commentRepo, todoRepo),
		Attachments: services.NewAttachmentService(attachmentRepo, todoRepo, appLogger),
		Reports:     services.NewReportService(todoRepo, cfg.App.Location()),
	}

	router := rpc.NewRouter(authService, validate, appLogger)
	rpc.RegisterProcedures(router, svc)

	server := &Server{
		echo:      e,
		config:    cfg,
		logger:    appLogger,
		db:        db,
		redis:     rdb,
		reminders: reminders,
	}

	server.setupMiddleware()

	// Metrics middleware must wrap the routes registered below
	if cfg.Metrics.Enabled {
		server.setupMetrics(router.Collectors()...)
	}

	server.setupRoutes(router)

	return server, nil
}

func newScheduler(cfg *config.Config, rdb *redis.Client, log *logger.Logger) ports.ReminderScheduler {
	switch {
	case !cfg.Reminders.Enabled:
		return nil
	case rdb != nil:
		return reminder.NewRedisScheduler(rdb.Client)
	default:
		return reminder.NewLogScheduler(log)
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(router *rpc.Router) {
	s.echo.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// RPC procedures
	s.echo.GET("/trpc/:path", router.Handle)
	s.echo.POST("/trpc/:path", router.Handle)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics(extra ...prometheus.Collector) {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)
	registry.MustRegister(extra...)

	s.echo.Use(metricsMiddleware(requestsTotal, requestDuration))

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(ctx); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	// Redis degrades the service but does not fail it
	if s.redis == nil {
		checks["redis"] = map[string]interface{}{"status": "disabled"}
	} else if err := s.redis.HealthCheck(ctx); err != nil {
		if status == "ok" {
			status = "degraded"
		}
		checks["redis"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["redis"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.redis.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	if status == "error" {
		return c.JSON(http.StatusServiceUnavailable, response)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router for in-process tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	return s.echo.Start(address)
}

// Shutdown stops accepting requests, then waits for in-flight reminder
// dispatches until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}

	drained := make(chan struct{})
	go func() {
		s.reminders.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		s.logger.Warnw("Reminder dispatch did not drain before shutdown deadline")
		return ctx.Err()
	}
}
