// Package api exposes the HTTP interface: region catalog, daily risk
// reports, user authentication, health and metrics.
package api

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/datastore"
	"github.com/quakepredict/quakepredict-go/internal/logging"
	"github.com/quakepredict/quakepredict-go/internal/observability"
	"github.com/quakepredict/quakepredict-go/internal/registry"
	"github.com/quakepredict/quakepredict-go/internal/risk"
	"github.com/quakepredict/quakepredict-go/internal/security"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	registry       *registry.Registry
	riskService    *risk.Service
	tokens         *security.TokenManager
	metrics        *observability.Metrics
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
	startTime      time.Time
}

// New creates the API controller and registers all routes on a fresh echo
// instance.
func New(settings *conf.Settings, ds datastore.Interface, reg *registry.Registry,
	riskService *risk.Service, tokens *security.TokenManager, metrics *observability.Metrics) *Controller {

	c := &Controller{
		Echo:        echo.New(),
		DS:          ds,
		Settings:    settings,
		registry:    reg,
		riskService: riskService,
		tokens:      tokens,
		metrics:     metrics,
		startTime:   time.Now(),
	}

	c.Echo.HideBanner = true
	c.Echo.HidePort = true

	c.apiLevelVar = new(slog.LevelVar)
	if settings.WebServer.Debug {
		c.apiLevelVar.Set(slog.LevelDebug)
	}
	logger, closeFunc, err := logging.NewFileLogger("logs/api.log", "api", c.apiLevelVar)
	if err != nil {
		logging.Error("Failed to initialize API file logger", "error", err)
		logger = logging.ForService("api")
	} else {
		c.apiLoggerClose = closeFunc
	}
	c.apiLogger = logger

	c.Echo.Use(middleware.Recover())
	if len(settings.WebServer.CORSOrigins) > 0 {
		c.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: settings.WebServer.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		}))
	}
	c.Echo.Use(c.loggingMiddleware())

	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group = c.Echo.Group("/api/v1")

	c.Group.GET("/health", c.HandleHealth)
	c.Group.GET("/regions", c.HandleGetRegions)
	c.Group.GET("/risk/report", c.HandleGetRiskReport)

	auth := c.Group.Group("/auth")
	auth.POST("/register", c.HandleRegister)
	auth.POST("/login", c.HandleLogin)
	auth.GET("/me", c.HandleMe, c.AuthMiddleware())

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// Start runs the HTTP server on the configured port. Blocks until the server
// stops.
func (c *Controller) Start() error {
	addr := ":" + c.Settings.WebServer.Port
	c.apiLogger.Info("Starting HTTP server", "addr", addr)
	return c.Echo.Start(addr)
}

// Shutdown gracefully stops the HTTP server and closes the API log file.
func (c *Controller) Shutdown(ctx context.Context) error {
	err := c.Echo.Shutdown(ctx)
	if c.apiLoggerClose != nil {
		if closeErr := c.apiLoggerClose(); closeErr != nil {
			logging.Error("Failed to close API log file", "error", closeErr)
		}
	}
	return err
}

// loggingMiddleware emits one structured log line per request.
func (c *Controller) loggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			c.apiLogger.Info("Request handled",
				"method", ctx.Request().Method,
				"path", ctx.Request().URL.Path,
				"status", ctx.Response().Status,
				"remote_ip", ctx.RealIP(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// ErrorResponse is the JSON error body returned by every endpoint.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs an error and writes the standard error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	c.apiLogger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"remote_ip", ctx.RealIP(),
	)

	return ctx.JSON(code, resp)
}

// HandleHealth reports process liveness, model availability and uptime.
func (c *Controller) HandleHealth(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "ok",
		"model_loaded":   c.riskService.ModelLoaded(),
		"uptime_seconds": int64(time.Since(c.startTime).Seconds()),
	})
}
