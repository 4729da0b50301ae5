// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/fitvault/fitvault/internal/config"
	cryptoHTTP "github.com/fitvault/fitvault/internal/crypto/http"
	envelopeHTTP "github.com/fitvault/fitvault/internal/envelope/http"
	"github.com/fitvault/fitvault/internal/metrics"
)

// ReadinessChecker reports whether the service can serve traffic. The
// envelope use case implements it with an end-to-end encrypt/decrypt probe.
type ReadinessChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Server represents the HTTP API server.
type Server struct {
	config *config.Config
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
	ready  ReadinessChecker
}

// NewServer creates a new HTTP server. A nil readiness checker makes the
// /ready endpoint report not ready, which keeps a misassembled server out of
// load balancer rotation.
func NewServer(ready ReadinessChecker, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		ready:  ready,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the Gin engine, registers middleware and all API routes.
// Must be called before Start. A nil meterProvider disables HTTP metrics.
func (s *Server) SetupRouter(
	keyHandler *cryptoHTTP.KeyHandler,
	envelopeHandler *envelopeHTTP.EnvelopeHandler,
	meterProvider metric.MeterProvider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(s.config.CORSEnabled, s.config.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil && s.config.MetricsEnabled {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, s.config.MetricsNamespace))
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Key lifecycle endpoints. Rate limited per client IP: key churn is a
	// low-frequency administrative operation, unlike data-path encryption.
	keys := v1.Group("/keys")
	if s.config.RateLimitEnabled {
		keys.Use(RateLimitMiddleware(s.config.RateLimitRequestsPerSec, s.config.RateLimitBurst, s.logger))
	}
	keys.POST("", keyHandler.IssueHandler)
	keys.POST("/rotate", keyHandler.RotateHandler)
	keys.POST("/:key_id/retire", keyHandler.RetireHandler)
	keys.GET("/rotations", keyHandler.RotationEventsHandler)

	// Envelope encryption endpoints
	envelopes := v1.Group("/envelopes")
	envelopes.POST("/encrypt", envelopeHandler.EncryptHandler)
	envelopes.POST("/decrypt", envelopeHandler.DecryptHandler)
	envelopes.POST("/sessions/encrypt", envelopeHandler.EncryptSessionHandler)
	envelopes.POST("/poses/encrypt", envelopeHandler.EncryptPoseHandler)

	s.router = router
	s.server.Handler = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the service can perform envelope
// operations. The check runs a full encrypt/decrypt round trip so a broken
// key registry or cipher configuration takes the instance out of rotation.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.ready == nil || !s.ready.HealthCheck(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"envelope": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"envelope": "ok"},
	})
}

// Start starts the HTTP server. SetupRouter must have been called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not initialized, call SetupRouter first")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
