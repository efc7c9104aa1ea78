// Package server exposes sessions over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/controller"
	"github.com/becomeliminal/acc-agent/guardrails"
	"github.com/becomeliminal/acc-agent/metrics"
)

// ShutdownTimeout bounds graceful shutdown, including pending Finalize tasks.
const ShutdownTimeout = 30 * time.Second

// Server routes chat traffic to the session registry.
type Server struct {
	registry *controller.Registry
	limiter  *guardrails.Limiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	upgrader websocket.Upgrader
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLimiter rate-limits turns per session.
func WithLimiter(l *guardrails.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithMetrics records rejected turns.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithGatherer serves g on /metrics. Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server over registry.
func New(registry *controller.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		gatherer: prometheus.DefaultGatherer,
		logger:   zap.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")
	s.initRouter()
	return s
}

func (s *Server) initRouter() {
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	s.router.POST("/chat", s.handleChat)
	s.router.GET("/ws", s.handleWebSocket)
	s.router.GET("/state/:session_id", s.handleState)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// closes the registry so pending Finalize tasks complete.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.registry.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.registry.Close()
	s.logger.Info("stopped")
	return err
}

// admit applies the rate limiter to sessionID.
func (s *Server) admit(sessionID string) bool {
	if s.limiter == nil || s.limiter.Allow(sessionID) {
		return true
	}
	s.metrics.RateLimited()
	s.logger.Warn("rate limited", zap.String("session_id", sessionID))
	return false
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
