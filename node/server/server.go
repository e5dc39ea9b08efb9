package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cleuton/arquitetura360/node/status"
	"github.com/cleuton/arquitetura360/pkg/gossip"
	"github.com/cleuton/arquitetura360/pkg/log"
	"github.com/cleuton/arquitetura360/pkg/lww"
	"github.com/cleuton/arquitetura360/pkg/middleware"
)

// Merger merges a batch of entries received from a peer into the local state.
type Merger interface {
	Merge(entries []lww.Entry) int
}

type ingestResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the node HTTP server. It accepts gossip from peers, and exposes
// endpoints for health, metrics and inspecting the node status.
type Server struct {
	merger Merger

	maxMessageSize int64

	registry *prometheus.Registry

	httpServer *http.Server

	router *gin.Engine

	logger log.Logger
}

func NewServer(
	merger Merger,
	maxMessageSize int64,
	accessLogConfig log.AccessLogConfig,
	registry *prometheus.Registry,
	logger log.Logger,
) *Server {
	logger = logger.WithSubsystem("server")

	router := gin.New()
	server := &Server{
		merger:         merger,
		maxMessageSize: maxMessageSize,
		registry:       registry,
		httpServer: &http.Server{
			Handler:  router,
			ErrorLog: logger.StdLogger(zapcore.WarnLevel),
		},
		router: router,
		logger: logger,
	}

	// Recover from panics.
	router.Use(gin.CustomRecoveryWithWriter(nil, server.panicRoute))

	router.Use(middleware.NewLogger(accessLogConfig, logger))

	if registry != nil {
		metrics := middleware.NewMetrics("http")
		metrics.Register(registry)
		router.Use(metrics.Handler())
	}

	server.registerRoutes(router)

	return server
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info(
		"starting http server",
		zap.String("addr", ln.Addr().String()),
	)

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

// Shutdown attempts to gracefully shutdown the server by waiting for pending
// requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) AddStatus(route string, handler status.Handler) {
	group := s.router.Group("/status").Group(route)
	handler.Register(group)
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.POST("/gossip", s.gossipRoute)

	router.GET("/healthz", s.healthzRoute)
	router.GET("/health", s.healthRoute)

	if s.registry != nil {
		router.GET("/metrics", s.metricsHandler())
	}
}

// gossipRoute merges a snapshot pushed by a peer.
//
// The whole snapshot is decoded and validated before merging, so a snapshot
// with any invalid entry leaves the store untouched.
func (s *Server) gossipRoute(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxMessageSize)
	msg, err := gossip.Decode(body, c.ContentType())
	if err != nil {
		s.logger.Warn("invalid snapshot", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: err.Error(),
		})
		return
	}
	if err := msg.Validate(); err != nil {
		s.logger.Warn(
			"invalid snapshot",
			zap.String("message-id", msg.ID),
			zap.Uint64("sender", msg.Sender),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: err.Error(),
		})
		return
	}

	applied := s.merger.Merge(msg.Entries)

	s.logger.Info(
		"merged snapshot",
		zap.Uint64("sender", msg.Sender),
		zap.String("message-id", msg.ID),
		zap.Int("entries", len(msg.Entries)),
		zap.Int("applied", applied),
	)

	c.JSON(http.StatusOK, ingestResponse{
		OK: true,
	})
}

func (s *Server) healthzRoute(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) healthRoute(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (s *Server) panicRoute(c *gin.Context, err any) {
	s.logger.Error(
		"handler panic",
		zap.String("path", c.FullPath()),
		zap.Any("err", err),
	)
	c.AbortWithStatus(http.StatusInternalServerError)
}

func (s *Server) metricsHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(
		s.registry,
		promhttp.HandlerOpts{Registry: s.registry},
	)
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func init() {
	// Disable Gin debug logs.
	gin.SetMode(gin.ReleaseMode)
}
