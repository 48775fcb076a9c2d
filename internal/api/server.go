package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"welchpower/app"
	"welchpower/internal"
	"welchpower/internal/metrics"
)

// Server exposes the power service over HTTP
type Server struct {
	router   *gin.Engine
	handler  *PowerHandler
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	logger   *internal.Logger
}

// ServerOptions configures optional collaborators
type ServerOptions struct {
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer // served on /metrics when set
	Logger   *internal.Logger
}

// NewServer creates a server with middleware and routes installed
func NewServer(service *app.PowerService, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	s := &Server{
		router:   gin.New(),
		handler:  NewPowerHandler(service, logger),
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(Observe(s.metrics, s.logger))
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/v1/power")
	v1.POST("/continuous", s.handler.SolveContinuous)
	v1.POST("/proportion", s.handler.SolveProportion)
	v1.POST("/curve", s.handler.Curve)
	v1.POST("/simulate", s.handler.Simulate)
}

// Router returns the gin engine, for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler returns the router behind response compression
func (s *Server) Handler() http.Handler {
	return middleware.Compress(5)(s.router)
}
