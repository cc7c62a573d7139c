package catalog

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
	"github.com/Eman-Sallam/ai-pipeline-editor/server"
	"github.com/Eman-Sallam/ai-pipeline-editor/version"
)

// Routes served by the catalog service.
const (
	RouteStageTypes = "/api/nodes"
	RouteStageType  = "/api/nodes/:id"
	RouteHealth     = "/healthz"
)

// DefaultLatency is the simulated delay before the stage type list is served.
const DefaultLatency = time.Second

// Service serves the stage catalog over HTTP.
type Service struct {
	store   *Store
	latency time.Duration
	metrics *observability.Metrics
	log     *logger.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLatency sets the simulated delay for the list route. Zero disables it.
func WithLatency(d time.Duration) ServiceOption {
	return func(s *Service) { s.latency = d }
}

// WithServiceMetrics records catalog requests on m.
func WithServiceMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *logger.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// NewService creates a catalog service over store.
func NewService(store *Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, latency: DefaultLatency}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.WithComponent("catalog")
	}
	return s
}

// Register mounts the catalog routes on r.
func (s *Service) Register(r gin.IRoutes) {
	r.GET(RouteStageTypes, s.listStageTypes)
	r.GET(RouteStageType, s.getStageType)
	r.GET(RouteHealth, s.health)
}

// NewServer builds an HTTP server with the catalog routes registered.
func NewServer(cfg server.Config, store *Store, opts ...ServiceOption) *server.Server {
	srv := server.New(cfg, logger.WithComponent("catalog"))
	NewService(store, opts...).Register(srv.Engine())
	return srv
}

func (s *Service) listStageTypes(c *gin.Context) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-c.Request.Context().Done():
			s.record(c, RouteStageTypes, "canceled")
			c.Abort()
			return
		case <-timer.C:
		}
	}
	types := s.store.List()
	s.log.Debug("serving stage types", logger.Fields("count", len(types)))
	s.record(c, RouteStageTypes, "ok")
	c.JSON(http.StatusOK, types)
}

func (s *Service) getStageType(c *gin.Context) {
	id := c.Param("id")
	t, ok := s.store.Get(id)
	if !ok {
		s.record(c, RouteStageType, "not_found")
		server.RespondWithError(c, apperrors.NotFound("stage type", id))
		return
	}
	s.record(c, RouteStageType, "ok")
	c.JSON(http.StatusOK, t)
}

func (s *Service) health(c *gin.Context) {
	sh := observability.CheckAll(c.Request.Context(), "catalog", version.GetShortVersion(), s.store)
	status := http.StatusOK
	if !sh.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

func (s *Service) record(c *gin.Context, route, status string) {
	if s.metrics != nil {
		s.metrics.RecordCatalogRequest(c.Request.Context(), route, status)
	}
}
