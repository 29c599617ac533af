// Package api provides the minimal external collaborator surface: a
// health/readiness endpoint for orchestrators (Kubernetes, systemd) to
// probe. A full REST API is out of scope here — all process/credential/
// comment management happens through the CLI (cmd/mymoment-monitor)
// against pkg/store directly.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/database"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/orchestrator"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/version"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthCheck is the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Server is the minimal HTTP health/readiness surface.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	dbClient   *database.Client
	pool       *orchestrator.WorkerPool // nil when run without a local worker pool
}

// NewServer builds a Server. pool may be nil (e.g. a CLI process that
// only talks to the database, not running workers itself).
func NewServer(dbClient *database.Client, pool *orchestrator.WorkerPool) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{engine: e, dbClient: dbClient, pool: pool}
	e.GET("/health", s.healthHandler)
	return s
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health. Only this process's own components
// (database, worker pool) are checked — external dependencies (the
// platform itself, LLM providers) are excluded so a flaky third party
// never flips this process's own health status.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := statusHealthy

	if _, err := database.Health(reqCtx, s.dbClient.DB()); err != nil {
		status = statusUnhealthy
		checks["database"] = HealthCheck{Status: statusUnhealthy, Message: err.Error()}
	} else {
		checks["database"] = HealthCheck{Status: statusHealthy}
	}

	if s.pool != nil {
		poolHealth := s.pool.Health()
		if !poolHealth.IsHealthy {
			if status == statusHealthy {
				status = statusDegraded
			}
			checks["worker_pool"] = HealthCheck{Status: statusDegraded}
		} else {
			checks["worker_pool"] = HealthCheck{Status: statusHealthy}
		}
	}

	httpStatus := http.StatusOK
	if status == statusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.Full(),
		Checks:  checks,
	})
}
