package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/monitoring"
)

// Runner is the scrape service as seen by the HTTP layer.
type Runner interface {
	Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.ScrapeResult, error)
	GetRun(ctx context.Context, id string) (*domain.ScrapeRun, error)
	Employees(ctx context.Context, id string) ([]domain.EmployeeRecord, error)
	Usernames(ctx context.Context, id, scheme string) ([]string, error)
	Health(ctx context.Context) (map[string]string, bool)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	port       string
	router     http.Handler
	httpServer *http.Server
	runner     Runner
	gatherer   prometheus.Gatherer
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewServer builds the server; g is the registry exposed on /metrics.
func NewServer(port string, r Runner, g prometheus.Gatherer, m *monitoring.Metrics, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	s := &Server{
		port:     port,
		runner:   r,
		gatherer: g,
		metrics:  m,
		logger:   l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%s", s.port),
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		// scrapes run synchronously and can take many minutes
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
