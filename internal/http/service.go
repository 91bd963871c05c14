package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/khanhtranq/inventory-service/internal/config"
	"github.com/khanhtranq/inventory-service/internal/http/metric"
	"github.com/khanhtranq/inventory-service/internal/http/middleware"
	appmetric "github.com/khanhtranq/inventory-service/internal/metric"
	"github.com/khanhtranq/inventory-service/internal/service"
	"github.com/khanhtranq/inventory-service/internal/storage/db"
)

var tracer = otel.Tracer("internal/http")

// Services groups the application services served over HTTP.
type Services struct {
	Product   service.ProductService
	Import    service.ImportService
	Dashboard service.DashboardService
}

// Service represents the HTTP service.
type Service struct {
	cfg       config.HTTP
	importCfg config.Import
	logger    *slog.Logger
	metrics   *metric.Metrics
	sink      *appmetric.Sink

	svcs   Services
	health db.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	importCfg config.Import,
	log *slog.Logger,
	sink *appmetric.Sink,
	svcs Services,
	health db.HealthChecker,
) *Service {
	return &Service{
		cfg:       cfg,
		importCfg: importCfg,
		logger:    log.With(slog.String("service", "http")),
		metrics:   metric.New(),
		sink:      sink,
		svcs:      svcs,
		health:    health,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)
	s.RegisterHandlers(r)

	return s.RunWithServer(ctx, r)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.Sink(s.sink),
		middleware.CorrelationID(),
		middleware.Cors(),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	rs := responder{logger: s.logger}

	productH := newProductHandler(rs, s.svcs.Product, s.svcs.Import, s.importCfg)
	dashboardH := newDashboardHandler(rs, s.svcs.Dashboard)
	metricsH := newMetricsHandler(rs, s.sink)

	r.Route("/products", func(r chi.Router) {
		r.Use(middleware.RequireIdentity())
		productH.register(r)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(middleware.RequireIdentity())
		dashboardH.register(r)
	})

	r.Get("/metrics", metricsH.report)
	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	r.Get("/healthz", s.handleHealthz(rs))
	r.Get("/", s.handleRoot(rs))
}

func (s *Service) handleHealthz(rs responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil {
			if healthy, err := s.health.IsHealthy(r.Context()); err != nil || !healthy {
				rs.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		rs.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Service) handleRoot(rs responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.writeJSON(w, r, http.StatusOK, map[string]string{"status": "API is running"})
	}
}
