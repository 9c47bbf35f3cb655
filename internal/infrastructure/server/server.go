package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/shoplist/shopping-gateway/internal/api/http"
	"github.com/shoplist/shopping-gateway/internal/api/middleware"
	"github.com/shoplist/shopping-gateway/internal/api/ws"
	"github.com/shoplist/shopping-gateway/internal/domain/shopping"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/config"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/discovery"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/logging"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/monitoring"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/resilience"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
	"github.com/shoplist/shopping-gateway/internal/providers/http/client"
	"github.com/shoplist/shopping-gateway/internal/providers/pricer"
	shoppingProvider "github.com/shoplist/shopping-gateway/internal/providers/shopping"
)

// BreakerName names the pricer circuit breaker in logs and metrics
const BreakerName = "pricer"

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	breaker    *resilience.Breaker
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer wires the gateway from cfg
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing shopping list gateway",
		zap.String("port", cfg.Server.Port),
		zap.String("list_backend", cfg.ListBackend.URL),
		zap.String("pricer_service", cfg.Pricer.Service),
		zap.String("pricer_discovery", cfg.Pricer.Discovery),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	tracer := tracing.New("shopping-gateway", logger.Named("tracing").Logger)

	resolver, err := newResolver(cfg.Pricer)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	breakerLogger := logger.Named("breaker")
	breaker := resilience.New(BreakerName, resilience.Settings{
		MaxFailures:   cfg.Breaker.MaxFailures,
		FailureWindow: cfg.Breaker.FailureWindow,
		ResetTimeout:  cfg.Breaker.ResetTimeout,
		CallTimeout:   cfg.Breaker.CallTimeout,
		OnStateChange: func(name string, from, to resilience.State) {
			breakerLogger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			metrics.SetBreakerState(name, float64(to))
		},
	})
	metrics.SetBreakerState(BreakerName, float64(resilience.StateClosed))

	listOpts := client.DefaultOptions()
	listOpts.Timeout = cfg.ListBackend.Timeout
	lists := shoppingProvider.NewGateway(client.New(listOpts), cfg.ListBackend.URL, logger.Named("shopping").Logger).
		WithMetrics(metrics)

	// The breaker owns the call deadline; the client timeout only backs it up.
	pricerOpts := client.DefaultOptions()
	pricerOpts.Timeout = 2 * cfg.Breaker.CallTimeout
	source := pricer.NewHTTPSource(client.New(pricerOpts), resolver, cfg.Pricer.Service)
	prices := pricer.NewGateway(source, breaker, logger.Named("pricer").Logger).
		WithMetrics(metrics)

	aggregator := shopping.NewAggregator(prices, cfg.Enrich.Workers)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger.Logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.AccessLog(logger.Named("http").Logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(lists, aggregator, breaker, logger.Named("api").Logger).WithMetrics(metrics)
	handlers.Register(router)

	wsHandler := ws.NewHandler(lists, aggregator, logger.Named("ws").Logger).WithMetrics(metrics)
	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		breaker: breaker,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func newResolver(cfg config.PricerConfig) (discovery.Resolver, error) {
	switch cfg.Discovery {
	case "static":
		return discovery.Static{cfg.Service: cfg.URL}, nil
	case "env":
		if cfg.URL == "" {
			return discovery.KubernetesEnv{}, nil
		}
		return discovery.Chain{discovery.KubernetesEnv{}, discovery.Static{cfg.Service: cfg.URL}}, nil
	default:
		return nil, fmt.Errorf("unknown pricer discovery %q", cfg.Discovery)
	}
}

// Handler returns the router, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Breaker returns the shared pricer circuit breaker
func (s *Server) Breaker() *resilience.Breaker {
	return s.breaker
}

// Run starts the HTTP server and blocks until it stops. A server stopped by
// Shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight streams
// until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		// Handlers may still submit spans; leave the tracer running.
		s.logger.Error("Graceful shutdown incomplete", zap.Error(err))
		_ = s.httpServer.Close()
	} else {
		s.tracer.Close()
	}
	s.logger.Sync()

	return err
}
