package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/camilomoreno07/gorkis-api/internal/config"
	"github.com/camilomoreno07/gorkis-api/internal/event"
	handler "github.com/camilomoreno07/gorkis-api/internal/handler/http"
	"github.com/camilomoreno07/gorkis-api/internal/repository"
	"github.com/camilomoreno07/gorkis-api/internal/repository/dynamo"
	"github.com/camilomoreno07/gorkis-api/internal/repository/memory"
	"github.com/camilomoreno07/gorkis-api/internal/service"
	"github.com/camilomoreno07/gorkis-api/pkg/database"
	"github.com/camilomoreno07/gorkis-api/pkg/health"
	pkgkafka "github.com/camilomoreno07/gorkis-api/pkg/kafka"
	"github.com/camilomoreno07/gorkis-api/pkg/middleware"
	"github.com/camilomoreno07/gorkis-api/pkg/tracing"
)

// ServiceName tags logs, spans and metrics.
const ServiceName = "services-api"

const flushTimeout = 2 * time.Second

// App wires together all dependencies of the services API. The same graph
// backs the local HTTP server and the Lambda handler.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	producer   *pkgkafka.Producer
	tracer     *tracing.Provider
	registry   *prometheus.Registry
	router     http.Handler
	httpServer *http.Server
	adapter    *httpadapter.HandlerAdapter
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracer, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Prometheus registry shared by every collector of this process.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := database.RegisterMetrics(registry); err != nil {
		return nil, fmt.Errorf("register storage metrics: %w", err)
	}

	// Configure slow storage call logging.
	if cfg.SlowStorageThresholdMs > 0 {
		database.SetSlowOperationLogging(time.Duration(cfg.SlowStorageThresholdMs)*time.Millisecond, logger)
	}

	healthHandler := health.NewHandler()

	repo, err := newRepository(ctx, cfg, healthHandler, logger)
	if err != nil {
		return nil, err
	}

	// Lifecycle events go to Kafka only when enabled.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher = event.Noop{}
	)
	if cfg.KafkaEnabled {
		if err := pkgkafka.RegisterMetrics(registry); err != nil {
			return nil, fmt.Errorf("register kafka metrics: %w", err)
		}
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		breaker := pkgkafka.NewBreakerPublisher(producer, pkgkafka.DefaultBreakerConfig("kafka"), logger)
		publisher = event.NewProducer(breaker, logger)
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	catalog := service.NewCatalogService(repo, publisher, cfg.Policy(), logger)

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: ServiceName,
		Catalog:     catalog,
		Health:      healthHandler,
		Metrics:     middleware.NewHTTPMetrics(registry, ServiceName),
		Logger:      logger,
		CacheMaxAge: cfg.CacheMaxAgeSeconds,
	})

	// The local server also exposes /metrics; under Lambda there is no
	// scraper to serve.
	root := chi.NewRouter()
	root.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	if cfg.PprofEnabled {
		middleware.RegisterPprof(root, cfg.PprofAllowedCIDRs, logger)
		logger.Info("pprof endpoints enabled", slog.Any("allowed_cidrs", cfg.PprofAllowedCIDRs))
	}
	root.Mount("/", router)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("application initialized",
		slog.String("storage_backend", cfg.StorageBackend),
		slog.String("update_policy", string(cfg.Policy())),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
		slog.Bool("tracing_enabled", tracer.Enabled()),
	)

	return &App{
		cfg:        cfg,
		logger:     logger,
		producer:   producer,
		tracer:     tracer,
		registry:   registry,
		router:     router,
		httpServer: httpServer,
		adapter:    httpadapter.New(router),
	}, nil
}

// newRepository builds the configured storage backend and registers its
// readiness check.
func newRepository(ctx context.Context, cfg *config.Config, h *health.Handler, logger *slog.Logger) (repository.ServiceRepository, error) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewServiceRepository(), nil
	}

	client, err := database.NewDynamoClient(ctx, database.DynamoConfig{
		Region:        cfg.AWSRegion,
		Offline:       cfg.IsOffline,
		LocalEndpoint: cfg.DynamoDBLocalEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("create dynamodb client: %w", err)
	}
	repo := dynamo.NewServiceRepository(client, cfg.ServicesTable)

	if cfg.IsOffline && cfg.DynamoDBCreateTable {
		created, err := repo.EnsureTable(ctx)
		if err != nil {
			return nil, fmt.Errorf("ensure table: %w", err)
		}
		if created {
			logger.Info("created dynamodb table", slog.String("table", cfg.ServicesTable))
		}
	}

	h.RegisterCritical("dynamodb", repo.Ping)

	logger.Info("dynamodb client initialized",
		slog.String("table", cfg.ServicesTable),
		slog.Bool("offline", cfg.IsOffline),
	)
	return repo, nil
}

// Handler returns the API router without the /metrics endpoint.
func (a *App) Handler() http.Handler {
	return a.router
}

// HandleLambda serves one API Gateway proxy event through the router and
// flushes pending spans before the sandbox is frozen.
func (a *App) HandleLambda(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := a.adapter.ProxyWithContext(ctx, req)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if ferr := a.tracer.Flush(flushCtx); ferr != nil {
		a.logger.Warn("tracer flush failed", slog.String("error", ferr.Error()))
	}

	return resp, err
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer tracerCancel()
	if err := a.tracer.Shutdown(tracerCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
