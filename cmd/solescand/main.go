// Command solescand launches the SoleScan pricing service.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solescan/solescan/internal/adapters"
	"github.com/solescan/solescan/internal/adapters/resale"
	"github.com/solescan/solescan/internal/adapters/retail"
	"github.com/solescan/solescan/internal/adapters/sizechart"
	"github.com/solescan/solescan/internal/aggregate"
	"github.com/solescan/solescan/internal/classify"
	"github.com/solescan/solescan/internal/config"
	"github.com/solescan/solescan/internal/httpapi"
	"github.com/solescan/solescan/internal/lexicon"
	"github.com/solescan/solescan/internal/observability"
	"github.com/solescan/solescan/internal/pipeline"
	"github.com/solescan/solescan/internal/pricecache"
	"github.com/solescan/solescan/internal/resolver"
	"github.com/solescan/solescan/internal/telemetry"
)

const (
	defaultConfigPath     = "config/solescan.yaml"
	readHeaderTimeout     = 5 * time.Second
	serverShutdownTimeout = 10 * time.Second
	telemetryFlushTimeout = 5 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to the YAML configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "solescand ", log.LstdFlags)

	cfg, loadedFromFile, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		logger.Printf("configuration file not found, using defaults")
	}
	observability.SetLogger(observability.NewStdLogger(logger, cfg.Verbose))
	logger.Printf("configuration initialised: env=%s listen=%s cache=%s",
		cfg.Environment, cfg.Listen, cfg.Cache.Backend)

	meterProvider, shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
	})
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}
	metrics, err := telemetry.NewMetrics(meterProvider)
	if err != nil {
		logger.Fatalf("initialize metrics: %v", err)
	}

	entries := lexicon.DefaultCatalog()
	if cfg.CatalogPath != "" {
		entries, err = lexicon.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			logger.Fatalf("load lexicon catalog: %v", err)
		}
	}
	table := lexicon.NewTable(entries)

	classifier := classify.NewHTTPClassifier(cfg.Classifier.Endpoint, cfg.Classifier.Timeout.Std())
	identityResolver := resolver.New(table,
		resolver.WithThreshold(cfg.Resolver.Threshold),
		resolver.WithTopK(cfg.Resolver.TopK),
	)

	registry := adapters.NewRegistry()
	mustRegister(logger, registry, retail.New(retail.Config{
		BaseURL:    cfg.Providers.Retail.BaseURL,
		APIKey:     cfg.Providers.Retail.APIKey,
		Timeout:    cfg.Providers.Retail.Timeout.Std(),
		Politeness: cfg.Providers.Retail.Politeness.Std(),
	}))
	mustRegister(logger, registry, resale.New(resale.Config{
		BaseURL:    cfg.Providers.Resale.BaseURL,
		APIKey:     cfg.Providers.Resale.APIKey,
		ListingURL: cfg.Providers.Resale.ListingURL,
		Timeout:    cfg.Providers.Resale.Timeout.Std(),
		Politeness: cfg.Providers.Resale.Politeness.Std(),
	}))
	mustRegister(logger, registry, sizechart.New(sizechart.Config{
		BaseURL:    cfg.Providers.SizeChart.BaseURL,
		Timeout:    cfg.Providers.SizeChart.Timeout.Std(),
		Politeness: cfg.Providers.SizeChart.Politeness.Std(),
	}))

	cache, closeCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		logger.Fatalf("initialize cache: %v", err)
	}

	aggregator := aggregate.New(
		aggregate.WithDeadline(cfg.AggregateDeadline.Std()),
		aggregate.WithMetrics(metrics),
	)
	pipe := pipeline.New(classifier, identityResolver, cache, aggregator, registry,
		pipeline.WithDeadline(cfg.PipelineDeadline.Std()),
		pipeline.WithAmbiguityMargin(cfg.Resolver.AmbiguityMargin),
		pipeline.WithTTLPolicy(pricecache.TTLPolicy{
			Resale:  cfg.Cache.ResaleTTL.Std(),
			Retail:  cfg.Cache.RetailTTL.Std(),
			SoldOut: cfg.Cache.SoldOutTTL.Std(),
		}),
		pipeline.WithMetrics(metrics),
	)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.NewHandler(pipe),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Listen)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("server shutdown: %v", err)
	}

	closeCache()

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), telemetryFlushTimeout)
	defer cancelFlush()
	if err := shutdownTelemetry(flushCtx); err != nil {
		logger.Printf("telemetry shutdown: %v", err)
	}
	logger.Printf("shutdown complete")
}

func mustRegister(logger *log.Logger, registry *adapters.Registry, provider adapters.Provider) {
	if err := registry.Register(provider); err != nil {
		logger.Fatalf("register provider: %v", err)
	}
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (pricecache.Store, func(), error) {
	switch cfg.Backend {
	case config.CacheBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pricecache.NewPostgresStore(pool), pool.Close, nil
	default:
		store := pricecache.NewMemoryStore()
		return store, store.Close, nil
	}
}
