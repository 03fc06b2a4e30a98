package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/config"
	"MiniCatalog/pkg/kit"
	"MiniCatalog/pkg/rabbitmq"
	"MiniCatalog/web"
)

const (
	service      = "catalog"
	closeTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := kit.NewLogger(service, "info")
		var missing *config.MissingError
		if errors.As(err, &missing) {
			log.Fatal("missing required configuration", zap.Strings("missing", missing.Keys))
		}
		log.Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("catalog stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

// run owns every resource it opens; all of them are released before it returns,
// whichever step fails.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	shutdownTracing, err := kit.InitTracing(ctx, service, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer closeWith(log, "tracing", shutdownTracing)

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer closeWith(log, "store", store.Close)
	log.Info("store ready", zap.String("driver", cfg.Store.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []catalog.Option{
		catalog.WithLogger(log),
		catalog.WithMetrics(catalog.NewMetrics(reg)),
	}

	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.EventsQueue}, log)
		if err != nil {
			return fmt.Errorf("init rabbitmq: %w", err)
		}
		defer func() { _ = mq.Close() }()
		opts = append(opts, catalog.WithPublisher(catalog.NewSinkPublisher(mq)))
	}

	limiter := kit.NewIPRateLimiter(cfg.WriteRateLimit, cfg.WriteRateWindow)

	s := &catalog.Server{
		Catalog:    catalog.NewService(store, opts...),
		Log:        log,
		WriteLimit: limiter.Middleware,
		Index:      web.Handler(),
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustedProxy,
	})

	serverCfg := kit.ServerConfig{Addr: ":" + cfg.Port, ShutdownTimeout: cfg.ShutdownTimeout}
	return kit.RunHTTPServer(ctx, serverCfg, h, log)
}

var openStore = func(ctx context.Context, cfg config.StoreConfig) (catalog.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return catalog.OpenMongo(ctx, catalog.MongoConfig{
			URI:        cfg.CosmosURI,
			Key:        cfg.CosmosKey,
			Account:    cfg.CosmosAccount,
			Database:   cfg.CosmosDatabase,
			Collection: cfg.CosmosContainer,
		})
	case config.DriverPostgres:
		return catalog.OpenPostgres(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		return catalog.OpenSQLite(cfg.SQLitePath)
	default:
		return catalog.NewMemStore(), nil
	}
}

func closeWith(log *zap.Logger, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("close failed", zap.String("what", what), zap.Error(err))
	}
}
