// Command catalog-events tails the catalog event queue and logs every product
// change, which is handy when checking that a deployment publishes events.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/config"
	"MiniCatalog/pkg/kit"
	"MiniCatalog/pkg/rabbitmq"
)

const service = "catalog-events"

func main() {
	cfg, err := config.LoadEvents()
	if err != nil {
		log := kit.NewLogger(service, "info")
		var missing *config.MissingError
		if errors.As(err, &missing) {
			log.Fatal("missing required configuration", zap.Strings("missing", missing.Keys))
		}
		log.Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("consumer stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.EventsConfig, log *zap.Logger) error {
	mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.EventsQueue}, log)
	if err != nil {
		return err
	}
	defer func() { _ = mq.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return mq.Consume(ctx, func(_ context.Context, kind string, body []byte) error {
		var e catalog.Event
		if err := json.Unmarshal(body, &e); err != nil {
			return err
		}
		log.Info("catalog event",
			zap.String("type", kind),
			zap.String("product_id", e.ProductID),
			zap.Time("occurred_at", e.OccurredAt),
		)
		return nil
	})
}
