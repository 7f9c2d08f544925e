// Command telemetry runs the standalone aggregation side of the query
// timing pipeline: it consumes QueryEvents published by evaluate/perftest,
// maintains running latency percentiles, and exposes them over HTTP for
// dashboards, periodically snapshotting to PostgreSQL when enabled.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salvocorp/rankcore/internal/telemetry"
	"github.com/salvocorp/rankcore/pkg/config"
	"github.com/salvocorp/rankcore/pkg/health"
	"github.com/salvocorp/rankcore/pkg/kafka"
	"github.com/salvocorp/rankcore/pkg/logger"
	"github.com/salvocorp/rankcore/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", ":9091", "HTTP listen address for the stats API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting telemetry aggregation service", "addr", *addr, "topic", cfg.Telemetry.Topic)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var aggregator *telemetry.Aggregator
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Telemetry.Topic, func(ctx context.Context, key []byte, value []byte) error {
		return telemetry.HandleEvent(aggregator)(ctx, key, value)
	})
	aggregator = telemetry.NewAggregator(consumer)

	go func() {
		if err := aggregator.Start(ctx); err != nil {
			slog.Error("aggregator error", "error", err)
		}
	}()
	slog.Info("telemetry aggregator started", "topic", cfg.Telemetry.Topic)

	if cfg.Telemetry.PersistSnapshots {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres, snapshot persistence disabled", "error", err)
		} else {
			defer db.Close()
			store := telemetry.NewStore(db)
			store.StartPeriodicSave(ctx, aggregator, cfg.Telemetry.SnapshotInterval)
		}
	}

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(aggregator.Stats())
	})
	mux.HandleFunc("GET /live", checker.LiveHandler())
	mux.HandleFunc("GET /ready", checker.ReadyHandler())

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("telemetry service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("telemetry service stopped")
}
