package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/vaxtrack/registry-api/internal/repository"
	"github.com/vaxtrack/registry-api/internal/repository/postgres"
	"github.com/vaxtrack/registry-api/pkg/logger"
	"github.com/vaxtrack/registry-api/pkg/messaging/redis"
	"github.com/vaxtrack/registry-api/pkg/metrics"
	"github.com/vaxtrack/registry-api/pkg/worker"
)

// workerConfig is read from the environment; the worker runs headless
// in containers, so a config file buys nothing here.
type workerConfig struct {
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL        string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	BatchSize       int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval    time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RetryAttempts   int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay      time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"5s"`
	Retention       time.Duration `envconfig:"OUTBOX_RETENTION" default:"168h"`
	CleanupInterval time.Duration `envconfig:"OUTBOX_CLEANUP_INTERVAL" default:"1h"`
	HealthAddr      string        `envconfig:"HEALTH_ADDR" default:":8081"`
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.NewLogger(nil)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.RedisURL}, &log.Logger)
	if err != nil {
		lg.Fatal(err, "failed to create Redis broker")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.BatchSize,
			PollInterval:  cfg.PollInterval,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
		},
		lg,
		metrics.NewMetrics("registry", "worker"),
	)

	setupHealthCheck(lg, cfg.HealthAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		lg.Info("Shutting down...")
		cancel()
	}()

	go cleanupLoop(ctx, outboxRepo, lg, cfg.CleanupInterval, cfg.Retention)

	processor.Start(ctx)
}

func setupHealthCheck(lg *logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			lg.Fatal(err, "Health check server failed")
		}
	}()
}

// cleanupLoop prunes processed outbox rows past the retention window.
func cleanupLoop(ctx context.Context, repo repository.OutboxRepository, lg *logger.Logger, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteProcessedBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				lg.Error(err, "Failed to prune outbox")
				continue
			}
			if deleted > 0 {
				lg.Info("Pruned processed outbox events", "deleted", deleted)
			}
		}
	}
}
