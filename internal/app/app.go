package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/watchlist-alert-relay/internal/alert"
	"github.com/trogers1052/watchlist-alert-relay/internal/api"
	"github.com/trogers1052/watchlist-alert-relay/internal/chart"
	"github.com/trogers1052/watchlist-alert-relay/internal/config"
	"github.com/trogers1052/watchlist-alert-relay/internal/database"
	"github.com/trogers1052/watchlist-alert-relay/internal/discord"
	"github.com/trogers1052/watchlist-alert-relay/internal/kafka"
	"github.com/trogers1052/watchlist-alert-relay/internal/logging"
	"github.com/trogers1052/watchlist-alert-relay/internal/metrics"
	"github.com/trogers1052/watchlist-alert-relay/internal/relay"
	"github.com/trogers1052/watchlist-alert-relay/internal/watchlist"
	"go.uber.org/zap"
)

type App struct {
	server          *http.Server
	consumer        *kafka.Consumer
	logger          *zap.Logger
	shutdownTimeout time.Duration
	cleanupFns      []func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &App{logger: logger, shutdownTimeout: cfg.Server.ShutdownTimeout}

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		a.cleanupFns = append(a.cleanupFns, closeStore)
	}

	renderer, err := alert.NewRenderer(cfg.Alert.Format, cfg.Alert.ChartLinkBase)
	if err != nil {
		a.cleanup()
		return nil, err
	}

	m := metrics.New()
	deps := relay.Deps{
		Store:    store,
		Notifier: discord.NewClient(cfg.Discord.WebhookURL, cfg.Alert.UpstreamTimeout, logger),
		Renderer: renderer,
		Metrics:  m,
		Logger:   logger,
	}
	if cfg.Chart.Enabled() {
		deps.Charts = chart.NewClient(cfg.Chart, cfg.Alert.UpstreamTimeout, logger)
	} else {
		logger.Info("chart images disabled, CHART_API_KEY not set")
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		deps.Events = producer
		a.cleanupFns = append(a.cleanupFns, producer.Close)
	}

	svc := relay.NewService(deps, relay.Options{
		StaleAfter:      cfg.Alert.StaleAfter,
		UpstreamTimeout: cfg.Alert.UpstreamTimeout,
	})

	if cfg.Kafka.Enabled {
		a.consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.AlertsTopic, cfg.Kafka.GroupID, svc, logger)
	}

	router := api.SetupRoutes(api.NewHandler(svc, logger), m.Handler())
	a.server = &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	return a, nil
}

// newStore builds the watchlist backend selected by WATCHLIST_BACKEND.
// The returned close func is nil when the backend holds no connections.
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (relay.WatchlistStore, func() error, error) {
	switch cfg.Watchlist.Backend {
	case config.BackendNotion:
		return watchlist.NewNotionClient(cfg.Notion, cfg.Alert.UpstreamTimeout, logger), nil, nil

	case config.BackendPostgres:
		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := db.Migrate("file://" + cfg.Database.MigrationsPath); err != nil {
				db.Close()
				return nil, nil, err
			}
			logger.Info("watchlist migrations applied")
		}
		return db, db.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return watchlist.NewRedisStore(client, cfg.Redis.KeyPrefix), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown watchlist backend %q", cfg.Watchlist.Backend)
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("alert relay starting", zap.String("addr", a.server.Addr))

	errCh := make(chan error, 2)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Warn("kafka consumer stopped", zap.Error(err))
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func (a *App) Shutdown() {
	a.logger.Info("alert relay shutting down")
	a.cleanup()
	_ = a.logger.Sync()
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFns {
		if err := fn(); err != nil {
			a.logger.Warn("cleanup failed", zap.Error(err))
		}
	}
	a.cleanupFns = nil
}
