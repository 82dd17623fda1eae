package di

import (
	"context"
	"fmt"
	"time"

	drepo "SwingLab/internal/domain/repository"
	domsvc "SwingLab/internal/domain/service"
	internalrepo "SwingLab/internal/repository"
	"SwingLab/internal/service/sentiment"
	"SwingLab/pkg/cache"
	pkgch "SwingLab/pkg/clickhouse"
	"SwingLab/pkg/config"
	applogger "SwingLab/pkg/logger"
	"SwingLab/pkg/metrics"
	"SwingLab/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// bar table exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		"CREATE TABLE IF NOT EXISTS " + table + ` (
			ticker String,
			trade_date Date,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Int64,
			trade_value Float64
		) ENGINE=MergeTree ORDER BY (ticker, trade_date)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideBarStore creates the ClickHouse-backed bar repository.
func ProvideBarStore(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) drepo.BarStore {
	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	store := internalrepo.NewCHBarStore(client, table)
	store.SetLogger(l)
	return store
}

// ProvideRunStore creates the file-backed run repository.
func ProvideRunStore(cfg *config.Config, l *applogger.Logger) drepo.RunStore {
	store := internalrepo.NewFileRunStore(cfg.Backtest.RunsDir)
	store.SetLogger(l)
	return store
}

// ProvideCache creates the sentiment cache backend. Redis when enabled,
// in-process memory cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Sentiment.Redis.Enabled {
		c, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Sentiment.Redis.Addr),
			cache.WithRedisPassword(cfg.Sentiment.Redis.Password),
			cache.WithRedisDB(cfg.Sentiment.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideSentiment creates the cached sentiment scorer, or nil when the
// sentiment service is disabled (hybrid selection falls back to
// technical-only scores).
func ProvideSentiment(cfg *config.Config, c cache.Service, l *applogger.Logger) domsvc.SentimentScorer {
	if !cfg.Sentiment.Enabled {
		return nil
	}
	client := sentiment.NewHTTPClient(cfg)
	return sentiment.NewCached(client, c, cfg.Sentiment.CacheTTL, l)
}

// InitializeApp wires all dependencies and returns the application.
// Serve mode only needs the run store; backtest mode additionally
// connects to ClickHouse and, when enabled, the sentiment service.
func InitializeApp(cfg *config.Config, mode string) (*server.App, error) {
	l, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	runStore := ProvideRunStore(cfg, l)

	if mode == server.ModeServe {
		return server.New(cfg, mode, l, server.WithRunStore(runStore)), nil
	}

	chClient, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}

	cacheSvc, err := ProvideCache(cfg)
	if err != nil {
		_ = chClient.Close()
		return nil, err
	}

	return server.New(cfg, mode, l,
		server.WithRunStore(runStore),
		server.WithBarStore(ProvideBarStore(chClient, cfg, l), chClient),
		server.WithSentiment(ProvideSentiment(cfg, cacheSvc, l), cacheSvc),
		server.WithMetrics(ProvideMetrics()),
	), nil
}
