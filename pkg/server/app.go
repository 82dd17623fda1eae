package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"SwingLab/internal/domain/repository"
	domsvc "SwingLab/internal/domain/service"
	"SwingLab/internal/handler/api"
	"SwingLab/internal/service/marketdata"
	"SwingLab/internal/usecase"
	"SwingLab/pkg/cache"
	pkgch "SwingLab/pkg/clickhouse"
	"SwingLab/pkg/config"
	xhttp "SwingLab/pkg/http"
	applogger "SwingLab/pkg/logger"
	"SwingLab/pkg/metrics"
	"SwingLab/pkg/util"
)

// Run modes. Backtest executes one simulation and exits, serve exposes
// stored runs over HTTP until interrupted.
const (
	ModeBacktest = "backtest"
	ModeServe    = "serve"
)

// App encapsulates the application lifecycle for both modes.
type App struct {
	cfg  *config.Config
	mode string
	l    *applogger.Logger

	runStore  repository.RunStore
	barStore  repository.BarStore
	chClient  *pkgch.Client
	sentiment domsvc.SentimentScorer
	cache     cache.Service
	metrics   repository.Metrics
}

type Option func(*App)

func WithRunStore(store repository.RunStore) Option {
	return func(a *App) { a.runStore = store }
}

func WithBarStore(store repository.BarStore, client *pkgch.Client) Option {
	return func(a *App) {
		a.barStore = store
		a.chClient = client
	}
}

func WithSentiment(scorer domsvc.SentimentScorer, c cache.Service) Option {
	return func(a *App) {
		a.sentiment = scorer
		a.cache = c
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App. Dependencies not provided via options are left
// nil and the corresponding mode will refuse to run.
func New(cfg *config.Config, mode string, l *applogger.Logger, opts ...Option) *App {
	a := &App{cfg: cfg, mode: mode, l: l}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the configured mode and blocks until done or interrupted.
func (a *App) Run() error {
	switch a.mode {
	case ModeBacktest:
		return a.runBacktest()
	case ModeServe:
		return a.runServe()
	default:
		return fmt.Errorf("unknown mode %q", a.mode)
	}
}

func (a *App) runBacktest() error {
	if a.barStore == nil {
		return errors.New("backtest mode requires a bar store")
	}
	defer a.closeClients()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	from, ok := util.ParseDate(a.cfg.Backtest.StartDate)
	if !ok {
		return fmt.Errorf("invalid start date %q", a.cfg.Backtest.StartDate)
	}
	to, ok := util.ParseDate(a.cfg.Backtest.EndDate)
	if !ok {
		return fmt.Errorf("invalid end date %q", a.cfg.Backtest.EndDate)
	}

	data, err := marketdata.Load(ctx, a.barStore, from, to, a.cfg.Backtest.LookbackDays, a.l)
	if err != nil {
		return fmt.Errorf("load market data: %w", err)
	}
	a.l.Info("market data loaded",
		applogger.Int("tickers", len(data.Universe())),
		applogger.Int("trading_days", len(data.TradingDays(from, to))))

	m := a.metrics
	if m == nil {
		m = metrics.Nop{}
	}

	engine, err := usecase.NewEngine(a.cfg, data, a.sentiment, m, a.l)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	if err := a.runStore.Save(ctx, result); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fields := []applogger.Field{
		applogger.String("run_id", result.RunID),
		applogger.Int("trades", len(result.Trades)),
	}
	if result.Summary != nil {
		fields = append(fields,
			applogger.Float64("total_return", result.Summary.TotalReturn),
			applogger.Float64("annualized_return", result.Summary.AnnualizedReturn),
			applogger.Float64("max_drawdown", result.Summary.MaxDrawdown),
			applogger.Float64("sharpe", result.Summary.SharpeRatio),
			applogger.Float64("win_rate", result.Summary.WinRate),
		)
	}
	if n := len(result.Snapshots); n > 0 {
		fields = append(fields, applogger.Float64("final_value", result.Snapshots[n-1].Value))
	}
	a.l.Info("backtest complete", fields...)
	return nil
}

func (a *App) runServe() error {
	if a.runStore == nil {
		return errors.New("serve mode requires a run store")
	}

	srv := xhttp.NewServer(a.l,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout),
		xhttp.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout),
	)
	srv.Register(api.NewRunsHandler(a.l, a.runStore))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCh:
		a.l.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}

func (a *App) closeClients() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
}
