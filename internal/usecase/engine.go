package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SwingLab/internal/domain/models"
	drepo "SwingLab/internal/domain/repository"
	domsvc "SwingLab/internal/domain/service"
	"SwingLab/internal/service/marketdata"
	"SwingLab/internal/services/scoring"
	"SwingLab/internal/services/selection"
	"SwingLab/pkg/config"
	applogger "SwingLab/pkg/logger"
	"SwingLab/pkg/util"
)

// ConfigProvider supplies the strategy parameters for one trading day.
// The default provider returns the static config for every day.
type ConfigProvider func(day time.Time) *config.StrategyConfig

// Engine drives the day-by-day simulation on a single goroutine. Sells
// always execute before buys within a day, and no per-ticker failure
// stops the rest of the day.
type Engine struct {
	cfg       *config.Config
	provider  ConfigProvider
	data      *marketdata.Access
	sentiment domsvc.SentimentScorer
	portfolio *Portfolio
	metrics   drepo.Metrics
	l         *applogger.Logger

	runID       string
	now         func() time.Time
	diagnostics []models.Diagnostic
}

type EngineOption func(*Engine)

// WithConfigProvider installs a per-day strategy hook, e.g. for regime
// switching driven from outside the engine.
func WithConfigProvider(p ConfigProvider) EngineOption {
	return func(e *Engine) { e.provider = p }
}

// WithRunID pins the run id instead of deriving it from the clock.
func WithRunID(id string) EngineOption {
	return func(e *Engine) { e.runID = id }
}

// WithClock overrides the wall clock, for reproducible run metadata.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(cfg *config.Config, data *marketdata.Access, sentiment domsvc.SentimentScorer, metrics drepo.Metrics, l *applogger.Logger, opts ...EngineOption) (*Engine, error) {
	// Fail fast on bad weights before the loop starts.
	if _, err := scoring.NewTechnicalScorer(&cfg.Strategy); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		data:      data,
		sentiment: sentiment,
		portfolio: NewPortfolio(cfg.Backtest.InitialCapital, cfg.Strategy.SafetyCashReserve, cfg.Backtest.TransactionCostRate),
		metrics:   metrics,
		l:         l,
		now:       time.Now,
	}
	e.provider = func(time.Time) *config.StrategyConfig { return &e.cfg.Strategy }
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the full simulation and returns the persistable result.
func (e *Engine) Run(ctx context.Context) (*models.RunResult, error) {
	start, ok := util.ParseDate(e.cfg.Backtest.StartDate)
	if !ok {
		return nil, &config.ConfigError{Reason: "invalid start_date " + e.cfg.Backtest.StartDate}
	}
	end, ok := util.ParseDate(e.cfg.Backtest.EndDate)
	if !ok {
		return nil, &config.ConfigError{Reason: "invalid end_date " + e.cfg.Backtest.EndDate}
	}

	days := e.data.TradingDays(start, end)
	if e.l != nil {
		e.l.Info("backtest starting",
			applogger.Date("start", start),
			applogger.Date("end", end),
			applogger.Int("trading_days", len(days)),
			applogger.Float64("initial_capital", e.cfg.Backtest.InitialCapital),
		)
	}

	snapshots := make([]models.Snapshot, 0, len(days))
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dayStart := e.now()

		strategy := e.provider(day)
		scorer, err := scoring.NewTechnicalScorer(strategy)
		if err != nil {
			return nil, err
		}

		e.advanceCounters()
		e.exitPass(ctx, day, strategy, scorer)
		e.buyPass(ctx, day, strategy, scorer)

		snap := e.snapshot(day)
		snapshots = append(snapshots, snap)
		if e.metrics != nil {
			e.metrics.RecordPortfolioValue(snap.Value)
			e.metrics.RecordDayDuration(e.now().Sub(dayStart).Seconds())
		}
	}

	for _, ticker := range e.portfolio.HeldTickers() {
		pos := e.portfolio.Position(ticker)
		e.diag(end, ticker, "open_at_end",
			fmt.Sprintf("qty=%d entry=%.2f holding_days=%d", pos.Quantity, pos.EntryPrice, pos.HoldingDays))
	}

	result := &models.RunResult{
		RunID:       e.resolveRunID(),
		CreatedAt:   e.now().UTC(),
		StartDate:   start,
		EndDate:     end,
		Config:      e.configSnapshot(),
		Trades:      e.portfolio.Trades(),
		Snapshots:   snapshots,
		Diagnostics: e.diagnostics,
	}

	summary, err := AnalyzePerformance(snapshots, result.Trades)
	if err != nil {
		if e.l != nil {
			e.l.Warn("performance analysis skipped", applogger.Error(err))
		}
	} else {
		result.Summary = summary
	}

	if e.l != nil {
		e.l.Info("backtest finished",
			applogger.String("run_id", result.RunID),
			applogger.Int("trades", len(result.Trades)),
			applogger.Int("open_positions", e.portfolio.OpenCount()),
			applogger.Float64("final_cash", e.portfolio.Cash()),
		)
	}
	return result, nil
}

// Portfolio exposes the engine's portfolio, mainly for tests.
func (e *Engine) Portfolio() *Portfolio { return e.portfolio }

func (e *Engine) advanceCounters() {
	for _, ticker := range e.portfolio.HeldTickers() {
		e.portfolio.Position(ticker).HoldingDays++
	}
}

// exitPass evaluates each held position and executes sells first, then
// pyramid buys, all at the day's close.
func (e *Engine) exitPass(ctx context.Context, day time.Time, strategy *config.StrategyConfig, scorer *scoring.TechnicalScorer) {
	policy := NewExitPolicy(strategy)

	type pyramidOrder struct {
		ticker string
		price  float64
		score  float64
	}
	var pyramids []pyramidOrder

	for _, ticker := range e.portfolio.HeldTickers() {
		pos := e.portfolio.Position(ticker)
		bars, err := e.historyFor(ticker, day)
		if err != nil {
			// Ticker did not trade today. Keep the position, mark it
			// to the last known close and move on.
			if last, ok := e.data.LastClose(ticker, day); ok {
				e.portfolio.MarkPrice(ticker, last)
			}
			e.diag(day, ticker, "skip_data_unavailable", "held ticker has no bar today")
			continue
		}
		price := bars[len(bars)-1].Close
		e.portfolio.MarkPrice(ticker, price)

		verdict := policy.Evaluate(pos, bars, scorer.Score(bars))
		switch verdict.Decision {
		case DecisionSell:
			trade, err := e.portfolio.Sell(ticker, price, day, verdict.Reason)
			if err != nil {
				e.diag(day, ticker, "sell_failed", err.Error())
				continue
			}
			if e.metrics != nil {
				e.metrics.RecordTrade(string(models.ActionSell), string(verdict.Reason))
			}
			if e.l != nil {
				e.l.Info("position closed",
					applogger.String("ticker", ticker),
					applogger.Date("date", day),
					applogger.String("reason", string(verdict.Reason)),
					applogger.Float64("profit_rate", trade.ProfitRate),
					applogger.Int("held_days", trade.HeldDays),
				)
			}
		case DecisionExtend:
			pos.Extended = true
			e.diag(day, ticker, string(models.ReasonSignalExtend),
				fmt.Sprintf("holding limit now %d days", strategy.MaxHoldingDays+1))
		case DecisionPyramid:
			pyramids = append(pyramids, pyramidOrder{ticker: ticker, price: price, score: scorer.Score(bars)})
		}
	}

	for _, order := range pyramids {
		pos := e.portfolio.Position(order.ticker)
		amount := strategy.AmountFor(string(pos.Tier))
		if err := e.portfolio.Pyramid(order.ticker, order.price, amount, day, order.score); err != nil {
			e.skipBuy(day, order.ticker, err)
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordTrade(string(models.ActionBuy), string(models.ReasonPyramid))
		}
	}
}

// buyPass runs the selection funnel over the universe minus held
// tickers and fills the scheduled buys in rank order.
func (e *Engine) buyPass(ctx context.Context, day time.Time, strategy *config.StrategyConfig, scorer *scoring.TechnicalScorer) {
	if e.portfolio.OpenCount() >= strategy.MaxSelections {
		return
	}

	exclude := make(map[string]bool, e.portfolio.OpenCount())
	for _, ticker := range e.portfolio.HeldTickers() {
		exclude[ticker] = true
	}

	funnel := selection.New(strategy, scorer, e.sentiment, e.data, e.cfg.Backtest.Concurrency, e.l)
	candidates, err := funnel.Select(ctx, day, exclude)
	if err != nil {
		e.diag(day, "", "selection_failed", err.Error())
		return
	}

	for _, c := range candidates {
		if e.portfolio.OpenCount() >= strategy.MaxSelections {
			e.diag(day, c.Ticker, "skip_max_positions", "all position slots in use")
			continue
		}
		bar, err := e.data.Bar(c.Ticker, day)
		if err != nil {
			e.diag(day, c.Ticker, "skip_data_unavailable", err.Error())
			continue
		}
		amount := strategy.AmountFor(string(c.Tier))
		if err := e.portfolio.Buy(c.Ticker, bar.Close, amount, day, c.FinalScore, c.Tier, models.ReasonScheduled); err != nil {
			e.skipBuy(day, c.Ticker, err)
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordTrade(string(models.ActionBuy), string(models.ReasonScheduled))
		}
		if e.l != nil {
			e.l.Info("position opened",
				applogger.String("ticker", c.Ticker),
				applogger.Date("date", day),
				applogger.String("tier", string(c.Tier)),
				applogger.Float64("score", c.FinalScore),
			)
		}
	}
}

func (e *Engine) snapshot(day time.Time) models.Snapshot {
	prices := make(map[string]float64)
	for _, ticker := range e.portfolio.HeldTickers() {
		if bar, err := e.data.Bar(ticker, day); err == nil {
			prices[ticker] = bar.Close
		}
	}
	return e.portfolio.Snapshot(day, prices)
}

// historyFor returns trailing bars ending at today's bar, degrading to
// whatever shorter window exists as long as the ticker traded today.
func (e *Engine) historyFor(ticker string, day time.Time) ([]models.Bar, error) {
	need := scoring.MinHistory
	if e.cfg.Backtest.LookbackDays > need {
		need = e.cfg.Backtest.LookbackDays
	}
	bars, err := e.data.HistoryUpTo(ticker, day, need)
	if err != nil {
		return nil, err
	}
	if !bars[len(bars)-1].Date.Equal(day) {
		return nil, fmt.Errorf("%w: %s on %s", marketdata.ErrDataUnavailable, ticker, util.FormatDate(day))
	}
	return bars, nil
}

func (e *Engine) skipBuy(day time.Time, ticker string, err error) {
	reason := "buy_failed"
	switch {
	case errors.Is(err, ErrInsufficientCash):
		reason = "skip_insufficient_cash"
	case errors.Is(err, ErrAlreadyHeld):
		reason = "skip_already_held"
	}
	if e.metrics != nil {
		e.metrics.RecordSkippedBuy(reason)
	}
	e.diag(day, ticker, reason, err.Error())
}

func (e *Engine) diag(day time.Time, ticker, event, detail string) {
	e.diagnostics = append(e.diagnostics, models.Diagnostic{
		Date:   day,
		Ticker: ticker,
		Event:  event,
		Detail: detail,
	})
	if e.l != nil {
		e.l.Debug("diagnostic",
			applogger.Date("date", day),
			applogger.String("ticker", ticker),
			applogger.String("event", event),
			applogger.String("detail", detail),
		)
	}
}

func (e *Engine) resolveRunID() string {
	if e.runID != "" {
		return e.runID
	}
	return "run_" + e.now().UTC().Format("20060102_150405")
}

// configSnapshot embeds the effective parameters into the run output so
// a result file is self-describing.
func (e *Engine) configSnapshot() map[string]any {
	s := e.cfg.Strategy
	return map[string]any{
		"start_date":            e.cfg.Backtest.StartDate,
		"end_date":              e.cfg.Backtest.EndDate,
		"initial_capital":       e.cfg.Backtest.InitialCapital,
		"transaction_cost_rate": e.cfg.Backtest.TransactionCostRate,
		"lookback_days":         e.cfg.Backtest.LookbackDays,
		"max_selections":        s.MaxSelections,
		"min_close_days":        s.MinCloseDays,
		"ma_period":             s.MAPeriod,
		"min_trade_value":       s.MinTradeValue,
		"min_technical_score":   s.MinTechnicalScore,
		"shortlist_size":        s.ShortlistSize,
		"stop_loss_rate":        s.StopLossRate,
		"max_holding_days":      s.MaxHoldingDays,
		"extension_trigger_day": s.ExtensionTriggerDay,
		"sell_signal_threshold": s.SellSignalThreshold,
		"hold_signal_threshold": s.HoldSignalThreshold,
		"pyramiding_enabled":    s.Pyramiding.Enabled,
		"pyramiding_min_score":  s.Pyramiding.MinScore,
		"pyramiding_max_resets": s.Pyramiding.MaxResets,
		"safety_cash_reserve":   s.SafetyCashReserve,
		"weights":               s.TechnicalScoreWeights,
	}
}
