package usecase

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"SwingLab/internal/domain/models"
	"SwingLab/internal/service/marketdata"
	"SwingLab/pkg/config"
	"SwingLab/pkg/logger"
	"SwingLab/pkg/metrics"
)

func engineDay(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// declineBars produces count declining bars starting at top, stepping
// down by one per day. All bars are bullish candles with heavy
// turnover, so the final bar passes the hard filter.
func declineBars(ticker string, top float64, count int) []models.Bar {
	out := make([]models.Bar, count)
	for i := range out {
		c := top - float64(i)
		out[i] = models.Bar{
			Ticker:     ticker,
			Date:       engineDay(i),
			Open:       c - 0.5,
			High:       c + 1,
			Low:        c - 1,
			Close:      c,
			Volume:     1000,
			TradeValue: 2e9,
		}
	}
	return out
}

// dojiBar builds a flat close == open bar, which never passes the
// bullish-candle clause.
func dojiBar(ticker string, date time.Time, close float64) models.Bar {
	return models.Bar{
		Ticker:     ticker,
		Date:       date,
		Open:       close,
		High:       close,
		Low:        close,
		Close:      close,
		Volume:     1000,
		TradeValue: 2e9,
	}
}

func engineConfig(start, end string) *config.Config {
	cfg := &config.Config{}
	cfg.Backtest.StartDate = start
	cfg.Backtest.EndDate = end
	cfg.Backtest.InitialCapital = 1e7
	cfg.Backtest.TransactionCostRate = 0.003
	cfg.Backtest.LookbackDays = 25
	cfg.Backtest.Concurrency = 2
	cfg.Strategy = *exitStrategy()
	cfg.Strategy.Pyramiding.Enabled = false
	cfg.Strategy.SafetyCashReserve = 2e6
	cfg.Strategy.InvestmentAmounts.Highest = 1.2e6
	cfg.Strategy.InvestmentAmounts.High = 9e5
	cfg.Strategy.InvestmentAmounts.Medium = 6e5
	cfg.Strategy.InvestmentAmounts.Low = 4e5
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, bars map[string][]models.Bar, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{
		WithRunID("test-run"),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }),
	}, opts...)
	e, err := NewEngine(cfg, marketdata.New(bars), nil, metrics.Nop{}, logger.Nop(), opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

// Flat doji universe: nothing is ever selected, the run still produces
// a full snapshot series.
func TestEngineFlatUniverseNoTrades(t *testing.T) {
	bars := make([]models.Bar, 0, 36)
	for i := 0; i < 36; i++ {
		bars = append(bars, dojiBar("AAA", engineDay(i), 100))
	}
	cfg := engineConfig("2024-01-30", "2024-02-05")

	result, err := newTestEngine(t, cfg, map[string][]models.Bar{"AAA": bars}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Fatalf("flat universe must produce no trades, got %d", len(result.Trades))
	}
	if len(result.Snapshots) != 7 {
		t.Fatalf("expected 7 snapshots, got %d", len(result.Snapshots))
	}
	for _, snap := range result.Snapshots {
		if snap.Value != cfg.Backtest.InitialCapital {
			t.Fatalf("idle capital must stay put, got %v", snap.Value)
		}
	}
}

// A held position that gaps down 6%% is stop-lossed before any buy
// that day, and the sell precedes the day's buy in the trade log.
func TestEngineStopLossBeforeBuys(t *testing.T) {
	aaa := declineBars("AAA", 120, 30) // bought at the close of day 29
	aaa = append(aaa, models.Bar{
		Ticker: "AAA", Date: engineDay(30),
		Open: 86, High: 86, Low: 84, Close: 85, // -6.6% vs entry 91
		Volume: 1000, TradeValue: 2e9,
	})

	// BBB fails the filter on day 29 (doji) and passes on day 30.
	bbb := declineBars("BBB", 150, 30)
	bbb[29] = dojiBar("BBB", engineDay(29), bbb[29].Close)
	bbb = append(bbb, models.Bar{
		Ticker: "BBB", Date: engineDay(30),
		Open: 119, High: 121, Low: 118, Close: 120,
		Volume: 1000, TradeValue: 2e9,
	})

	cfg := engineConfig("2024-01-30", "2024-01-31")
	engine := newTestEngine(t, cfg, map[string][]models.Bar{"AAA": aaa, "BBB": bbb})
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var sellIdx, buyBBBIdx = -1, -1
	for i, tr := range result.Trades {
		if tr.Ticker == "AAA" && tr.Action == models.ActionSell {
			if tr.Reason != models.ReasonStopLoss {
				t.Fatalf("AAA sell reason = %s, want stop_loss", tr.Reason)
			}
			sellIdx = i
		}
		if tr.Ticker == "BBB" && tr.Action == models.ActionBuy {
			buyBBBIdx = i
		}
	}
	if sellIdx == -1 {
		t.Fatalf("expected a stop-loss sell of AAA, trades: %+v", result.Trades)
	}
	if buyBBBIdx != -1 && buyBBBIdx < sellIdx {
		t.Fatalf("same-day buy must come after the stop-loss sell")
	}
}

// With no other trigger, a position is sold by the forced limit exactly
// when its counter reaches max_holding_days.
func TestEngineMaxHoldSellsAtCounterFive(t *testing.T) {
	aaa := declineBars("AAA", 120, 30)
	last := aaa[29].Close
	for i := 30; i < 36; i++ {
		aaa = append(aaa, dojiBar("AAA", engineDay(i), last))
	}

	cfg := engineConfig("2024-01-30", "2024-02-05")
	engine := newTestEngine(t, cfg, map[string][]models.Bar{"AAA": aaa})
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Trades) != 2 {
		t.Fatalf("expected buy then sell, got %+v", result.Trades)
	}
	buy, sell := result.Trades[0], result.Trades[1]
	if buy.Action != models.ActionBuy || !buy.Date.Equal(engineDay(29)) {
		t.Fatalf("unexpected buy: %+v", buy)
	}
	if sell.Reason != models.ReasonMaxHold {
		t.Fatalf("sell reason = %s, want max_hold", sell.Reason)
	}
	if sell.HeldDays != 5 {
		t.Fatalf("held days = %d, want exactly 5", sell.HeldDays)
	}
	if !sell.Date.Equal(engineDay(34)) {
		t.Fatalf("sell date = %v, want %v", sell.Date, engineDay(34))
	}
}

// A buy that would break the safety reserve is skipped with a
// diagnostic; the day and the run continue.
func TestEngineReserveSkipsBuyAndContinues(t *testing.T) {
	aaa := declineBars("AAA", 120, 30)
	aaa = append(aaa, dojiBar("AAA", engineDay(30), aaa[29].Close))

	cfg := engineConfig("2024-01-30", "2024-01-31")
	cfg.Backtest.InitialCapital = 2.5e6 // reserve 2e6 leaves less than one tier amount

	engine := newTestEngine(t, cfg, map[string][]models.Bar{"AAA": aaa})
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %+v", result.Trades)
	}

	found := false
	for _, d := range result.Diagnostics {
		if d.Event == "skip_insufficient_cash" && d.Ticker == "AAA" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected skip_insufficient_cash diagnostic, got %+v", result.Diagnostics)
	}
	if len(result.Snapshots) != 2 {
		t.Fatalf("run must continue after the skip, snapshots: %d", len(result.Snapshots))
	}
}

// Re-running on identical inputs yields byte-identical trades and
// snapshots.
func TestEngineDeterministicRerun(t *testing.T) {
	universe := map[string][]models.Bar{}
	for _, ticker := range []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG"} {
		series := declineBars(ticker, 120, 30)
		last := series[29].Close
		for i := 30; i < 36; i++ {
			series = append(series, dojiBar(ticker, engineDay(i), last))
		}
		universe[ticker] = series
	}
	cfg := engineConfig("2024-01-30", "2024-02-05")

	run := func() *models.RunResult {
		result, err := newTestEngine(t, cfg, universe).Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result
	}

	first := run()
	if len(first.Trades) == 0 {
		t.Fatalf("expected trades in the determinism fixture")
	}
	firstTrades, _ := json.Marshal(first.Trades)
	firstSnaps, _ := json.Marshal(first.Snapshots)

	for i := 0; i < 3; i++ {
		again := run()
		againTrades, _ := json.Marshal(again.Trades)
		againSnaps, _ := json.Marshal(again.Snapshots)
		if string(againTrades) != string(firstTrades) {
			t.Fatalf("trade log diverged on rerun %d", i)
		}
		if string(againSnaps) != string(firstSnaps) {
			t.Fatalf("snapshot series diverged on rerun %d", i)
		}
	}
}

// Pyramiding adds to a conviction position at most twice.
func TestEnginePyramidCappedAtTwoResets(t *testing.T) {
	// A steep decline on swelling volume keeps the technical score
	// above the pyramid gate day after day.
	aaa := make([]models.Bar, 50)
	for i := range aaa {
		c := 170 - 2*float64(i)
		aaa[i] = models.Bar{
			Ticker:     "AAA",
			Date:       engineDay(i),
			Open:       c - 0.5,
			High:       c + 1,
			Low:        c - 1,
			Close:      c,
			Volume:     1000 * math.Pow(1.1, float64(i)),
			TradeValue: 2e9,
		}
	}

	cfg := engineConfig("2024-01-30", "2024-02-19")
	cfg.Strategy.Pyramiding.Enabled = true
	cfg.Strategy.Pyramiding.MinScore = 0.75
	cfg.Strategy.Pyramiding.MaxResets = 2
	cfg.Strategy.StopLossRate = -0.5 // keep the decline from stopping out

	engine := newTestEngine(t, cfg, map[string][]models.Bar{"AAA": aaa})
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// The cap is per position: count pyramids inside each buy..sell
	// cycle, not across the whole run.
	cycle := 0
	sawPyramid := false
	for _, tr := range result.Trades {
		switch {
		case tr.Action == models.ActionBuy && tr.Reason == models.ReasonScheduled:
			cycle = 0
		case tr.Reason == models.ReasonPyramid:
			cycle++
			sawPyramid = true
			if cycle > 2 {
				t.Fatalf("pyramid resets exceeded cap within one position: %+v", result.Trades)
			}
		}
	}
	if !sawPyramid {
		t.Fatalf("fixture should trigger at least one pyramid, trades: %+v", result.Trades)
	}
	if pos := engine.Portfolio().Position("AAA"); pos != nil && pos.Resets > 2 {
		t.Fatalf("position resets = %d, cap is 2", pos.Resets)
	}
}
