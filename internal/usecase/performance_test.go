package usecase

import (
	"errors"
	"math"
	"testing"
	"time"

	"SwingLab/internal/domain/models"
)

func snapshotSeries(values ...float64) []models.Snapshot {
	out := make([]models.Snapshot, len(values))
	for i, v := range values {
		out[i] = models.Snapshot{
			Date:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Value: v,
		}
	}
	return out
}

func TestAnalyzePerformanceInsufficientData(t *testing.T) {
	if _, err := AnalyzePerformance(snapshotSeries(100), nil); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := AnalyzePerformance(nil, nil); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for empty series, got %v", err)
	}
}

func TestAnalyzePerformanceTotalAndAnnualized(t *testing.T) {
	// 10% over 4 trading days (5 snapshots).
	summary, err := AnalyzePerformance(snapshotSeries(100, 102, 104, 108, 110), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if math.Abs(summary.TotalReturn-0.10) > 1e-9 {
		t.Fatalf("total return = %v, want 0.10", summary.TotalReturn)
	}
	want := math.Pow(1.10, 252.0/4.0) - 1
	if math.Abs(summary.AnnualizedReturn-want) > 1e-9 {
		t.Fatalf("annualized = %v, want %v", summary.AnnualizedReturn, want)
	}
}

func TestAnalyzePerformanceMaxDrawdown(t *testing.T) {
	summary, err := AnalyzePerformance(snapshotSeries(100, 120, 90, 110), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	// Peak 120 down to 90.
	if math.Abs(summary.MaxDrawdown-0.25) > 1e-9 {
		t.Fatalf("max drawdown = %v, want 0.25", summary.MaxDrawdown)
	}
}

func TestAnalyzePerformanceFlatSharpeIsZero(t *testing.T) {
	summary, err := AnalyzePerformance(snapshotSeries(100, 100, 100, 100), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if summary.SharpeRatio != 0 {
		t.Fatalf("flat series Sharpe = %v, want 0", summary.SharpeRatio)
	}
	if summary.AnnualizedReturn != 0 {
		t.Fatalf("flat series annualized = %v, want 0", summary.AnnualizedReturn)
	}
}

func TestAnalyzePerformanceSegmentation(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{Action: models.ActionBuy, Ticker: "AAA", Date: day, Tier: models.TierHighest, Score: 0.85},
		{Action: models.ActionSell, Ticker: "AAA", Date: day.AddDate(0, 0, 3), Tier: models.TierHighest, Score: 0.85, ProfitRate: 0.04, HeldDays: 3},
		{Action: models.ActionSell, Ticker: "BBB", Date: day.AddDate(0, 0, 5), Tier: models.TierMedium, Score: 0.66, ProfitRate: -0.02, HeldDays: 5},
		{Action: models.ActionSell, Ticker: "CCC", Date: day.AddDate(0, 0, 4), Tier: models.TierHighest, Score: 0.82, ProfitRate: 0.02, HeldDays: 4},
	}
	summary, err := AnalyzePerformance(snapshotSeries(100, 101, 102), trades)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if summary.TradeCount != 3 {
		t.Fatalf("trade count = %d, want 3 (sells only)", summary.TradeCount)
	}
	if math.Abs(summary.WinRate-2.0/3.0) > 1e-9 {
		t.Fatalf("win rate = %v, want 2/3", summary.WinRate)
	}
	if math.Abs(summary.AvgHoldingDays-4) > 1e-9 {
		t.Fatalf("avg holding days = %v, want 4", summary.AvgHoldingDays)
	}

	highest := summary.ByTier[string(models.TierHighest)]
	if highest.Trades != 2 || highest.Wins != 2 {
		t.Fatalf("highest tier stats wrong: %+v", highest)
	}
	if math.Abs(highest.AvgRate-0.03) > 1e-9 {
		t.Fatalf("highest avg rate = %v, want 0.03", highest.AvgRate)
	}

	top := summary.ByScore[">=0.8"]
	if top.Trades != 2 {
		t.Fatalf("score bucket >=0.8 trades = %d, want 2", top.Trades)
	}
	mid := summary.ByScore["0.6-0.7"]
	if mid.Trades != 1 || mid.Wins != 0 {
		t.Fatalf("score bucket 0.6-0.7 stats wrong: %+v", mid)
	}
}
