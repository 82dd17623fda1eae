package usecase

import (
	"errors"
	"math"
	"testing"
	"time"

	"SwingLab/internal/domain/models"
)

var testDay = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func TestPortfolioBuyAndSellRoundTrip(t *testing.T) {
	p := NewPortfolio(1_000_000, 0, 0.003)

	if err := p.Buy("AAA", 100, 1000, testDay, 0.82, models.TierHighest, models.ReasonScheduled); err != nil {
		t.Fatalf("buy: %v", err)
	}
	pos := p.Position("AAA")
	if pos == nil || pos.Quantity != 10 {
		t.Fatalf("expected 10 shares, got %+v", pos)
	}
	wantCash := 1_000_000 - 10*100*1.003
	if math.Abs(p.Cash()-wantCash) > 1e-9 {
		t.Fatalf("cash = %v, want %v", p.Cash(), wantCash)
	}

	trade, err := p.Sell("AAA", 110, testDay.AddDate(0, 0, 3), models.ReasonSignalSell)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	// Basis 1003, net proceeds 1100 - 3.3.
	wantRate := (1100 - 3.3 - 1003) / 1003
	if math.Abs(trade.ProfitRate-wantRate) > 1e-9 {
		t.Fatalf("profit rate = %v, want %v", trade.ProfitRate, wantRate)
	}
	if p.Held("AAA") {
		t.Fatalf("position should be closed")
	}
	if len(p.Trades()) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(p.Trades()))
	}
}

func TestPortfolioBuyRespectsReserve(t *testing.T) {
	p := NewPortfolio(1_000_000, 900_000, 0.003)

	err := p.Buy("AAA", 100, 200_000, testDay, 0.7, models.TierHigh, models.ReasonScheduled)
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}
	if p.Held("AAA") || len(p.Trades()) != 0 {
		t.Fatalf("rejected buy must not mutate state")
	}

	// A smaller order that keeps the reserve intact goes through.
	if err := p.Buy("AAA", 100, 50_000, testDay, 0.7, models.TierHigh, models.ReasonScheduled); err != nil {
		t.Fatalf("buy within reserve: %v", err)
	}
}

func TestPortfolioBuyRejectsTinyAmount(t *testing.T) {
	p := NewPortfolio(1_000_000, 0, 0.003)
	// Amount below one share's price cannot fill.
	if err := p.Buy("AAA", 5000, 1000, testDay, 0.7, models.TierLow, models.ReasonScheduled); !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}
}

func TestPortfolioBuyAlreadyHeld(t *testing.T) {
	p := NewPortfolio(1_000_000, 0, 0.003)
	if err := p.Buy("AAA", 100, 1000, testDay, 0.7, models.TierHigh, models.ReasonScheduled); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := p.Buy("AAA", 100, 1000, testDay, 0.7, models.TierHigh, models.ReasonScheduled); !errors.Is(err, ErrAlreadyHeld) {
		t.Fatalf("expected ErrAlreadyHeld, got %v", err)
	}
}

func TestPortfolioSellNoPosition(t *testing.T) {
	p := NewPortfolio(1_000_000, 0, 0.003)
	if _, err := p.Sell("AAA", 100, testDay, models.ReasonStopLoss); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}
}

func TestPortfolioPyramidAveragesEntry(t *testing.T) {
	p := NewPortfolio(1_000_000, 0, 0)

	if err := p.Buy("AAA", 100, 1000, testDay, 0.8, models.TierHighest, models.ReasonScheduled); err != nil {
		t.Fatalf("buy: %v", err)
	}
	pos := p.Position("AAA")
	pos.HoldingDays = 2

	if err := p.Pyramid("AAA", 90, 900, testDay.AddDate(0, 0, 2), 0.85); err != nil {
		t.Fatalf("pyramid: %v", err)
	}
	// 10 @ 100 plus 10 @ 90.
	if pos.Quantity != 20 {
		t.Fatalf("quantity = %d, want 20", pos.Quantity)
	}
	if math.Abs(pos.EntryPrice-95) > 1e-9 {
		t.Fatalf("entry price = %v, want 95", pos.EntryPrice)
	}
	if pos.HoldingDays != 0 {
		t.Fatalf("holding counter must reset, got %d", pos.HoldingDays)
	}
	if pos.Resets != 1 {
		t.Fatalf("resets = %d, want 1", pos.Resets)
	}
	if pos.EntryScore != 0.85 {
		t.Fatalf("entry score = %v, want 0.85", pos.EntryScore)
	}
}

func TestPortfolioCashNeverNegative(t *testing.T) {
	p := NewPortfolio(10_000, 0, 0.003)
	for i, ticker := range []string{"AAA", "BBB", "CCC", "DDD"} {
		err := p.Buy(ticker, 100, 3000, testDay.AddDate(0, 0, i), 0.7, models.TierMedium, models.ReasonScheduled)
		if err != nil && !errors.Is(err, ErrInsufficientCash) {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Cash() < 0 {
			t.Fatalf("cash went negative: %v", p.Cash())
		}
	}
}

func TestPortfolioSnapshotFallsBackToLastKnown(t *testing.T) {
	p := NewPortfolio(1_000_000, 0, 0)
	if err := p.Buy("AAA", 100, 1000, testDay, 0.8, models.TierHigh, models.ReasonScheduled); err != nil {
		t.Fatalf("buy: %v", err)
	}
	p.MarkPrice("AAA", 105)

	snap := p.Snapshot(testDay.AddDate(0, 0, 1), map[string]float64{})
	if len(snap.Positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(snap.Positions))
	}
	if snap.Positions[0].MarketPrice != 105 {
		t.Fatalf("market price = %v, want last known 105", snap.Positions[0].MarketPrice)
	}
	wantValue := p.Cash() + 10*105
	if math.Abs(snap.Value-wantValue) > 1e-9 {
		t.Fatalf("value = %v, want %v", snap.Value, wantValue)
	}
}
