package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"SwingLab/internal/domain/models"
	"SwingLab/pkg/config"
)

func defaultStrategy() *config.StrategyConfig {
	return &config.StrategyConfig{
		MAPeriod:              20,
		TechnicalScoreWeights: config.DefaultWeights(),
	}
}

func barsFromCloses(closes ...float64) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 100,
		}
	}
	return out
}

func TestNewTechnicalScorerRejectsBadWeights(t *testing.T) {
	s := defaultStrategy()
	s.TechnicalScoreWeights = map[string]float64{"trend": 0.9, "rsi": 0.3}
	if _, err := NewTechnicalScorer(s); err == nil {
		t.Fatalf("expected weight sum error")
	} else {
		var cerr *config.ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected ConfigError, got %T", err)
		}
	}

	s.TechnicalScoreWeights = map[string]float64{"momentum": 1.0}
	if _, err := NewTechnicalScorer(s); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestScoreNeutralOnShortHistory(t *testing.T) {
	scorer, err := NewTechnicalScorer(defaultStrategy())
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	// Two bars cannot feed any window except SAR; every other signal
	// must degrade to 0.5 rather than NaN.
	score := scorer.Score(barsFromCloses(10, 10))
	if math.IsNaN(score) {
		t.Fatalf("score must never be NaN")
	}
	if score < 0 || score > 1 {
		t.Fatalf("score %v out of range", score)
	}
}

func TestScoreRangeInvariant(t *testing.T) {
	scorer, err := NewTechnicalScorer(defaultStrategy())
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3)
	}
	score := scorer.Score(barsFromCloses(closes...))
	if score < 0 || score > 1 {
		t.Fatalf("score %v out of range", score)
	}
}

func TestScorePrefersPullback(t *testing.T) {
	scorer, err := NewTechnicalScorer(defaultStrategy())
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}

	// Steady decline toward the lower band versus a steady ramp up.
	declining := make([]float64, 30)
	rising := make([]float64, 30)
	for i := range declining {
		declining[i] = 120 - float64(i)
		rising[i] = 90 + float64(i)
	}
	down := scorer.Score(barsFromCloses(declining...))
	up := scorer.Score(barsFromCloses(rising...))
	if down <= up {
		t.Fatalf("pullback score %v should beat extended rally %v", down, up)
	}
}

func TestSignalsAllPresent(t *testing.T) {
	scorer, err := NewTechnicalScorer(defaultStrategy())
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	signals := scorer.Signals(barsFromCloses(10, 11, 12))
	for _, key := range config.WeightKeys {
		v, ok := signals[key]
		if !ok {
			t.Fatalf("missing signal %q", key)
		}
		if v < 0 || v > 1 {
			t.Fatalf("signal %q = %v out of range", key, v)
		}
	}
}

func TestHoldSignalProfitVsLoss(t *testing.T) {
	bars := barsFromCloses(10, 10.2, 10.4, 10.6, 10.8, 11)
	inProfit := HoldSignal(bars, 10) // +10%
	inLoss := HoldSignal(bars, 11.5) // about -4%
	if inProfit <= inLoss {
		t.Fatalf("profit hold %v should exceed loss hold %v", inProfit, inLoss)
	}
	if inProfit < 0 || inProfit > 1 || inLoss < 0 || inLoss > 1 {
		t.Fatalf("hold signal out of range: %v, %v", inProfit, inLoss)
	}
}
