package marketdata

import (
	"errors"
	"testing"
	"time"

	"SwingLab/internal/domain/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func seriesFor(ticker string, closes []float64, startDay int) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{
			Ticker: ticker,
			Date:   day(startDay + i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

func TestAccessHistory(t *testing.T) {
	a := New(map[string][]models.Bar{
		"AAA": seriesFor("AAA", []float64{10, 11, 12, 13, 14}, 1),
	})

	bars, err := a.History("AAA", day(4), 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Close != 11 || bars[2].Close != 13 {
		t.Fatalf("unexpected window: %v .. %v", bars[0].Close, bars[2].Close)
	}
}

func TestAccessHistoryInsufficient(t *testing.T) {
	a := New(map[string][]models.Bar{
		"AAA": seriesFor("AAA", []float64{10, 11}, 1),
	})
	if _, err := a.History("AAA", day(2), 5); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if _, err := a.History("BBB", day(2), 1); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for unknown ticker, got %v", err)
	}
}

func TestAccessBarMissingDay(t *testing.T) {
	a := New(map[string][]models.Bar{
		"AAA": {
			{Ticker: "AAA", Date: day(1), Close: 10},
			{Ticker: "AAA", Date: day(3), Close: 12}, // day 2 halted
		},
		"BBB": {
			{Ticker: "BBB", Date: day(2), Close: 20},
		},
	})

	if _, err := a.Bar("AAA", day(2)); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}

	got, ok := a.LastClose("AAA", day(2))
	if !ok || got != 10 {
		t.Fatalf("expected last close 10, got %v (%v)", got, ok)
	}
}

func TestAccessTradingDaysUnion(t *testing.T) {
	a := New(map[string][]models.Bar{
		"AAA": {{Ticker: "AAA", Date: day(1), Close: 10}, {Ticker: "AAA", Date: day(3), Close: 11}},
		"BBB": {{Ticker: "BBB", Date: day(2), Close: 20}},
	})

	days := a.TradingDays(day(1), day(3))
	if len(days) != 3 {
		t.Fatalf("expected 3 trading days, got %d", len(days))
	}
	for i, want := range []time.Time{day(1), day(2), day(3)} {
		if !days[i].Equal(want) {
			t.Fatalf("day %d = %v, want %v", i, days[i], want)
		}
	}

	if got := a.TradingDays(day(2), day(2)); len(got) != 1 || !got[0].Equal(day(2)) {
		t.Fatalf("range filter failed: %v", got)
	}
}

func TestAccessUniverseSorted(t *testing.T) {
	a := New(map[string][]models.Bar{
		"CCC": seriesFor("CCC", []float64{1}, 1),
		"AAA": seriesFor("AAA", []float64{1}, 1),
		"BBB": seriesFor("BBB", []float64{1}, 1),
	})
	u := a.Universe()
	if len(u) != 3 || u[0] != "AAA" || u[2] != "CCC" {
		t.Fatalf("universe not sorted: %v", u)
	}
}
