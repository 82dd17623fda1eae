package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"SwingLab/internal/domain/models"
	"SwingLab/internal/domain/repository"
	applogger "SwingLab/pkg/logger"
	"SwingLab/pkg/util"
)

// ErrDataUnavailable is returned when a ticker has no usable history
// for the requested day.
var ErrDataUnavailable = errors.New("market data unavailable")

// Access serves daily bars out of a preloaded in-memory snapshot so a
// whole simulation runs without touching storage again. Lookups are
// keyed by ticker and calendar day.
type Access struct {
	bars    map[string][]models.Bar
	byDay   map[string]map[string]models.Bar // date key -> ticker -> bar
	days    []time.Time                      // union of trading days, ascending
	tickers []string                         // sorted universe
}

// Load pulls history for [from-lookback, to] from the store and builds
// the in-memory access structure. The lookback padding gives indicator
// windows enough history before the first simulated day.
func Load(ctx context.Context, store repository.BarStore, from, to time.Time, lookbackDays int, l *applogger.Logger) (*Access, error) {
	// Calendar padding: markets trade roughly 5 of 7 days, so stretch
	// the lookback window before converting to calendar days.
	pad := time.Duration(lookbackDays*2) * 24 * time.Hour
	bars, err := store.LoadBars(ctx, from.Add(-pad), to)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	a := New(bars)
	if l != nil {
		l.Info("market data loaded",
			applogger.Date("from", from),
			applogger.Date("to", to),
			applogger.Int("tickers", len(a.tickers)),
			applogger.Int("trading_days", len(a.days)),
		)
	}
	return a, nil
}

// New builds an Access from bars already in memory. Bars per ticker
// must be sorted by date ascending.
func New(bars map[string][]models.Bar) *Access {
	a := &Access{
		bars:  bars,
		byDay: make(map[string]map[string]models.Bar),
	}
	daySet := make(map[string]time.Time)
	for ticker, series := range bars {
		a.tickers = append(a.tickers, ticker)
		for _, b := range series {
			key := util.FormatDate(b.Date)
			daySet[key] = util.TruncateDate(b.Date)
			m, ok := a.byDay[key]
			if !ok {
				m = make(map[string]models.Bar)
				a.byDay[key] = m
			}
			m[ticker] = b
		}
	}
	sort.Strings(a.tickers)
	a.days = make([]time.Time, 0, len(daySet))
	for _, d := range daySet {
		a.days = append(a.days, d)
	}
	sort.Slice(a.days, func(i, j int) bool { return a.days[i].Before(a.days[j]) })
	return a
}

// Universe returns all known tickers sorted ascending.
func (a *Access) Universe() []string {
	return a.tickers
}

// TradingDays returns the trading days within [from, to], ascending.
func (a *Access) TradingDays(from, to time.Time) []time.Time {
	out := make([]time.Time, 0, len(a.days))
	for _, d := range a.days {
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Bar returns the bar for ticker on day, or ErrDataUnavailable when the
// ticker did not trade that day.
func (a *Access) Bar(ticker string, day time.Time) (models.Bar, error) {
	m, ok := a.byDay[util.FormatDate(day)]
	if !ok {
		return models.Bar{}, fmt.Errorf("%w: no bars on %s", ErrDataUnavailable, util.FormatDate(day))
	}
	b, ok := m[ticker]
	if !ok {
		return models.Bar{}, fmt.Errorf("%w: %s on %s", ErrDataUnavailable, ticker, util.FormatDate(day))
	}
	return b, nil
}

// History returns up to n bars for ticker ending at day inclusive,
// oldest first. It fails with ErrDataUnavailable when fewer than n bars
// exist up to that day.
func (a *Access) History(ticker string, day time.Time, n int) ([]models.Bar, error) {
	series, ok := a.bars[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ticker)
	}
	end := sort.Search(len(series), func(i int) bool { return series[i].Date.After(day) })
	if end < n {
		return nil, fmt.Errorf("%w: %s has %d bars before %s, need %d",
			ErrDataUnavailable, ticker, end, util.FormatDate(day), n)
	}
	return series[end-n : end], nil
}

// HistoryUpTo is like History but degrades to whatever shorter window
// exists, returning at least one bar or ErrDataUnavailable.
func (a *Access) HistoryUpTo(ticker string, day time.Time, n int) ([]models.Bar, error) {
	series, ok := a.bars[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ticker)
	}
	end := sort.Search(len(series), func(i int) bool { return series[i].Date.After(day) })
	if end == 0 {
		return nil, fmt.Errorf("%w: %s before %s", ErrDataUnavailable, ticker, util.FormatDate(day))
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return series[start:end], nil
}

// LastClose returns the most recent close for ticker at or before day.
// Used to mark stale holdings to market when a ticker skips a day.
func (a *Access) LastClose(ticker string, day time.Time) (float64, bool) {
	series, ok := a.bars[ticker]
	if !ok {
		return 0, false
	}
	end := sort.Search(len(series), func(i int) bool { return series[i].Date.After(day) })
	if end == 0 {
		return 0, false
	}
	return series[end-1].Close, true
}
