package repository

import (
	"context"
	"time"

	"SwingLab/internal/domain/models"
)

// BarStore provides read access to daily OHLCV history.
type BarStore interface {
	// LoadBars returns bars for the universe between from and to inclusive,
	// keyed by ticker and sorted by date ascending.
	LoadBars(ctx context.Context, from, to time.Time) (map[string][]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

// RunStore persists and retrieves backtest run outputs.
type RunStore interface {
	Save(ctx context.Context, result *models.RunResult) error
	List(ctx context.Context, limit int) ([]*models.RunResult, error)
	Get(ctx context.Context, runID string) (*models.RunResult, error)
}

// Metrics records simulation counters and gauges.
type Metrics interface {
	RecordTrade(action, reason string)
	RecordSkippedBuy(reason string)
	RecordPortfolioValue(value float64)
	RecordDayDuration(seconds float64)
}
