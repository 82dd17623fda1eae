package models

import "time"

// Snapshot captures the portfolio state at the end of one trading day.
type Snapshot struct {
	Date      time.Time          `json:"date"`
	Cash      float64            `json:"cash"`
	Value     float64            `json:"value"` // cash plus mark-to-market holdings
	Positions []PositionSnapshot `json:"positions"`
}

// PositionSnapshot is the per-holding slice of a daily snapshot.
type PositionSnapshot struct {
	Ticker      string  `json:"ticker"`
	Quantity    int64   `json:"quantity"`
	EntryPrice  float64 `json:"entry_price"`
	MarketPrice float64 `json:"market_price"`
	HoldingDays int     `json:"holding_days"`
	Tier        Tier    `json:"tier"`
}

// Diagnostic records a non-trade event worth keeping in the run output,
// such as a skipped buy or a holding extension.
type Diagnostic struct {
	Date    time.Time `json:"date"`
	Ticker  string    `json:"ticker,omitempty"`
	Event   string    `json:"event"`
	Detail  string    `json:"detail,omitempty"`
}

// TierStats aggregates realized results for trades entered at one tier.
type TierStats struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
	AvgRate float64 `json:"avg_profit_rate"`
}

// Summary is the performance report computed over the snapshot series.
type Summary struct {
	TotalReturn      float64              `json:"total_return"`
	AnnualizedReturn float64              `json:"annualized_return"`
	MaxDrawdown      float64              `json:"max_drawdown"`
	SharpeRatio      float64              `json:"sharpe_ratio"`
	WinRate          float64              `json:"win_rate"`
	AvgHoldingDays   float64              `json:"avg_holding_days"`
	TradeCount       int                  `json:"trade_count"`
	ByTier           map[string]TierStats `json:"by_tier"`
	ByScore          map[string]TierStats `json:"by_score"`
}

// RunResult is the full persisted output of one backtest run.
type RunResult struct {
	RunID       string         `json:"run_id"`
	CreatedAt   time.Time      `json:"created_at"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Config      map[string]any `json:"config"`
	Trades      []Trade        `json:"trades"`
	Snapshots   []Snapshot     `json:"snapshots"`
	Diagnostics []Diagnostic   `json:"diagnostics"`
	Summary     *Summary       `json:"summary,omitempty"`
}
