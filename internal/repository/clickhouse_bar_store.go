package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SwingLab/internal/domain/models"
	drepo "SwingLab/internal/domain/repository"
	pkgch "SwingLab/pkg/clickhouse"
	applogger "SwingLab/pkg/logger"
)

var _ drepo.BarStore = (*CHBarStore)(nil)

// CHBarStore implements BarStore backed by ClickHouse daily bars.
type CHBarStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, table string) *CHBarStore {
	return &CHBarStore{client: ch, db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarStore) LoadBars(ctx context.Context, from, to time.Time) (map[string][]models.Bar, error) {
	start := time.Now()
	const qtpl = `
        SELECT ticker, trade_date, open, high, low, close, volume, trade_value
        FROM %s
        WHERE trade_date >= ? AND trade_date <= ?
        ORDER BY ticker ASC, trade_date ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_bars query error",
				applogger.String("table", s.table),
				applogger.Date("from", from),
				applogger.Date("to", to),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Bar)
	total := 0
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TradeValue); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse load_bars scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out[b.Ticker] = append(out[b.Ticker], b)
		total++
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_bars rows error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse load_bars ok",
			applogger.String("table", s.table),
			applogger.Date("from", from),
			applogger.Date("to", to),
			applogger.Int("tickers", len(out)),
			applogger.Int("rows", total),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHBarStore) Close() error {
	return nil // Managed by pkg
}
