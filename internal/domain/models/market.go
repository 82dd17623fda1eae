package models

import "time"

// Bar represents a single daily OHLCV record for one ticker.
type Bar struct {
	Ticker     string
	Date       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	TradeValue float64 // turnover in quote currency for the day
}
