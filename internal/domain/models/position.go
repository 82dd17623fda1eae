package models

import "time"

// Position is an open holding in the portfolio.
type Position struct {
	Ticker      string
	Quantity    int64
	EntryPrice  float64 // weighted average across pyramid buys
	EntryDate   time.Time
	EntryScore  float64
	Tier        Tier
	HoldingDays int  // trading days since entry, advanced at day start
	Extended    bool // forced-exit limit already pushed out once
	Resets      int  // pyramid buys applied so far
}

// CurrentReturn is the unrealized return against the average entry price.
func (p *Position) CurrentReturn(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice
}
