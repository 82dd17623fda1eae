package models

import "time"

// Action is the trade direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Reason records why a trade (or an extension) happened.
type Reason string

const (
	ReasonScheduled    Reason = "scheduled"
	ReasonPyramid      Reason = "pyramid"
	ReasonStopLoss     Reason = "stop_loss"
	ReasonMaxHold      Reason = "max_hold"
	ReasonSignalSell   Reason = "signal_sell"
	ReasonSignalExtend Reason = "signal_extend"
)

// Trade is a single executed order, recorded in the run output.
type Trade struct {
	Ticker     string    `json:"ticker"`
	Date       time.Time `json:"date"`
	Action     Action    `json:"action"`
	Reason     Reason    `json:"reason"`
	Quantity   int64     `json:"quantity"`
	Price      float64   `json:"price"`
	Fee        float64   `json:"fee"`
	Tier       Tier      `json:"tier,omitempty"`
	Score      float64   `json:"score,omitempty"`
	ProfitRate float64   `json:"profit_rate,omitempty"` // sells only, net of fees both legs
	HeldDays   int       `json:"held_days,omitempty"`   // sells only
}
