package usecase

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"SwingLab/internal/domain/models"
)

var (
	// ErrInsufficientCash rejects a buy that would push cash below the
	// safety reserve, or one too small to afford a single share.
	ErrInsufficientCash = errors.New("insufficient cash")
	// ErrAlreadyHeld rejects a plain buy for a ticker already held.
	ErrAlreadyHeld = errors.New("position already held")
	// ErrNoPosition rejects a sell for a ticker not held.
	ErrNoPosition = errors.New("no open position")
)

// Portfolio owns cash and open positions. All mutation goes through
// Buy/Sell/Pyramid on the engine goroutine; nothing here locks.
type Portfolio struct {
	cash      float64
	reserve   float64
	costRate  float64
	positions map[string]*models.Position
	trades    []models.Trade
	lastKnown map[string]float64 // last close seen per held ticker
}

func NewPortfolio(initialCash, safetyReserve, costRate float64) *Portfolio {
	return &Portfolio{
		cash:      initialCash,
		reserve:   safetyReserve,
		costRate:  costRate,
		positions: make(map[string]*models.Position),
		lastKnown: make(map[string]float64),
	}
}

// Cash returns the current free cash.
func (p *Portfolio) Cash() float64 { return p.cash }

// Trades returns the executed trade log, oldest first.
func (p *Portfolio) Trades() []models.Trade { return p.trades }

// Position returns the open position for ticker, or nil.
func (p *Portfolio) Position(ticker string) *models.Position {
	return p.positions[ticker]
}

// OpenCount returns the number of open positions.
func (p *Portfolio) OpenCount() int { return len(p.positions) }

// HeldTickers returns the open tickers sorted ascending.
func (p *Portfolio) HeldTickers() []string {
	out := make([]string, 0, len(p.positions))
	for t := range p.positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Held reports whether ticker has an open position.
func (p *Portfolio) Held(ticker string) bool {
	_, ok := p.positions[ticker]
	return ok
}

// Buy opens a new position, spending up to amount at price. The whole
// amount is checked against the reserve before sizing, then the actual
// cost including the fee is checked again.
func (p *Portfolio) Buy(ticker string, price, amount float64, date time.Time, score float64, tier models.Tier, reason models.Reason) error {
	if p.Held(ticker) {
		return fmt.Errorf("%w: %s", ErrAlreadyHeld, ticker)
	}
	qty, fee, cost, err := p.size(price, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", ticker, err)
	}

	p.cash -= cost
	p.positions[ticker] = &models.Position{
		Ticker:     ticker,
		Quantity:   qty,
		EntryPrice: price,
		EntryDate:  date,
		EntryScore: score,
		Tier:       tier,
	}
	p.lastKnown[ticker] = price
	p.trades = append(p.trades, models.Trade{
		Ticker:   ticker,
		Date:     date,
		Action:   models.ActionBuy,
		Reason:   reason,
		Quantity: qty,
		Price:    price,
		Fee:      fee,
		Tier:     tier,
		Score:    score,
	})
	return nil
}

// Pyramid adds to an existing position at price, re-averaging the entry
// price, resetting the holding counter and bumping the reset count. The
// caller enforces the score gate and the reset cap.
func (p *Portfolio) Pyramid(ticker string, price, amount float64, date time.Time, score float64) error {
	pos, ok := p.positions[ticker]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPosition, ticker)
	}
	qty, fee, cost, err := p.size(price, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", ticker, err)
	}

	p.cash -= cost
	total := pos.Quantity + qty
	pos.EntryPrice = (pos.EntryPrice*float64(pos.Quantity) + price*float64(qty)) / float64(total)
	pos.Quantity = total
	pos.EntryScore = score
	pos.HoldingDays = 0
	pos.Resets++
	p.lastKnown[ticker] = price
	p.trades = append(p.trades, models.Trade{
		Ticker:   ticker,
		Date:     date,
		Action:   models.ActionBuy,
		Reason:   models.ReasonPyramid,
		Quantity: qty,
		Price:    price,
		Fee:      fee,
		Tier:     pos.Tier,
		Score:    score,
	})
	return nil
}

// size turns a target amount into whole shares and verifies the cash
// floor twice: on the requested amount, then on the actual cost.
func (p *Portfolio) size(price, amount float64) (qty int64, fee, cost float64, err error) {
	if price <= 0 || amount <= 0 {
		return 0, 0, 0, ErrInsufficientCash
	}
	if p.cash-amount < p.reserve {
		return 0, 0, 0, ErrInsufficientCash
	}
	qty = int64(math.Floor(amount / price))
	if qty <= 0 {
		return 0, 0, 0, ErrInsufficientCash
	}
	gross := float64(qty) * price
	fee = gross * p.costRate
	cost = gross + fee
	if p.cash-cost < p.reserve {
		return 0, 0, 0, ErrInsufficientCash
	}
	return qty, fee, cost, nil
}

// Sell closes the full position at price. The profit rate nets the
// transaction cost on both legs.
func (p *Portfolio) Sell(ticker string, price float64, date time.Time, reason models.Reason) (models.Trade, error) {
	pos, ok := p.positions[ticker]
	if !ok {
		return models.Trade{}, fmt.Errorf("%w: %s", ErrNoPosition, ticker)
	}

	gross := float64(pos.Quantity) * price
	fee := gross * p.costRate
	net := gross - fee
	basis := float64(pos.Quantity) * pos.EntryPrice * (1 + p.costRate)
	profitRate := 0.0
	if basis > 0 {
		profitRate = (net - basis) / basis
	}

	p.cash += net
	trade := models.Trade{
		Ticker:     ticker,
		Date:       date,
		Action:     models.ActionSell,
		Reason:     reason,
		Quantity:   pos.Quantity,
		Price:      price,
		Fee:        fee,
		Tier:       pos.Tier,
		Score:      pos.EntryScore,
		ProfitRate: profitRate,
		HeldDays:   pos.HoldingDays,
	}
	p.trades = append(p.trades, trade)
	delete(p.positions, ticker)
	delete(p.lastKnown, ticker)
	return trade, nil
}

// MarkPrice records the latest close for a held ticker so valuation can
// fall back to it on days the ticker does not trade.
func (p *Portfolio) MarkPrice(ticker string, price float64) {
	if p.Held(ticker) {
		p.lastKnown[ticker] = price
	}
}

// Snapshot values the portfolio against prices, falling back to the
// last known close for tickers missing from the map.
func (p *Portfolio) Snapshot(date time.Time, prices map[string]float64) models.Snapshot {
	snap := models.Snapshot{
		Date:      date,
		Cash:      p.cash,
		Value:     p.cash,
		Positions: make([]models.PositionSnapshot, 0, len(p.positions)),
	}
	for _, ticker := range p.HeldTickers() {
		pos := p.positions[ticker]
		price, ok := prices[ticker]
		if !ok {
			price = p.lastKnown[ticker]
		}
		snap.Value += float64(pos.Quantity) * price
		snap.Positions = append(snap.Positions, models.PositionSnapshot{
			Ticker:      ticker,
			Quantity:    pos.Quantity,
			EntryPrice:  pos.EntryPrice,
			MarketPrice: price,
			HoldingDays: pos.HoldingDays,
			Tier:        pos.Tier,
		})
	}
	return snap
}
