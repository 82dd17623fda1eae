package usecase

import (
	"SwingLab/internal/domain/models"
	"SwingLab/internal/services/scoring"
	"SwingLab/pkg/config"
)

// ExitDecision is the single action the exit policy picks for one
// position on one day. First match wins; there is never more than one.
type ExitDecision int

const (
	DecisionHold ExitDecision = iota
	DecisionSell
	DecisionExtend
	DecisionPyramid
)

// ExitVerdict carries the decision plus the reason recorded in the
// trade log or diagnostics.
type ExitVerdict struct {
	Decision ExitDecision
	Reason   models.Reason
}

// ExitPolicy evaluates open positions against the stop-loss, the
// forced holding limit and the dynamic hold signal, in that order.
type ExitPolicy struct {
	strategy *config.StrategyConfig
}

func NewExitPolicy(strategy *config.StrategyConfig) *ExitPolicy {
	return &ExitPolicy{strategy: strategy}
}

// maxHold returns the forced-exit limit for pos, including a granted
// extension.
func (e *ExitPolicy) maxHold(pos *models.Position) int {
	limit := e.strategy.MaxHoldingDays
	if pos.Extended {
		limit++
	}
	return limit
}

// Evaluate decides what happens to pos today. The position's holding
// counter must already have been advanced for the day. bars is the
// trailing history ending at today's bar; todayScore is today's
// technical score for the ticker (NaN-free, neutral 0.5 when unknown).
func (e *ExitPolicy) Evaluate(pos *models.Position, bars []models.Bar, todayScore float64) ExitVerdict {
	price := bars[len(bars)-1].Close

	// Stop-loss outranks everything, including same-day signals.
	if pos.CurrentReturn(price) <= e.strategy.StopLossRate {
		return ExitVerdict{Decision: DecisionSell, Reason: models.ReasonStopLoss}
	}

	if pos.HoldingDays >= e.maxHold(pos) {
		return ExitVerdict{Decision: DecisionSell, Reason: models.ReasonMaxHold}
	}

	hold := scoring.HoldSignal(bars, pos.EntryPrice)
	if hold <= e.strategy.SellSignalThreshold {
		return ExitVerdict{Decision: DecisionSell, Reason: models.ReasonSignalSell}
	}
	if !pos.Extended && pos.HoldingDays == e.strategy.ExtensionTriggerDay && hold >= e.strategy.HoldSignalThreshold {
		return ExitVerdict{Decision: DecisionExtend, Reason: models.ReasonSignalExtend}
	}

	if e.strategy.Pyramiding.Enabled &&
		pos.Resets < e.strategy.Pyramiding.MaxResets &&
		todayScore >= e.strategy.Pyramiding.MinScore {
		return ExitVerdict{Decision: DecisionPyramid, Reason: models.ReasonPyramid}
	}

	return ExitVerdict{Decision: DecisionHold}
}
