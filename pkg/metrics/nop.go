package metrics

// Nop is a no-op recorder for tests and metric-less runs.
type Nop struct{}

func (Nop) RecordTrade(action, reason string)  {}
func (Nop) RecordSkippedBuy(reason string)     {}
func (Nop) RecordPortfolioValue(value float64) {}
func (Nop) RecordDayDuration(seconds float64)  {}
