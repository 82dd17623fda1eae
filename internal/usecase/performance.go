package usecase

import (
	"errors"
	"math"

	"SwingLab/internal/domain/models"
)

// ErrInsufficientData is returned when the snapshot series is too short
// to compute performance statistics.
var ErrInsufficientData = errors.New("insufficient data for performance analysis")

const tradingDaysPerYear = 252

// AnalyzePerformance computes the run summary from the snapshot series
// and the trade log. It is pure: no engine or portfolio state involved.
func AnalyzePerformance(snapshots []models.Snapshot, trades []models.Trade) (*models.Summary, error) {
	if len(snapshots) < 2 {
		return nil, ErrInsufficientData
	}

	first := snapshots[0].Value
	last := snapshots[len(snapshots)-1].Value
	totalReturn := 0.0
	if first > 0 {
		totalReturn = (last - first) / first
	}

	summary := &models.Summary{
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualize(totalReturn, len(snapshots)),
		MaxDrawdown:      maxDrawdown(snapshots),
		SharpeRatio:      sharpe(snapshots),
		ByTier:           make(map[string]models.TierStats),
		ByScore:          make(map[string]models.TierStats),
	}

	sells := 0
	wins := 0
	heldSum := 0
	for _, t := range trades {
		if t.Action != models.ActionSell {
			continue
		}
		sells++
		heldSum += t.HeldDays
		if t.ProfitRate > 0 {
			wins++
		}
		accumulate(summary.ByTier, string(t.Tier), t.ProfitRate)
		accumulate(summary.ByScore, scoreBucket(t.Score), t.ProfitRate)
	}
	summary.TradeCount = sells
	if sells > 0 {
		summary.WinRate = float64(wins) / float64(sells)
		summary.AvgHoldingDays = float64(heldSum) / float64(sells)
	}
	finalize(summary.ByTier)
	finalize(summary.ByScore)
	return summary, nil
}

// annualize compounds the total return over the observed trading days.
func annualize(totalReturn float64, snapshotCount int) float64 {
	days := snapshotCount - 1
	if days <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(days)) - 1
}

func maxDrawdown(snapshots []models.Snapshot) float64 {
	peak := snapshots[0].Value
	worst := 0.0
	for _, s := range snapshots {
		if s.Value > peak {
			peak = s.Value
		}
		if peak > 0 {
			dd := (peak - s.Value) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpe annualizes the mean daily return over its standard deviation.
// A zero-variance series scores 0, not infinity.
func sharpe(snapshots []models.Snapshot) float64 {
	rets := make([]float64, 0, len(snapshots)-1)
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].Value
		if prev <= 0 {
			return 0
		}
		rets = append(rets, snapshots[i].Value/prev-1)
	}
	if len(rets) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	variance := 0.0
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets))
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

func scoreBucket(score float64) string {
	switch {
	case score >= 0.8:
		return ">=0.8"
	case score >= 0.7:
		return "0.7-0.8"
	case score >= 0.6:
		return "0.6-0.7"
	default:
		return "<0.6"
	}
}

// accumulate abuses TierStats as a running sum: AvgRate carries the
// profit-rate total until finalize divides it out.
func accumulate(m map[string]models.TierStats, key string, profitRate float64) {
	s := m[key]
	s.Trades++
	if profitRate > 0 {
		s.Wins++
	}
	s.AvgRate += profitRate
	m[key] = s
}

func finalize(m map[string]models.TierStats) {
	for key, s := range m {
		if s.Trades > 0 {
			s.WinRate = float64(s.Wins) / float64(s.Trades)
			s.AvgRate /= float64(s.Trades)
		}
		m[key] = s
	}
}
