package scoring

import (
	"math"

	"SwingLab/internal/domain/models"
	"SwingLab/internal/services/indicators"
)

const holdShortMA = 5

// HoldSignal scores how strongly an open position should be kept,
// starting from a neutral 0.5 and nudging on momentum, overbought and
// distribution cues. Results near 0 argue for selling, near 1 for
// holding on.
func HoldSignal(bars []models.Bar, entryPrice float64) float64 {
	score := 0.5
	last := bars[len(bars)-1]

	if rsi := indicators.RSI(bars, rsiPeriod); !math.IsNaN(rsi) {
		switch {
		case rsi > 70:
			score -= 0.15
		case rsi < 40:
			score += 0.10
		}
	}

	if ma := indicators.SMA(bars, holdShortMA); !math.IsNaN(ma) {
		if last.Close >= ma {
			score += 0.05
		} else {
			score -= 0.10
		}
	}

	if entryPrice > 0 {
		ret := (last.Close - entryPrice) / entryPrice
		switch {
		case ret > 0.03:
			score += 0.10
		case ret < -0.02:
			score -= 0.10
		}
	}

	// Heavy volume on a down close reads as distribution.
	if ratio := indicators.VolumeRatio(bars, volumeWindow); !math.IsNaN(ratio) {
		if ratio > 2 && last.Close < last.Open {
			score -= 0.10
		}
	}

	if pos := indicators.BollingerPosition(bars, bollingerWindow, bollingerStd); !math.IsNaN(pos) {
		if pos > 0.8 {
			score -= 0.10
		}
	}

	return clamp01(score)
}
