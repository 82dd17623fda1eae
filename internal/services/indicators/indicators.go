package indicators

import (
	"math"

	"SwingLab/internal/domain/models"
)

// SMA returns the simple moving average of the closes over the trailing
// window ending at the last bar. Returns NaN if the window does not fit.
func SMA(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return math.NaN()
	}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(window)
}

// RSI computes the Wilder relative strength index over the trailing
// period. Returns NaN when history is too short, 100 when there are no
// losses in the window.
func RSI(bars []models.Bar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return math.NaN()
	}
	gains := 0.0
	losses := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		diff := bars[i].Close - bars[i-1].Close
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	if losses == 0 {
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}

// BollingerPosition locates the last close inside its Bollinger band,
// scaled so -1 is the lower band, 0 the middle, +1 the upper. Values
// are clamped to [-1, 1]. Returns NaN on short history or zero width.
func BollingerPosition(bars []models.Bar, window int, numStd float64) float64 {
	if window <= 1 || len(bars) < window {
		return math.NaN()
	}
	mid := SMA(bars, window)
	sum2 := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		d := bars[i].Close - mid
		sum2 += d * d
	}
	std := math.Sqrt(sum2 / float64(window))
	if std == 0 {
		return math.NaN()
	}
	pos := (bars[len(bars)-1].Close - mid) / (numStd * std)
	if pos > 1 {
		pos = 1
	}
	if pos < -1 {
		pos = -1
	}
	return pos
}

// ParabolicSAR runs the standard SAR recursion over the full series and
// returns the SAR value for the last bar. Returns NaN on short history.
func ParabolicSAR(bars []models.Bar, afStep, afMax float64) float64 {
	if len(bars) < 2 {
		return math.NaN()
	}
	uptrend := bars[1].Close >= bars[0].Close
	sar := bars[0].Low
	ep := bars[0].High
	if !uptrend {
		sar = bars[0].High
		ep = bars[0].Low
	}
	af := afStep

	for i := 1; i < len(bars); i++ {
		sar = sar + af*(ep-sar)
		if uptrend {
			if bars[i].Low < sar {
				uptrend = false
				sar = ep
				ep = bars[i].Low
				af = afStep
				continue
			}
			if bars[i].High > ep {
				ep = bars[i].High
				af = math.Min(af+afStep, afMax)
			}
		} else {
			if bars[i].High > sar {
				uptrend = true
				sar = ep
				ep = bars[i].High
				af = afStep
				continue
			}
			if bars[i].Low < ep {
				ep = bars[i].Low
				af = math.Min(af+afStep, afMax)
			}
		}
	}
	return sar
}

// Volatility computes the standard deviation of daily close-to-close
// returns over the trailing window. Returns NaN on short history.
func Volatility(bars []models.Bar, window int) float64 {
	if window <= 1 || len(bars) < window+1 {
		return math.NaN()
	}
	rets := make([]float64, 0, window)
	for i := len(bars) - window; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev <= 0 {
			return math.NaN()
		}
		rets = append(rets, bars[i].Close/prev-1)
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	sum2 := 0.0
	for _, r := range rets {
		d := r - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(rets)))
}

// VolumeRatio compares the last bar's volume to the average volume of
// the preceding window. Returns NaN on short history or zero baseline.
func VolumeRatio(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(bars) - window - 1; i < len(bars)-1; i++ {
		sum += bars[i].Volume
	}
	avg := sum / float64(window)
	if avg == 0 {
		return math.NaN()
	}
	return bars[len(bars)-1].Volume / avg
}

// IsMinClose reports whether the last close is the minimum close of the
// trailing window including the last bar itself.
func IsMinClose(bars []models.Bar, window int) bool {
	if window <= 0 || len(bars) < window {
		return false
	}
	last := bars[len(bars)-1].Close
	for i := len(bars) - window; i < len(bars); i++ {
		if bars[i].Close < last {
			return false
		}
	}
	return true
}
