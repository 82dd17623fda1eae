package scoring

import (
	"math"

	"SwingLab/internal/domain/models"
	"SwingLab/internal/services/indicators"
	"SwingLab/pkg/config"
)

const (
	rsiPeriod        = 14
	bollingerWindow  = 20
	bollingerStd     = 2.0
	volatilityWindow = 10
	volumeWindow     = 20
	sarStep          = 0.02
	sarMax           = 0.2
)

// MinHistory is the number of trailing bars the scorer needs to produce
// every sub-signal without falling back to neutral.
const MinHistory = bollingerWindow + 1

// TechnicalScorer computes the weighted composite entry score over the
// configured sub-signals. Each sub-signal maps to [0, 1] and degraded
// inputs (NaN from short or flat history) fall back to neutral 0.5.
type TechnicalScorer struct {
	weights  map[string]float64
	maPeriod int
}

func NewTechnicalScorer(strategy *config.StrategyConfig) (*TechnicalScorer, error) {
	weights := strategy.TechnicalScoreWeights
	if weights == nil {
		weights = config.DefaultWeights()
	}
	if err := config.ValidateWeights(weights); err != nil {
		return nil, err
	}
	return &TechnicalScorer{weights: weights, maPeriod: strategy.MAPeriod}, nil
}

// Score computes the composite score for the trailing bars, newest
// last. The result is always in [0, 1].
func (s *TechnicalScorer) Score(bars []models.Bar) float64 {
	signals := s.Signals(bars)
	total := 0.0
	for key, w := range s.weights {
		total += w * signals[key]
	}
	return clamp01(total)
}

// Signals exposes the individual sub-signal values, mostly for
// diagnostics and tests.
func (s *TechnicalScorer) Signals(bars []models.Bar) map[string]float64 {
	last := bars[len(bars)-1]

	trend := math.NaN()
	if ma := indicators.SMA(bars, s.maPeriod); !math.IsNaN(ma) && ma > 0 {
		// Deeper below the moving average scores higher, saturating at
		// 10% below (1.0) and 10% above (0.0).
		trend = (1.1 - last.Close/ma) / 0.2
	}

	rsi := math.NaN()
	if v := indicators.RSI(bars, rsiPeriod); !math.IsNaN(v) {
		// 25 and below saturates at 1, 75 and above at 0.
		rsi = (75 - v) / 50
	}

	oversold := math.NaN()
	if pos := indicators.BollingerPosition(bars, bollingerWindow, bollingerStd); !math.IsNaN(pos) {
		// Lower band (-1) maps to 1, upper band (+1) to 0.
		oversold = 0.5 - pos/2
	}

	sar := math.NaN()
	if v := indicators.ParabolicSAR(bars, sarStep, sarMax); !math.IsNaN(v) {
		if v < last.Close {
			sar = 1
		} else {
			sar = 0
		}
	}

	volume := math.NaN()
	if ratio := indicators.VolumeRatio(bars, volumeWindow); !math.IsNaN(ratio) {
		// Twice the recent average volume saturates the signal.
		volume = ratio / 2
	}

	volatility := math.NaN()
	if v := indicators.Volatility(bars, volatilityWindow); !math.IsNaN(v) {
		// Calm names score higher: 1% daily sigma maps to 1, 6% to 0.
		volatility = (0.06 - v) / 0.05
	}

	return map[string]float64{
		"trend":      normalize(trend),
		"rsi":        normalize(rsi),
		"oversold":   normalize(oversold),
		"sar":        normalize(sar),
		"volume":     normalize(volume),
		"volatility": normalize(volatility),
	}
}

func normalize(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
