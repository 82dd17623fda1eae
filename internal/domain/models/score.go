package models

// ScoreKind tells how a candidate score was produced.
type ScoreKind string

const (
	ScoreTechnical ScoreKind = "technical"
	ScoreHybrid    ScoreKind = "hybrid"
)

// Tier is the conviction band derived from the final candidate score.
type Tier string

const (
	TierHighest Tier = "highest"
	TierHigh    Tier = "high"
	TierMedium  Tier = "medium"
	TierLow     Tier = "low"
)

// TierFor maps a final score to its conviction band.
func TierFor(score float64) Tier {
	switch {
	case score >= 0.80:
		return TierHighest
	case score >= 0.70:
		return TierHigh
	case score >= 0.65:
		return TierMedium
	default:
		return TierLow
	}
}

// Candidate is a ticker that survived the selection funnel, carrying
// both its raw technical score and the final (possibly hybrid) score.
type Candidate struct {
	Ticker         string
	TechnicalScore float64
	SentimentScore float64
	FinalScore     float64
	Kind           ScoreKind
	Tier           Tier
}
