package service

import (
	"context"
	"time"
)

// SentimentScorer produces an external sentiment score in [0, 1] for a
// ticker as of a given trading day.
type SentimentScorer interface {
	Score(ctx context.Context, ticker string, date time.Time) (float64, error)
}
