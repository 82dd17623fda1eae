package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domsvc "SwingLab/internal/domain/service"
	"SwingLab/pkg/cache"
	applogger "SwingLab/pkg/logger"
	"SwingLab/pkg/util"
)

// Cached wraps a SentimentScorer with a cache so each (ticker, day)
// pair hits the upstream service at most once per TTL.
type Cached struct {
	next  domsvc.SentimentScorer
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCached(next domsvc.SentimentScorer, c cache.Service, ttl time.Duration, l *applogger.Logger) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl, l: l}
}

func (s *Cached) Score(ctx context.Context, ticker string, date time.Time) (float64, error) {
	key := fmt.Sprintf("sentiment:%s:%s", ticker, util.FormatDate(date))

	var cached float64
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && s.l != nil {
		s.l.Warn("sentiment cache read failed",
			applogger.String("key", key),
			applogger.Error(err),
		)
	}

	score, err := s.next.Score(ctx, ticker, date)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, key, score, s.ttl); err != nil && s.l != nil {
		s.l.Warn("sentiment cache write failed",
			applogger.String("key", key),
			applogger.Error(err),
		)
	}
	return score, nil
}

var _ domsvc.SentimentScorer = (*Cached)(nil)
