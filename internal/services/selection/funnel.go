package selection

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"SwingLab/internal/domain/models"
	domsvc "SwingLab/internal/domain/service"
	"SwingLab/internal/service/marketdata"
	"SwingLab/internal/services/indicators"
	"SwingLab/internal/services/scoring"
	"SwingLab/pkg/config"
	applogger "SwingLab/pkg/logger"
)

const (
	hybridTechnicalWeight = 0.7
	hybridSentimentWeight = 0.3
)

// Funnel narrows the tradable universe to the day's buy candidates in
// three stages: a cheap hard filter, concurrent technical ranking, and
// hybrid blending with an optional sentiment collaborator.
type Funnel struct {
	strategy    *config.StrategyConfig
	scorer      *scoring.TechnicalScorer
	sentiment   domsvc.SentimentScorer // nil disables hybrid blending
	data        *marketdata.Access
	concurrency int
	l           *applogger.Logger
}

func New(strategy *config.StrategyConfig, scorer *scoring.TechnicalScorer, sentiment domsvc.SentimentScorer, data *marketdata.Access, concurrency int, l *applogger.Logger) *Funnel {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Funnel{
		strategy:    strategy,
		scorer:      scorer,
		sentiment:   sentiment,
		data:        data,
		concurrency: concurrency,
		l:           l,
	}
}

// Select returns up to max_selections candidates for day, best first.
// Tickers in exclude (already held) never enter the funnel.
func (f *Funnel) Select(ctx context.Context, day time.Time, exclude map[string]bool) ([]models.Candidate, error) {
	survivors := f.hardFilter(day, exclude)
	if len(survivors) == 0 {
		return nil, nil
	}

	shortlist := f.rankTechnical(ctx, day, survivors)
	if len(shortlist) == 0 {
		return nil, nil
	}

	candidates := f.blend(ctx, day, shortlist)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FinalScore != candidates[j].FinalScore {
			return candidates[i].FinalScore > candidates[j].FinalScore
		}
		if candidates[i].TechnicalScore != candidates[j].TechnicalScore {
			return candidates[i].TechnicalScore > candidates[j].TechnicalScore
		}
		return candidates[i].Ticker < candidates[j].Ticker
	})
	if len(candidates) > f.strategy.MaxSelections {
		candidates = candidates[:f.strategy.MaxSelections]
	}
	for i := range candidates {
		candidates[i].Tier = models.TierFor(candidates[i].FinalScore)
	}
	return candidates, nil
}

// lookback returns how many trailing bars stage 1 and 2 need.
func (f *Funnel) lookback() int {
	n := scoring.MinHistory
	if f.strategy.MAPeriod+1 > n {
		n = f.strategy.MAPeriod + 1
	}
	if f.strategy.MinCloseDays > n {
		n = f.strategy.MinCloseDays
	}
	return n
}

type scoredTicker struct {
	ticker string
	bars   []models.Bar
	score  float64
	weight float64 // trade value weighted score for shortlist ordering
}

func (f *Funnel) hardFilter(day time.Time, exclude map[string]bool) []scoredTicker {
	need := f.lookback()
	out := make([]scoredTicker, 0, 64)
	for _, ticker := range f.data.Universe() {
		if exclude[ticker] {
			continue
		}
		bars, err := f.data.History(ticker, day, need)
		if err != nil {
			if !errors.Is(err, marketdata.ErrDataUnavailable) && f.l != nil {
				f.l.Warn("history lookup failed",
					applogger.String("ticker", ticker),
					applogger.Error(err),
				)
			}
			continue
		}
		last := bars[len(bars)-1]
		if !last.Date.Equal(day) {
			continue // did not trade today
		}
		if !indicators.IsMinClose(bars, f.strategy.MinCloseDays) {
			continue
		}
		if ma := indicators.SMA(bars, f.strategy.MAPeriod); !(last.Close < ma) {
			continue
		}
		if !(last.Close > last.Open) {
			continue
		}
		if last.TradeValue < f.strategy.MinTradeValue {
			continue
		}
		out = append(out, scoredTicker{ticker: ticker, bars: bars})
	}
	return out
}

// rankTechnical scores survivors concurrently, drops the weak ones and
// keeps the shortlist ordered by trade-value-weighted score. Workers
// write to their own index so the merge is deterministic.
func (f *Funnel) rankTechnical(ctx context.Context, day time.Time, survivors []scoredTicker) []scoredTicker {
	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup
	for i := range survivors {
		wg.Add(1)
		sem <- struct{}{}
		go func(st *scoredTicker) {
			defer wg.Done()
			defer func() { <-sem }()
			st.score = f.scorer.Score(st.bars)
			st.weight = st.bars[len(st.bars)-1].TradeValue * st.score
		}(&survivors[i])
	}
	wg.Wait()

	shortlist := survivors[:0]
	for _, st := range survivors {
		if st.score < f.strategy.MinTechnicalScore {
			continue
		}
		shortlist = append(shortlist, st)
	}
	sort.SliceStable(shortlist, func(i, j int) bool {
		if shortlist[i].weight != shortlist[j].weight {
			return shortlist[i].weight > shortlist[j].weight
		}
		return shortlist[i].ticker < shortlist[j].ticker
	})
	if len(shortlist) > f.strategy.ShortlistSize {
		shortlist = shortlist[:f.strategy.ShortlistSize]
	}
	return shortlist
}

// blend attaches sentiment where available. A failed sentiment lookup
// downgrades that ticker to technical-only rather than dropping it.
func (f *Funnel) blend(ctx context.Context, day time.Time, shortlist []scoredTicker) []models.Candidate {
	out := make([]models.Candidate, 0, len(shortlist))
	for _, st := range shortlist {
		c := models.Candidate{
			Ticker:         st.ticker,
			TechnicalScore: st.score,
			FinalScore:     st.score,
			Kind:           models.ScoreTechnical,
		}
		if f.sentiment != nil {
			sent, err := f.sentiment.Score(ctx, st.ticker, day)
			if err != nil {
				if f.l != nil {
					f.l.Warn("sentiment unavailable, using technical score",
						applogger.String("ticker", st.ticker),
						applogger.Date("date", day),
						applogger.Error(err),
					)
				}
			} else {
				c.SentimentScore = sent
				c.FinalScore = hybridTechnicalWeight*st.score + hybridSentimentWeight*sent
				c.Kind = models.ScoreHybrid
			}
		}
		out = append(out, c)
	}
	return out
}
