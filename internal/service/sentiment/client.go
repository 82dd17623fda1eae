package sentiment

import (
	"context"
	"fmt"
	"time"

	domsvc "SwingLab/internal/domain/service"
	"SwingLab/internal/service/ratelimit"
	"SwingLab/pkg/config"
	xhttp "SwingLab/pkg/http"
	"SwingLab/pkg/util"
)

const limiterKey = "sentiment"

// HTTPClient scores tickers against an external sentiment service.
type HTTPClient struct {
	client  *xhttp.Client
	limiter *ratelimit.Limiter
}

func NewHTTPClient(cfg *config.Config) *HTTPClient {
	timeout := cfg.Sentiment.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClient{
		client:  xhttp.NewClient(cfg.Sentiment.BaseURL, xhttp.WithTimeout(timeout)),
		limiter: ratelimit.New(),
	}
}

type scoreReq struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
}

type scoreResp struct {
	Score float64 `json:"score"`
}

func (c *HTTPClient) Score(ctx context.Context, ticker string, date time.Time) (float64, error) {
	for !c.limiter.Allow(limiterKey, 10, 10) {
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	var resp scoreResp
	req := scoreReq{Ticker: ticker, Date: util.FormatDate(date)}
	if err := c.client.PostJSON(ctx, "/sentiment/score", req, &resp); err != nil {
		return 0, fmt.Errorf("score %s: %w", ticker, err)
	}
	return clamp01(resp.Score), nil
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

var _ domsvc.SentimentScorer = (*HTTPClient)(nil)
