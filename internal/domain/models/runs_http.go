package models

// Requests for the runs HTTP endpoints. Defined in domain for consistency and reuse.

type ListRunsRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type GetRunRequest struct {
	RunID string `param:"id" json:"run_id" validate:"required"`
}

// RunListItem is the compact per-run row returned by the list endpoint.
type RunListItem struct {
	RunID      string  `json:"run_id"`
	CreatedAt  string  `json:"created_at"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	TradeCount int     `json:"trade_count"`
	TotalRet   float64 `json:"total_return"`
}
