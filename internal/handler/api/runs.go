package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"SwingLab/internal/domain/models"
	drepo "SwingLab/internal/domain/repository"
	"SwingLab/internal/repository"
	xhttp "SwingLab/pkg/http"
	xlogger "SwingLab/pkg/logger"
	"SwingLab/pkg/util"
)

// RunsHandler serves persisted backtest runs over HTTP.
type RunsHandler struct {
	logger *xlogger.Logger
	store  drepo.RunStore
}

func NewRunsHandler(logger *xlogger.Logger, store drepo.RunStore) *RunsHandler {
	return &RunsHandler{logger: logger, store: store}
}

func (h *RunsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/runs", h.List)
	g.GET("/runs/:id", h.Get)
}

func (h *RunsHandler) List(c echo.Context) error {
	req := &models.ListRunsRequest{}
	if !xhttp.ReadAndValidateRequest(c, req) {
		return nil
	}

	runs, err := h.store.List(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("run list failed", xlogger.Error(err))
		return xhttp.ErrorResponse(c, xhttp.InternalError("failed to list runs"))
	}

	items := make([]models.RunListItem, 0, len(runs))
	for _, run := range runs {
		item := models.RunListItem{
			RunID:      run.RunID,
			CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			StartDate:  util.FormatDate(run.StartDate),
			EndDate:    util.FormatDate(run.EndDate),
			TradeCount: len(run.Trades),
		}
		if run.Summary != nil {
			item.TotalRet = run.Summary.TotalReturn
		}
		items = append(items, item)
	}
	return xhttp.ListResponse(c, items, len(items))
}

func (h *RunsHandler) Get(c echo.Context) error {
	req := &models.GetRunRequest{}
	if !xhttp.ReadAndValidateRequest(c, req) {
		return nil
	}

	run, err := h.store.Get(c.Request().Context(), req.RunID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return xhttp.NotFoundResponse(c, "run not found")
		}
		h.logger.Error("run lookup failed",
			xlogger.String("run_id", req.RunID),
			xlogger.Error(err),
		)
		return xhttp.ErrorResponse(c, xhttp.InternalError("failed to load run"))
	}
	return xhttp.DataResponse(c, run)
}
