package api

import (
	"errors"
	"net/http"
	"time"

	models "TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/usecase"
	xhttp "TrendPulse/pkg/http"
	xlogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScanEchoHandler exposes the scanner over Echo.
type ScanEchoHandler struct {
	logger  *xlogger.Logger
	scanner *usecase.Scanner
	history drepo.HistoryStore
}

// NewScanEchoHandler creates the scanner API handler. history may be nil when
// ClickHouse storage is disabled.
func NewScanEchoHandler(logger *xlogger.Logger, scanner *usecase.Scanner, history drepo.HistoryStore) *ScanEchoHandler {
	return &ScanEchoHandler{logger: logger, scanner: scanner, history: history}
}

func (h *ScanEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scan", h.Scan)
	g.GET("/model", h.Model)
	g.GET("/results", h.Results)
	g.GET("/history", h.History)
	e.GET("/healthz", h.Health)
}

// Scan triggers one cycle. The call acknowledges as soon as the cycle is
// scheduled; real failures surface only via logs.
func (h *ScanEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()

	// A persistence outage makes the whole cycle pointless: the learner could
	// not save and the next process restart would silently lose the model.
	if err := h.scanner.PingStore(ctx); err != nil {
		h.logger.Error("model store unreachable", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, models.ScanAck{
			Scheduled: false,
			Message:   "model store unavailable",
		})
	}

	if err := h.scanner.TryStartCycle(ctx, req.Limit, req.Notify); err != nil {
		if errors.Is(err, usecase.ErrCycleRunning) {
			return xhttp.DataResponse(c, http.StatusConflict, models.ScanAck{
				Scheduled: false,
				Message:   "cycle already running",
			})
		}
		h.logger.Error("cycle start failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	return xhttp.DataResponse(c, http.StatusAccepted, models.ScanAck{
		Scheduled: true,
		Message:   "scan cycle scheduled",
	})
}

// Model returns the current in-memory model state.
func (h *ScanEchoHandler) Model(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scanner.Model())
}

// Results returns the last completed cycle's report, filtered by the request.
func (h *ScanEchoHandler) Results(c echo.Context) error {
	req := &models.ResultsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.scanner.LastReport(c.Request().Context())
	if err != nil {
		if errors.Is(err, drepo.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "no completed cycle yet")
		}
		h.logger.Error("results load failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	filtered := make([]models.ScanResult, 0, len(report.Results))
	for _, r := range report.Results {
		if r.Confidence < req.MinConfidence {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) >= req.Limit {
			break
		}
	}
	report.Results = filtered
	return xhttp.SuccessResponse(c, report)
}

// History returns persisted scan results over a time range, newest first. The
// range is aligned to candle-interval buckets so repeated queries hit the same
// ClickHouse ranges.
func (h *ScanEchoHandler) History(c echo.Context) error {
	if h.history == nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "history storage disabled")
	}

	now := time.Now().UTC()
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.Add(-24*time.Hour))
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	if !from.Before(to) {
		return xhttp.BadRequestResponse(c, "from must precede to")
	}
	from, to = util.AlignFromTo(from, to, string(h.scanner.Interval()))

	entries, err := h.history.QueryRange(c.Request().Context(), c.QueryParam("symbol"), from, to, limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"from":    from,
		"to":      to,
		"entries": entries,
	})
}

// Health reports process liveness and cycle state.
func (h *ScanEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":  "ok",
		"running": h.scanner.IsRunning(),
	})
}
