package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/usecase"
	"TrendPulse/pkg/config"
	applogger "TrendPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type stubMarket struct{}

func (stubMarket) ListSymbols(ctx context.Context, limit int) ([]models.SymbolInfo, error) {
	return nil, errors.New("unused")
}
func (stubMarket) GetCandles(ctx context.Context, symbol string, interval drepo.Interval, limit int) ([]models.Candle, error) {
	return nil, errors.New("unused")
}
func (stubMarket) GetOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	return nil, errors.New("unused")
}

type stubStore struct {
	pingErr error
	report  *models.CycleReport
}

func (s *stubStore) Load(ctx context.Context) (models.ModelState, error) {
	return models.ModelState{}, drepo.ErrNotFound
}
func (s *stubStore) Save(ctx context.Context, state models.ModelState) error { return nil }
func (s *stubStore) SaveResults(ctx context.Context, report *models.CycleReport) error {
	return nil
}
func (s *stubStore) LoadResults(ctx context.Context) (*models.CycleReport, error) {
	if s.report == nil {
		return nil, drepo.ErrNotFound
	}
	return s.report, nil
}
func (s *stubStore) Ping(ctx context.Context) error { return s.pingErr }

type stubMetrics struct{}

func (stubMetrics) RecordCycle(string, float64)     {}
func (stubMetrics) RecordEvaluation(float64)        {}
func (stubMetrics) RecordQualified(int)             {}
func (stubMetrics) RecordError(string)              {}
func (stubMetrics) RecordAccuracy(float64)          {}
func (stubMetrics) RecordLastPrice(string, float64) {}

type stubHistory struct {
	entries []models.HistoryEntry
	gotFrom time.Time
	gotTo   time.Time
}

func (s *stubHistory) StoreCycle(ctx context.Context, report *models.CycleReport) error { return nil }
func (s *stubHistory) QueryRange(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.HistoryEntry, error) {
	s.gotFrom, s.gotTo = from, to
	return s.entries, nil
}
func (s *stubHistory) Health(ctx context.Context) error { return nil }

func newHandler(t *testing.T, store drepo.ModelStore, history drepo.HistoryStore) *ScanEchoHandler {
	t.Helper()
	cfg := &config.Config{}
	cfg.Scan.PanelSymbols = []string{"BTCUSDT"}
	cfg.Scan.MinConfidence = 50
	cfg.Scan.Concurrency = 2

	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	scanner := usecase.NewScanner(cfg, stubMarket{}, store, nil, nil, nil, stubMetrics{}, l, nil)
	return NewScanEchoHandler(l, scanner, history)
}

func doRequest(t *testing.T, h func(echo.Context) error, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestScanSchedulesCycle(t *testing.T) {
	h := newHandler(t, &stubStore{}, nil)

	rec, envelope := doRequest(t, h.Scan, http.MethodPost, "/api/scan", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(http.StatusAccepted), envelope["status"])
}

func TestScanRejectsWhenStoreDown(t *testing.T) {
	h := newHandler(t, &stubStore{pingErr: errors.New("redis refused")}, nil)

	_, envelope := doRequest(t, h.Scan, http.MethodPost, "/api/scan", `{}`)

	require.Equal(t, float64(http.StatusServiceUnavailable), envelope["status"])
	data := envelope["data"].(map[string]interface{})
	require.False(t, data["scheduled"].(bool))
}

func TestResultsNotFoundBeforeFirstCycle(t *testing.T) {
	h := newHandler(t, &stubStore{}, nil)

	_, envelope := doRequest(t, h.Results, http.MethodGet, "/api/results", "")

	require.Equal(t, float64(http.StatusNotFound), envelope["status"])
}

func TestResultsFiltersByConfidence(t *testing.T) {
	store := &stubStore{report: &models.CycleReport{
		Qualified: 2,
		Results: []models.ScanResult{
			{Symbol: "AUSDT", Confidence: 80, Direction: models.DirectionUp},
			{Symbol: "BUSDT", Confidence: 55, Direction: models.DirectionDown},
		},
	}}
	h := newHandler(t, store, nil)

	_, envelope := doRequest(t, h.Results, http.MethodGet, "/api/results?min_confidence=60", "")

	require.Equal(t, float64(http.StatusOK), envelope["status"])
	data := envelope["data"].(map[string]interface{})
	results := data["results"].([]interface{})
	require.Len(t, results, 1)
	require.Equal(t, "AUSDT", results[0].(map[string]interface{})["symbol"])
}

func TestHistoryDisabled(t *testing.T) {
	h := newHandler(t, &stubStore{}, nil)

	_, envelope := doRequest(t, h.History, http.MethodGet, "/api/history", "")

	require.Equal(t, float64(http.StatusServiceUnavailable), envelope["status"])
}

func TestHistoryAlignsRangeToIntervalBuckets(t *testing.T) {
	history := &stubHistory{entries: []models.HistoryEntry{
		{CycleTS: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), ScanResult: models.ScanResult{Symbol: "AUSDT", Direction: models.DirectionUp}},
	}}
	h := newHandler(t, &stubStore{}, history)

	_, envelope := doRequest(t, h.History, http.MethodGet,
		"/api/history?symbol=AUSDT&from=2026-08-25T10:07:00Z&to=2026-08-25T12:22:00Z", "")

	require.Equal(t, float64(http.StatusOK), envelope["status"])
	require.Equal(t, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC), history.gotFrom)
	require.Equal(t, time.Date(2026, 8, 25, 12, 15, 0, 0, time.UTC), history.gotTo)

	data := envelope["data"].(map[string]interface{})
	entries := data["entries"].([]interface{})
	require.Len(t, entries, 1)
}

func TestHistoryRejectsInvertedRange(t *testing.T) {
	h := newHandler(t, &stubStore{}, &stubHistory{})

	_, envelope := doRequest(t, h.History, http.MethodGet,
		"/api/history?from=2026-08-25T12:00:00Z&to=2026-08-25T10:00:00Z", "")

	require.Equal(t, float64(http.StatusBadRequest), envelope["status"])
}

func TestHealth(t *testing.T) {
	h := newHandler(t, &stubStore{}, nil)

	_, envelope := doRequest(t, h.Health, http.MethodGet, "/healthz", "")

	require.Equal(t, float64(http.StatusOK), envelope["status"])
	data := envelope["data"].(map[string]interface{})
	require.Equal(t, "ok", data["status"])
	require.False(t, data["running"].(bool))
}
