package usecase

import (
	"strings"
	"testing"
	"time"

	"TrendPulse/internal/domain/models"

	"github.com/stretchr/testify/require"
)

func sampleReport() *models.CycleReport {
	return &models.CycleReport{
		StartedAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		Duration:  "3.2s",
		Universe:  100,
		Evaluated: 100,
		Qualified: 2,
		Model:     models.ModelState{Weights: models.DefaultWeights(), Accuracy: "63.3"},
		Results: []models.ScanResult{
			{Symbol: "AUSDT", Direction: models.DirectionUp, Confidence: 80, Score: 80, ChangePct: 2.1, BookImbalance: 71.2},
			{Symbol: "BUSDT", Direction: models.DirectionDown, Confidence: 65, Score: -65, ChangePct: -1.4, BookImbalance: 31.0},
		},
	}
}

func TestFormatReportRendersSignals(t *testing.T) {
	out := FormatReport(sampleReport(), map[string]float64{"BTCUSDT": 50123.4, "ETHUSDT": 3111.5}, 10)

	require.Contains(t, out, "63.3%")
	require.Contains(t, out, "universe 100")
	require.Contains(t, out, "▲ AUSDT")
	require.Contains(t, out, "▼ BUSDT")
	require.Contains(t, out, "```")

	// Panel prices render alphabetically with the quote suffix stripped.
	require.Less(t, strings.Index(out, "BTC "), strings.Index(out, "ETH "))
}

func TestFormatReportTruncatesToTop(t *testing.T) {
	out := FormatReport(sampleReport(), nil, 1)

	require.Contains(t, out, "AUSDT")
	require.NotContains(t, out, "BUSDT")
}

func TestFormatReportEmptyCycle(t *testing.T) {
	r := sampleReport()
	r.Results = nil
	r.Qualified = 0

	out := FormatReport(r, nil, 10)
	require.Contains(t, out, "no qualifying signals")
	require.NotContains(t, out, "```")
}
