package usecase

import (
	"fmt"
	"strings"

	"TrendPulse/internal/domain/models"
)

// FormatReport renders one cycle as a Telegram-friendly monospace report.
func FormatReport(report *models.CycleReport, panelPrices map[string]float64, top int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*TrendPulse scan* %s\n", report.StartedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "model acc %s%% | universe %d | qualified %d | %s\n",
		report.Model.Accuracy, report.Universe, report.Qualified, report.Duration)

	if len(panelPrices) > 0 {
		parts := make([]string, 0, len(panelPrices))
		for _, sym := range panelOrder(panelPrices) {
			parts = append(parts, fmt.Sprintf("%s %.6g", strings.TrimSuffix(sym, "USDT"), panelPrices[sym]))
		}
		b.WriteString(strings.Join(parts, " | "))
		b.WriteString("\n")
	}

	if len(report.Results) == 0 {
		b.WriteString("\nno qualifying signals this cycle\n")
		return b.String()
	}

	b.WriteString("```\n")
	n := len(report.Results)
	if top > 0 && n > top {
		n = top
	}
	for _, r := range report.Results[:n] {
		arrow := "▲"
		if r.Direction == models.DirectionDown {
			arrow = "▼"
		}
		fmt.Fprintf(&b, "%s %-12s conf %3d score %+4d Δ%+6.2f%% obi %5.1f\n",
			arrow, r.Symbol, r.Confidence, r.Score, r.ChangePct, r.BookImbalance)
	}
	b.WriteString("```")
	return b.String()
}

func panelOrder(prices map[string]float64) []string {
	syms := make([]string, 0, len(prices))
	for s := range prices {
		syms = append(syms, s)
	}
	// small map, simple insertion sort keeps the report stable
	for i := 1; i < len(syms); i++ {
		for j := i; j > 0 && syms[j] < syms[j-1]; j-- {
			syms[j], syms[j-1] = syms[j-1], syms[j]
		}
	}
	return syms
}
