package notifier

import (
	"fmt"
	"html"
	"strings"

	"BitcoinAdvisor/internal/calculator"
	"BitcoinAdvisor/internal/presenter"
)

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatAnalysisReport formats an analysis into a Telegram message.
func FormatAnalysisReport(a presenter.Analysis) string {
	var b strings.Builder
	s := a.Snapshot

	b.WriteString(fmt.Sprintf("📊 <b>%s analysis</b> | %s (%s)\n\n", html.EscapeString(a.Symbol), s.LastUpdated, a.Period))

	b.WriteString(fmt.Sprintf("Price: %.2f\n", s.CurrentPrice))
	if a.Display != nil {
		b.WriteString(fmt.Sprintf("       ≈ %s %.0f (%s rate)\n", a.Display.Currency, a.Display.CurrentPrice, a.Display.Source))
	}
	b.WriteString(fmt.Sprintf("SMA short: %s | SMA long: %s\n", optional(s.SMA20), optional(s.SMA50)))
	b.WriteString(fmt.Sprintf("RSI: %s\n", optional(s.RSI)))
	if s.PeriodHigh > 0 {
		pos, err := calculator.RangePosition(s.CurrentPrice, s.PeriodHigh, s.PeriodLow)
		if err == nil {
			b.WriteString(fmt.Sprintf("Range: %.2f - %.2f (at %.0f%%)\n", s.PeriodLow, s.PeriodHigh, pos*100))
		}
	}
	if a.LatestCross != nil {
		b.WriteString(fmt.Sprintf("Last cross: %s on %s\n", a.LatestCross.Direction, a.LatestCross.Date))
	}

	b.WriteString("\n💡 <b>Recommendations:</b>\n")
	if len(a.Recommendations) == 0 {
		b.WriteString("  none\n")
	}
	for _, r := range a.Recommendations {
		line := fmt.Sprintf("  • <b>%s</b> (%s, %s)", html.EscapeString(r.Type), r.Side, r.Confidence)
		if r.Percentage > 0 {
			line += fmt.Sprintf(" %.0f%%", r.Percentage)
		}
		b.WriteString(line + "\n")
		if r.Description != "" {
			b.WriteString("    " + html.EscapeString(r.Description) + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("\nDefault allocation: %.0f%%\n", s.DefaultAllocation))

	if a.Warning != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ %s\n", html.EscapeString(a.Warning)))
	}
	return b.String()
}

// FormatDCAReport formats a DCA simulation summary.
func FormatDCAReport(d presenter.DCA) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>DCA simulation</b> | %s %s, %.2f %s\n\n", html.EscapeString(d.Symbol), d.Period, d.Amount, d.Interval))
	if d.NoTransactions || d.Summary == nil {
		b.WriteString("No purchase dates fell inside the period.\n")
		return b.String()
	}
	s := d.Summary
	b.WriteString(fmt.Sprintf("Purchases: %d\n", len(d.Transactions)))
	b.WriteString(fmt.Sprintf("Invested: %.2f\n", s.TotalInvested))
	b.WriteString(fmt.Sprintf("Units: %.8f\n", s.TotalUnits))
	b.WriteString(fmt.Sprintf("Value: %.2f at %.2f\n", s.FinalValue, s.FinalPrice))
	b.WriteString(fmt.Sprintf("Profit: %+.2f (ROI %+.2f%%)\n", s.Profit, s.ROI))
	if d.Display != nil {
		b.WriteString(fmt.Sprintf("In %s: invested %.0f, value %.0f\n", d.Display.Currency, d.Display.Invested, d.Display.FinalValue))
	}
	return b.String()
}

// FormatHistory lists recent analyses, newest first.
func FormatHistory(entries []presenter.HistoryEntry) string {
	if len(entries) == 0 {
		return "No analyses recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent analyses</b>\n\n")
	for _, e := range entries {
		types := make([]string, len(e.Recommendations))
		for i, r := range e.Recommendations {
			types[i] = r.Type
		}
		b.WriteString(fmt.Sprintf("%s %s: %.2f, RSI %s, alloc %.0f%%\n",
			e.Snapshot.LastUpdated, e.Period, e.Snapshot.CurrentPrice, optional(e.Snapshot.RSI), e.Snapshot.DefaultAllocation))
		if len(types) > 0 {
			b.WriteString("  " + html.EscapeString(strings.Join(types, ", ")) + "\n")
		}
	}
	return b.String()
}
