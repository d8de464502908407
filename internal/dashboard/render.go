package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"floatbt/internal/domain"
)

// Styles.
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	regimeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bestStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// reportWidth is the width of the title bar.
const reportWidth = 96

// signStyle picks the gain or loss colour for v.
func signStyle(v float64) lipgloss.Style {
	if v < 0 {
		return lossStyle
	}
	return gainStyle
}

// RenderReport renders a run's summary box followed by the last tail rows of
// its daily table. tail <= 0 renders every row.
func RenderReport(run *domain.Run, tail int) string {
	var b strings.Builder

	p := run.Params
	title := fmt.Sprintf(" FLOAT BACKTEST  %s  %d days from %s  seed %d ",
		strings.ToUpper(string(p.Regime)), p.HorizonDays, p.StartDate.Format("2006-01-02"), p.Seed)
	b.WriteString(titleStyle.Width(reportWidth).Render(title))
	b.WriteString("\n")

	s := run.Summary
	lines := []struct{ label, value string }{
		{"Run", run.ID},
		{"Drift", p.Drift},
		{"Base daily spend", FormatMoney(p.BaseDailySpend)},
		{"Total new float", FormatMoney(s.TotalNewFloat)},
		{"Max active float", FormatMoney(s.MaxActiveFloat)},
		{"Total payments due", FormatMoney(s.TotalPaymentsDue)},
		{"Final cumulative profit", signStyle(s.FinalCumulativeProfit).Render(FormatMoney(s.FinalCumulativeProfit))},
		{"Mean daily return", FormatReturn(s.MeanDailyReturn)},
		{"Sharpe ratio", FormatRatio(run.Sharpe)},
		{"Sortino ratio", FormatRatio(run.Sortino)},
	}
	var box strings.Builder
	for i, l := range lines {
		if i > 0 {
			box.WriteString("\n")
		}
		box.WriteString(labelStyle.Render(padOrTrunc(l.label, 24)))
		box.WriteString(valueStyle.Render(l.value))
	}
	b.WriteString(boxStyle.Render(box.String()))
	b.WriteString("\n")

	b.WriteString(RenderDailyTable(run.Records, tail))
	return b.String()
}

// RenderDailyTable renders the last tail records as a table. tail <= 0
// renders every record.
func RenderDailyTable(records []domain.DailyRecord, tail int) string {
	var b strings.Builder

	rows := records
	if tail > 0 && len(rows) > tail {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d earlier days\n", len(rows)-tail)))
		rows = rows[len(rows)-tail:]
	}

	header := fmt.Sprintf("%-10s  %11s  %13s  %10s  %13s  %11s  %6s  %10s",
		"Date", "New Float", "Active Float", "Profit", "Cumulative", "Payments", "Mult", "Return")
	b.WriteString(colHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-10s  %11s  %13s  %10s  ",
			r.Date.Format("2006-01-02"),
			FormatMoney(r.NewFloatAmount),
			FormatMoney(r.ActiveFloatTotal),
			FormatMoney(r.DailyProfit),
		))
		b.WriteString(signStyle(r.CumulativeProfit).Render(fmt.Sprintf("%13s", FormatMoney(r.CumulativeProfit))))
		b.WriteString(fmt.Sprintf("  %11s  %6s  %10s\n",
			FormatMoney(r.PaymentsDueToday),
			FormatMultiplier(r.OverlayMultiplier()),
			FormatReturn(r.DailyReturn),
		))
	}
	return b.String()
}

// RenderComparison renders one row per regime. The most profitable regime is
// highlighted.
func RenderComparison(rows []RegimeStats, mode int) string {
	var b strings.Builder

	title := fmt.Sprintf(" REGIME COMPARISON  sort: %s ", SortModeLabel(mode))
	b.WriteString(titleStyle.Width(reportWidth).Render(title))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  (no runs)"))
		b.WriteString("\n")
		return b.String()
	}

	header := fmt.Sprintf("%-16s  %5s  %14s  %14s  %12s  %9s  %9s",
		"Regime", "Days", "Final Profit", "Max Float", "Mean Return", "Sharpe", "Sortino")
	b.WriteString(colHeaderStyle.Render(header))
	b.WriteString("\n")

	best, _ := Best(rows)
	for _, r := range rows {
		name := padOrTrunc(string(r.Regime), 16)
		if r.RunID == best.RunID && r.Regime == best.Regime {
			b.WriteString(bestStyle.Render(name))
		} else {
			b.WriteString(regimeStyle.Render(name))
		}
		b.WriteString(fmt.Sprintf("  %5s  ", FormatInt(r.Days)))
		b.WriteString(signStyle(r.FinalProfit).Render(fmt.Sprintf("%14s", FormatMoney(r.FinalProfit))))
		b.WriteString(fmt.Sprintf("  %14s  %12s  %9s  %9s\n",
			FormatMoney(r.MaxActiveFloat),
			FormatReturn(r.MeanDailyReturn),
			FormatRatio(r.Sharpe),
			FormatRatio(r.Sortino),
		))
	}
	return b.String()
}

func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}
