package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/ode"
)

var tableHeaders = []string{"t", "y(t) exact", "y(t) euler", "abs error", "rel error (%)"}

func formatRel(r analysis.Relative) string {
	if pct, ok := r.Percent(); ok {
		return strconv.FormatFloat(pct, 'f', 4, 64)
	}
	return r.String()
}

// ReportRows formats the first n rows of r as table cells; n < 0 means all.
func ReportRows(r *analysis.Report, n int) [][]string {
	if n < 0 || n > r.Len() {
		n = r.Len()
	}
	rows := make([][]string, n)
	for i, row := range r.Rows[:n] {
		rows[i] = []string{
			fmt.Sprintf("%.2f", row.T),
			fmt.Sprintf("%.6f", row.Exact),
			fmt.Sprintf("%.6f", row.Approx),
			fmt.Sprintf("%.6f", row.AbsError),
			formatRel(row.RelError),
		}
	}
	return rows
}

// RenderTable renders the first n rows of r; n < 0 renders all of them.
// The row holding the maximum absolute error is highlighted.
func RenderTable(r *analysis.Report, n int) string {
	rows := ReportRows(r, n)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(BorderStyle).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			if row >= 0 && row < len(rows) {
				if col == 4 && r.Rows[row].RelError.IsUndefined() {
					return UndefinedStyle
				}
				if row == r.MaxAbsIndex && col == 3 {
					return MaxCellStyle
				}
			}
			return CellStyle
		})

	return t.String()
}

// RenderSummary renders the scalar metrics of r.
func RenderSummary(r *analysis.Report) string {
	var sb strings.Builder
	line := func(label, value string) {
		sb.WriteString(MetricLabel.Render(label))
		sb.WriteString(MetricValue.Render(value))
		sb.WriteString("\n")
	}

	line("max absolute error", fmt.Sprintf("%.6f", r.MaxAbsError))
	line("mean absolute error", fmt.Sprintf("%.6f", r.MeanAbsError))
	line("max relative error", fmt.Sprintf("%.4f%%", r.MaxRelErrorPercent))
	line("mean relative error", fmt.Sprintf("%.4f%%", r.MeanRelErrorPercent))
	if r.UndefinedCount > 0 {
		line("undefined relative", strconv.Itoa(r.UndefinedCount))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RenderReport renders a title, the full table and the summary.
func RenderReport(p ode.Problem, r *analysis.Report) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("analytical vs euler"),
		Subtle.Render(p.String()),
		"",
		RenderTable(r, -1),
		"",
		RenderSummary(r),
	)
}

// RenderConvergence renders a convergence study as a table.
func RenderConvergence(levels []analysis.Level) string {
	rows := make([][]string, len(levels))
	for i, l := range levels {
		ratio, order := "-", "-"
		if i > 0 && l.Ratio > 0 {
			ratio = fmt.Sprintf("%.4f", l.Ratio)
			order = fmt.Sprintf("%.3f", l.Order)
		}
		rows[i] = []string{
			strconv.FormatFloat(l.H, 'g', 6, 64),
			strconv.Itoa(l.Points),
			fmt.Sprintf("%.8f", l.MaxAbsError),
			ratio,
			order,
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(BorderStyle).
		Headers("h", "points", "max abs error", "ratio", "order").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		}).
		String()
}
