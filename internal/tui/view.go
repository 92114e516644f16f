package tui

import (
	"fmt"
	"strings"

	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const pickerWidth = 44

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D4AF37"))
	activeTab     = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#D4AF37")).Foreground(lipgloss.Color("#000000"))
	inactiveTab   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#9E9E9E"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5DADE2"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4AF37"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width points of a series, one rune per point.
func Sparkline(points []chart.Point, width int) string {
	if width <= 0 || len(points) == 0 {
		return ""
	}
	if len(points) > width {
		points = points[len(points)-width:]
	}
	lo, hi := points[0].V, points[0].V
	for _, p := range points {
		lo = min(lo, p.V)
		hi = max(hi, p.V)
	}

	out := make([]rune, len(points))
	for i, p := range points {
		idx := 0
		if hi > lo {
			idx = int((p.V - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

func (m *AppModel) View() string {
	header := m.renderHeader()
	bodyHeight := max(m.height-lipgloss.Height(header)-3, 5)

	picker := paneStyle.Width(pickerWidth).Height(bodyHeight).Render(m.renderPicker(bodyHeight))
	chartWidth := max(m.width-pickerWidth-6, 20)
	chartPane := paneStyle.Width(chartWidth).Height(bodyHeight).Render(m.renderChart(chartWidth - 2))

	footer := dimStyle.Render("↑/↓ move · space select · tab commodity · o price/volume · c clear · q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, picker, chartPane),
		footer,
	)
}

func (m *AppModel) renderHeader() string {
	tabs := make([]string, 0, len(domain.SupportedCommodities))
	for i, c := range domain.SupportedCommodities {
		if i == m.commodity {
			tabs = append(tabs, activeTab.Render(c))
		} else {
			tabs = append(tabs, inactiveTab.Render(c))
		}
	}

	status := ""
	if m.loading {
		status = m.spinner.View() + " loading"
	}
	title := titleStyle.Render("COT Dashboard") + "  " + dimStyle.Render(m.svc.Session.Username)
	lines := []string{
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "  " + status,
	}
	if summary := m.renderLatest(); summary != "" {
		lines = append(lines, summary)
	}
	return strings.Join(lines, "\n")
}

func (m *AppModel) renderLatest() string {
	if m.latestErr != nil {
		return errorStyle.Render("latest report unavailable: " + m.latestErr.Error())
	}
	if m.latest == nil {
		return ""
	}
	parts := []string{"Latest " + m.latest.ReportDate}
	for _, k := range domain.KeyMetrics {
		if v, ok := m.latest.Value(k.Field); ok {
			parts = append(parts, fmt.Sprintf("%s %s", k.Label, humanize.Comma(int64(v))))
		}
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}

// renderPicker lists the categories and their fields, scrolled so the cursor
// stays visible.
func (m *AppModel) renderPicker(height int) string {
	order := make(map[string]int, len(m.selected))
	for i, f := range m.selected {
		order[f] = i
	}

	var lines []string
	cursorLine := 0
	idx := 0
	for _, cat := range domain.FieldCategories {
		lines = append(lines, categoryStyle.Render(cat.Name))
		for _, f := range cat.Fields {
			mark := "[ ]"
			if i, ok := order[f]; ok {
				mark = lipgloss.NewStyle().Foreground(lipgloss.Color(chart.PaletteColor(i))).Render("[■]")
			}
			label := truncate(domain.FieldDisplayName(f), pickerWidth-6)
			if idx == m.cursor {
				label = cursorStyle.Render(label)
				cursorLine = len(lines)
			}
			lines = append(lines, mark+" "+label)
			idx++
		}
	}

	if len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	start := max(cursorLine-height/2, 0)
	start = min(start, len(lines)-height)
	return strings.Join(lines[start:start+height], "\n")
}

func (m *AppModel) renderChart(width int) string {
	snap := m.chart.Snapshot()
	if len(snap.Series) == 0 {
		return dimStyle.Render("Select one or more fields to chart " + m.Commodity())
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(snap.Title))
	sb.WriteString("\n")
	if m.priceRange != nil {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("overlay %s → %s", m.priceRange.Start, m.priceRange.End)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sparkWidth := max(width-2, 10)
	for _, s := range snap.Series {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
		name := s.Name
		if s.Kind != chart.KindField {
			name += fmt.Sprintf(" (axis %d)", s.Axis)
		}
		sb.WriteString(style.Bold(true).Render(name))
		if len(s.Points) > 0 {
			last := s.Points[len(s.Points)-1]
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d pts · last %s", len(s.Points), humanize.CommafWithDigits(last.V, 2))))
		}
		sb.WriteString("\n")
		if msg, failed := m.fieldErrors[s.Field]; failed && s.Field != "" {
			sb.WriteString(errorStyle.Render("  fetch failed: " + msg))
		} else if len(s.Points) == 0 {
			sb.WriteString(dimStyle.Render("  no data"))
		} else {
			sb.WriteString(style.Render(Sparkline(s.Points, sparkWidth)))
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
