package main

import (
	"fmt"
	"strings"
	"time"

	styles "github.com/charmbracelet/lipgloss"
)

// statsBlockLines is the height of the perf stats block: title + 4 lines.
const statsBlockLines = 5

var (
	errStyle   = styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "1", Dark: "9"})
	statsStyle = styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "1", Dark: "9"})
)

func (m *model) helpView() string {
	if m.mode == modeTable {
		return m.help.View(tableKeys(keys))
	}
	return m.help.View(keys)
}

func (m *model) View() string {
	left := m.listStyle.Render(m.categories.list.View())

	w, h := m.chartSize()
	var pane string
	if m.mode == modeTable {
		pane = m.table.View()
	} else {
		pane = m.chartView
	}
	pane = styles.NewStyle().Width(w).Height(h).MaxHeight(h).Render(pane)
	right := plotStyle.Render(styles.JoinVertical(styles.Left, pane, m.labels(w)))
	parts := []string{styles.JoinHorizontal(styles.Top, left, right)}

	if config.StatsEnabled {
		parts = append(parts, statsStyle.Render(strings.Join(m.statsBlock(), "\n")))
	}
	switch {
	case m.err != nil:
		parts = append(parts, errStyle.Render("ERROR: "+m.err.Error()))
	case m.status != "":
		parts = append(parts, borderFg.Render(m.status))
	default:
		parts = append(parts, "")
	}
	parts = append(parts, m.helpView())
	return styles.JoinVertical(styles.Left, parts...)
}

// labels is the line under the chart: time bounds, scale and settings.
func (m *model) labels(w int) string {
	linColor, logColor := selectedFg, borderFg
	if m.logScale {
		linColor, logColor = borderFg, selectedFg
	}
	linLog := linColor.Render("LIN") + " " + logColor.Render("LOG")
	info := fmt.Sprintf("%s %s %s x%.1f", m.chart, timeRanges[m.rangeIdx].label, m.agg, m.zoom.scale)
	if m.mode == modeTable {
		return borderFg.Render(truncate(fmt.Sprintf("table %s", timeRanges[m.rangeIdx].label), w))
	}
	middle := linLog + " " + borderFg.Render(info)
	if len(m.frame.samples) == 0 {
		return truncate(info, w)
	}

	leftLabel := m.frame.from.Format(time.RFC3339)
	rightLabel := m.frame.to.Format(time.RFC3339)
	minWidth := len(leftLabel) + len(rightLabel) + styles.Width(middle) + 4
	// Fall back to short timestamps when the pane is narrow.
	if w < minWidth {
		leftLabel = m.frame.from.Format("15:04:05")
		rightLabel = m.frame.to.Format("15:04:05")
		minWidth = len(leftLabel) + len(rightLabel) + styles.Width(middle) + 4
	}
	if w < minWidth {
		return " " + linLog
	}
	space := max(2, w-(len(leftLabel)+len(rightLabel)+styles.Width(middle)))
	leftGap := space / 2
	return leftLabel +
		strings.Repeat(" ", leftGap) +
		middle +
		strings.Repeat(" ", space-leftGap) +
		borderFg.Render(rightLabel)
}

func (m *model) statsBlock() []string {
	snap := m.metrics.snapshot()
	sched := m.scheduler.Stats()
	title := "PERF STATS (RUNNING)"
	if m.isPaused() {
		title = "PERF STATS (PAUSED)"
	}

	source := m.frame.source
	if source == "" {
		source = "-"
	}
	view := fmt.Sprintf("view: %s, %d pts", source, len(m.frame.samples))
	if v, ok := m.scheduler.View(); ok {
		view += fmt.Sprintf(" | reduced #%d: %d of %d", v.ID, len(v.Points), v.SourceLen)
	} else if !m.scheduler.Available() {
		view += " | reduction unavailable"
	}
	view += fmt.Sprintf(" | y [%.2f, %.2f]", m.frame.stats.Min, m.frame.stats.Max)

	rate := "input"
	if m.generating.Load() {
		rate = m.rate().String()
	}
	return []string{
		title,
		fmt.Sprintf("records: %d buffered / %d cap | ingested: %d | ingest rate: %d rec/s | stream: %s",
			m.buffer.Len(), m.buffer.Cap(), snap.ingested, snap.avgRps, rate),
		fmt.Sprintf("fps: %d | frame build: last %s avg %s",
			m.fps.fps, formatMetricDuration(snap.frame.last), formatMetricDuration(snap.frame.avg)),
		fmt.Sprintf("reduction: last %s avg %s max %s | dispatched %d applied %d stale %d failed %d",
			formatMetricDuration(snap.reduction.last), formatMetricDuration(snap.reduction.avg), formatMetricDuration(snap.reduction.max),
			sched.Dispatched, sched.Applied, sched.Stale, sched.Failed),
		view,
	}
}

func formatMetricDuration(d time.Duration) string {
	if d <= 0 {
		return "0.000ms"
	}
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

func computePaneWidths(totalWidth int, splitPercent int) (left, right int) {
	if totalWidth <= 1 {
		return 1, 1
	}
	left = min(max(1, totalWidth*splitPercent/100), totalWidth-1)
	right = totalWidth - left

	// Keep panes readable when the terminal is wide enough.
	const minPane = 18
	if totalWidth >= minPane*2 {
		if left < minPane {
			left = minPane
			right = totalWidth - left
		}
		if right < minPane {
			right = minPane
			left = totalWidth - right
		}
	}
	return max(1, left), max(1, right)
}
