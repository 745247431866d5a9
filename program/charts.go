package main

import (
	"fmt"
	"math"
	"strings"

	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/keilerkonzept/telemetry-dashboard/downsample"
	"github.com/keilerkonzept/telemetry-dashboard/lttb"
	"github.com/keilerkonzept/telemetry-dashboard/series"
)

type chartKind string

const (
	chartLine    chartKind = "line"
	chartBar     chartKind = "bar"
	chartScatter chartKind = "scatter"
	chartHeatmap chartKind = "heatmap"
)

var chartKinds = []chartKind{chartLine, chartBar, chartScatter, chartHeatmap}

// Number of most recent samples the non-line charts draw.
const (
	barTail     = 50
	scatterTail = 1000
	heatmapTail = 2000
	heatmapCols = 200

	lttbMin = downsample.MinThreshold
)

// parseChartKind returns line for anything it does not know.
func parseChartKind(s string) (chartKind, bool) {
	for _, k := range chartKinds {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, true
		}
	}
	return chartLine, false
}

func (k chartKind) next() chartKind {
	for i, c := range chartKinds {
		if c == k {
			return chartKinds[(i+1)%len(chartKinds)]
		}
	}
	return chartLine
}

// tail returns the last n samples, or all of them.
func tail(samples []series.Sample, n int) []series.Sample {
	if len(samples) > n {
		return samples[len(samples)-n:]
	}
	return samples
}

// signedLog compresses large magnitudes while keeping the sign.
func signedLog(v float64) float64 {
	if v < 0 {
		return -math.Log1p(-v)
	}
	return math.Log1p(v)
}

// lineValues scales samples to [0,100] so the canvas never sees negative
// values.
func lineValues(samples []series.Sample, logScale bool) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
		if logScale {
			values[i] = signedLog(s.Value)
		}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	for i, v := range values {
		values[i] = (v - lo) / span * 100
	}
	return values
}

// renderLine draws the series on a braille canvas width cells wide. Longer
// series are reduced to the canvas resolution first.
func renderLine(canvas *plot.Canvas, width int, samples []series.Sample, logScale bool) string {
	if len(samples) < 2 {
		return ""
	}
	if dots := max(lttbMin, width*2); len(samples) > dots {
		points := make([]lttb.Point, len(samples))
		for i, s := range samples {
			points[i] = s.Point()
		}
		samples = series.FromPoints(lttb.Reduce(points, dots))
	} else {
		samples = series.Sorted(samples)
	}
	var line plot.Color
	if styles.DefaultRenderer().HasDarkBackground() {
		line = plot.Red
	} else {
		line = plot.Black
	}
	canvas.NumDataPoints = len(samples)
	canvas.LineColors = []plot.Color{line}
	canvas.Fill([][]float64{lineValues(samples, logScale)})
	return canvas.String()
}

var barRunes = []rune(" ▁▂▃▄▅▆▇█")

// renderBars draws the last samples as vertical bars rising from the minimum.
func renderBars(samples []series.Sample, width, height int) string {
	samples = tail(tail(samples, barTail), width)
	if len(samples) == 0 || width < 1 || height < 1 {
		return ""
	}
	stats := series.Range(samples)
	grid := newGrid(width, height)
	colsPerBar := max(1, width/len(samples))
	barWidth := max(1, colsPerBar-1)
	for i, s := range samples {
		level := int(math.Round((s.Value - stats.Min) / stats.Span() * float64(height*8)))
		level = min(max(level, 1), height*8)
		for c := i * colsPerBar; c < i*colsPerBar+barWidth && c < width; c++ {
			rest := level
			for row := height - 1; row >= 0 && rest > 0; row-- {
				step := min(8, rest)
				grid[row][c] = barRunes[step]
				rest -= step
			}
		}
	}
	return accentFg.Render(gridString(grid))
}

// renderScatter places one dot per sample, x by time and y by value.
func renderScatter(samples []series.Sample, width, height int) string {
	samples = tail(samples, scatterTail)
	if len(samples) == 0 || width < 1 || height < 1 {
		return ""
	}
	stats := series.Range(samples)
	t0, t1 := samples[0].Timestamp, samples[0].Timestamp
	for _, s := range samples {
		t0, t1 = min(t0, s.Timestamp), max(t1, s.Timestamp)
	}
	tspan := max(1, float64(t1-t0))
	grid := newGrid(width, height)
	for _, s := range samples {
		if !s.Finite() {
			continue
		}
		x := int(math.Round(float64(s.Timestamp-t0) / tspan * float64(width-1)))
		y := int(math.Round((s.Value - stats.Min) / stats.Span() * float64(height-1)))
		x, y = min(max(x, 0), width-1), min(max(y, 0), height-1)
		grid[height-1-y][x] = '•'
	}
	return accentFg.Render(gridString(grid))
}

// renderHeatmap lays the last samples out row by row in a fixed number of
// columns, colors each cell by value, and scales the result to the pane.
func renderHeatmap(samples []series.Sample, width, height int) string {
	samples = tail(samples, heatmapTail)
	if len(samples) == 0 || width < 1 || height < 1 {
		return ""
	}
	stats := series.Range(samples)
	rows := (len(samples) + heatmapCols - 1) / heatmapCols
	cols := min(heatmapCols, len(samples))

	var sb strings.Builder
	for r := range height {
		gr0, gr1 := cellSpan(r, height, rows)
		for c := range width {
			gc0, gc1 := cellSpan(c, width, cols)
			var sum float64
			var n int
			for gr := gr0; gr < gr1; gr++ {
				for gc := gc0; gc < gc1; gc++ {
					if i := gr*heatmapCols + gc; i < len(samples) {
						sum += samples[i].Value
						n++
					}
				}
			}
			if n == 0 {
				sb.WriteByte(' ')
				continue
			}
			t := (sum/float64(n) - stats.Min) / stats.Span()
			sb.WriteString(styles.NewStyle().Foreground(heatColor(t)).Render("█"))
		}
		if r < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// cellSpan maps screen cell i of n onto the grid index range [lo,hi) of
// total cells, always covering at least one grid cell.
func cellSpan(i, n, total int) (lo, hi int) {
	lo = i * total / n
	hi = (i + 1) * total / n
	if hi <= lo {
		hi = lo + 1
	}
	return min(lo, total), min(hi, total)
}

// heatColor runs from green (t=0) to red (t=1).
func heatColor(t float64) styles.Color {
	t = min(max(t, 0), 1)
	r := int(math.Round(255 * t))
	g := int(math.Round(80 + 175*(1-t)))
	return styles.Color(fmt.Sprintf("#%02x%02x%02x", r, g, 60))
}

func newGrid(width, height int) [][]rune {
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	return grid
}

func gridString(grid [][]rune) string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}
