package main

import (
	"math"
	"strings"
	"testing"

	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

func ramp(n int) []series.Sample {
	out := make([]series.Sample, n)
	for i := range out {
		out[i] = series.Sample{Timestamp: int64(i) * 1000, Value: float64(i)}
	}
	return out
}

func assertBox(t *testing.T, out string, width, height int) []string {
	t.Helper()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, height)
	for _, line := range lines {
		assert.Equal(t, width, styles.Width(line))
	}
	return lines
}

func TestParseChartKind(t *testing.T) {
	k, ok := parseChartKind(" Bar ")
	assert.True(t, ok)
	assert.Equal(t, chartBar, k)

	k, ok = parseChartKind("pie")
	assert.False(t, ok)
	assert.Equal(t, chartLine, k)

	assert.Equal(t, chartBar, chartLine.next())
	assert.Equal(t, chartLine, chartHeatmap.next())
}

func TestLineValues(t *testing.T) {
	samples := []series.Sample{{Value: -10}, {Value: 0}, {Value: 10}}
	assert.Equal(t, []float64{0, 50, 100}, lineValues(samples, false))
	assert.Equal(t, []float64{0, 0}, lineValues([]series.Sample{{Value: 3}, {Value: 3}}, false))

	logged := lineValues(samples, true)
	assert.Equal(t, 0.0, logged[0])
	assert.Equal(t, 50.0, logged[1])
	assert.Equal(t, 100.0, logged[2])
}

func TestSignedLog(t *testing.T) {
	assert.Equal(t, 0.0, signedLog(0))
	assert.Equal(t, -signedLog(99), signedLog(-99))
	assert.Less(t, signedLog(1e6), 14.0)
}

func TestRenderLine(t *testing.T) {
	canvas := plot.NewCanvas(40, 10)
	assert.Empty(t, renderLine(&canvas, 40, ramp(1), false))
	assert.NotEmpty(t, renderLine(&canvas, 40, ramp(500), false))
	assert.LessOrEqual(t, canvas.NumDataPoints, 80, "reduced to the canvas resolution")
}

func TestRenderBars(t *testing.T) {
	lines := assertBox(t, renderBars(ramp(80), 100, 10), 100, 10)
	top, bottom := []rune(lines[0]), []rune(lines[9])

	// The last 50 samples are drawn two columns apart.
	assert.Equal(t, '█', top[98], "largest value fills the pane")
	assert.Equal(t, '▁', bottom[0], "smallest value keeps a sliver")
	assert.Equal(t, ' ', []rune(lines[8])[0])
	assert.Equal(t, ' ', bottom[1], "gap between bars")

	assert.Empty(t, renderBars(nil, 10, 10))
}

func TestRenderBarsNarrowPane(t *testing.T) {
	assertBox(t, renderBars(ramp(50), 20, 4), 20, 4)
}

func TestRenderScatter(t *testing.T) {
	lines := assertBox(t, renderScatter(ramp(10), 10, 10), 10, 10)
	dots := 0
	for i, line := range lines {
		r := []rune(line)
		dots += strings.Count(line, "•")
		assert.Equal(t, '•', r[9-i], "increasing ramp lies on the diagonal")
	}
	assert.Equal(t, 10, dots)
}

func TestRenderScatterSkipsNonFinite(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"nan", math.NaN()},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := []series.Sample{
				{Timestamp: 1, Value: 1},
				{Timestamp: 2, Value: 2},
				{Timestamp: 3, Value: tt.value},
			}
			var out string
			require.NotPanics(t, func() { out = renderScatter(samples, 40, 10) })
			lines := assertBox(t, out, 40, 10)
			assert.Equal(t, 2, strings.Count(strings.Join(lines, "\n"), "•"))
		})
	}
}

func TestRenderHeatmap(t *testing.T) {
	assertBox(t, renderHeatmap(ramp(3000), 40, 5), 40, 5)
	assertBox(t, renderHeatmap(ramp(7), 12, 3), 12, 3)
	assert.Empty(t, renderHeatmap(nil, 10, 3))
}

func TestCellSpan(t *testing.T) {
	lo, hi := cellSpan(0, 40, 200)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 5, hi)

	lo, hi = cellSpan(5, 10, 3)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 2, hi)
}

func TestHeatColor(t *testing.T) {
	assert.Equal(t, styles.Color("#00ff3c"), heatColor(0))
	assert.Equal(t, styles.Color("#ff503c"), heatColor(1))
	assert.Equal(t, heatColor(1), heatColor(7))
}
