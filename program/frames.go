package main

import (
	"math"
	"strings"
	"time"

	tui "github.com/charmbracelet/bubbletea"

	"github.com/keilerkonzept/telemetry-dashboard/downsample"
	"github.com/keilerkonzept/telemetry-dashboard/series"
)

type timeRange struct {
	label string
	span  time.Duration // 0 shows everything
}

var timeRanges = []timeRange{
	{"30s", 30 * time.Second},
	{"1m", time.Minute},
	{"5m", 5 * time.Minute},
	{"15m", 15 * time.Minute},
	{"30m", 30 * time.Minute},
	{"1h", time.Hour},
	{"4h", 4 * time.Hour},
	{"1d", 24 * time.Hour},
	{"all", 0},
}

func parseRange(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, r := range timeRanges {
		if r.label == s {
			return i, true
		}
	}
	return 0, false
}

var aggWindows = []time.Duration{time.Minute, 5 * time.Minute, time.Hour}

func nextAggWindow(d time.Duration) time.Duration {
	for i, w := range aggWindows {
		if w == d {
			return aggWindows[(i+1)%len(aggWindows)]
		}
	}
	return aggWindows[0]
}

const (
	minZoom  = 1.0
	maxZoom  = 10.0
	zoomStep = 1.2
)

// zoomState narrows the visible time range. offset shifts the right edge
// back from the newest sample and is never positive.
type zoomState struct {
	scale  float64
	offset time.Duration
}

func (z zoomState) in() zoomState {
	z.scale = min(maxZoom, max(minZoom, z.scale)*zoomStep)
	return z
}

func (z zoomState) out() zoomState {
	z.scale = max(minZoom, z.scale/zoomStep)
	return z
}

// pan moves by a tenth of the visible duration; dir < 0 goes back in time.
func (z zoomState) pan(dir int, visible time.Duration) zoomState {
	step := visible / 10
	if step <= 0 {
		step = time.Second
	}
	if dir < 0 {
		z.offset -= step
	} else {
		z.offset = min(0, z.offset+step)
	}
	return z
}

func (z zoomState) active() bool {
	return z.scale > minZoom || z.offset != 0
}

// rawLineTail bounds the raw samples the line chart reads when it cannot use
// the downsampled view.
const rawLineTail = 4 * downsample.DefaultMaxThreshold

type frame struct {
	samples []series.Sample
	stats   series.Stats
	source  string
	viewID  uint64
	visible time.Duration
	from    time.Time
	to      time.Time
}

type frameSettings struct {
	hidden map[string]bool
	span   time.Duration
	agg    series.AggregationSpec
	zoom   zoomState
}

// buildFrame filters, aggregates and zooms src. Time ranges are anchored at
// the newest sample rather than the wall clock so replayed data stays
// visible.
func buildFrame(src []series.Sample, source string, fs frameSettings) frame {
	f := frame{source: source}
	if len(src) == 0 {
		f.stats = series.Range(nil)
		return f
	}
	newest := int64(math.MinInt64)
	for _, s := range src {
		newest = max(newest, s.Timestamp)
	}
	cutoff := int64(math.MinInt64)
	if fs.span > 0 {
		cutoff = newest - fs.span.Milliseconds()
	}
	data := series.Filter(src, cutoff, fs.hidden)
	data = series.Aggregate(data, fs.agg)

	oldest := newest
	for _, s := range data {
		oldest = min(oldest, s.Timestamp)
	}
	if cutoff != math.MinInt64 {
		oldest = cutoff
	}
	full := time.Duration(newest-oldest) * time.Millisecond
	f.visible = full
	f.from, f.to = time.UnixMilli(oldest), time.UnixMilli(newest)
	if fs.zoom.active() {
		f.visible = time.Duration(float64(full) / max(minZoom, fs.zoom.scale))
		end := newest + fs.zoom.offset.Milliseconds()
		start := end - f.visible.Milliseconds()
		data = series.Between(data, start, end)
		f.from, f.to = time.UnixMilli(start), time.UnixMilli(end)
	}
	f.samples = data
	f.stats = series.Range(data)
	return f
}

type plotTickMsg time.Time

func doPlotTick() tui.Cmd {
	return tui.Every(time.Second/time.Duration(config.PlotFPS), func(t time.Time) tui.Msg {
		return plotTickMsg(t)
	})
}

type itemsTickMsg time.Time

func doItemsTick() tui.Cmd {
	return tui.Every(time.Second/time.Duration(config.ItemsFPS), func(t time.Time) tui.Msg {
		return itemsTickMsg(t)
	})
}

// frameSource picks what the current chart draws: the downsampled view when
// one exists and no category is hidden, otherwise a raw tail of the buffer.
func (m *model) frameSource() ([]series.Sample, string, uint64) {
	switch m.chart {
	case chartBar:
		return m.buffer.Tail(barTail * 4), "raw", 0
	case chartScatter:
		return m.buffer.Tail(scatterTail * 2), "raw", 0
	case chartHeatmap:
		return m.buffer.Tail(heatmapTail * 2), "raw", 0
	}
	if v, ok := m.scheduler.View(); ok && len(m.categories.hidden) == 0 {
		return series.FromPoints(v.Points), "downsampled", v.ID
	}
	return m.buffer.Tail(rawLineTail), "raw", 0
}

// updateFrame rebuilds the chart data when anything it depends on changed.
func (m *model) updateFrame(now time.Time) {
	m.fps.frame(now)
	src, source, viewID := m.frameSource()
	key := frameKey{
		appended: m.buffer.Appended(),
		viewID:   viewID,
		settings: m.settingsVersion,
	}
	if key == m.lastFrame && m.frame.source == source {
		return
	}
	start := time.Now()
	m.frame = buildFrame(src, source, frameSettings{
		hidden: m.categories.hiddenSet(),
		span:   timeRanges[m.rangeIdx].span,
		agg:    m.agg,
		zoom:   m.zoom,
	})
	m.frame.viewID = viewID
	m.lastFrame = key
	m.redrawChart()
	m.metrics.observeFrame(time.Since(start))
}

type frameKey struct {
	appended uint64
	viewID   uint64
	settings uint64
}

// redrawChart renders m.frame into the chart pane.
func (m *model) redrawChart() {
	w, h := m.chartSize()
	switch m.chart {
	case chartBar:
		m.chartView = renderBars(m.frame.samples, w, h)
	case chartScatter:
		m.chartView = renderScatter(m.frame.samples, w, h)
	case chartHeatmap:
		m.chartView = renderHeatmap(m.frame.samples, w, h)
	default:
		m.chartView = renderLine(m.canvas, w, m.frame.samples, m.logScale)
	}
}
