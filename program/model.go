package main

import (
	"log"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/keilerkonzept/telemetry-dashboard/downsample"
	"github.com/keilerkonzept/telemetry-dashboard/series"
)

type viewMode int

const (
	modeChart viewMode = iota
	modeTable
)

type model struct {
	width, height  int
	leftPaneWidth  int
	rightPaneWidth int
	paneHeight     int
	listStyle      styles.Style

	mode            viewMode
	chart           chartKind
	agg             series.AggregationSpec
	rangeIdx        int
	zoom            zoomState
	logScale        bool
	settingsVersion uint64

	buffer    *series.Buffer
	scheduler *downsample.Scheduler
	samples   chan series.Sample
	done      chan struct{}
	closeOnce sync.Once

	pauseMu   sync.Mutex
	pauseCond *sync.Cond
	paused    bool
	closed    bool
	rateNs    atomic.Int64

	// generating is set while the synthetic producer runs.
	generating atomic.Bool

	categories *categoryBoard
	table      *tableView
	help       help.Model
	canvas     *plot.Canvas
	chartView  string

	frame          frame
	lastFrame      frameKey
	fps            fpsMeter
	metrics        *dashboardMetrics
	lastSketchTick time.Time

	err    error
	status string
}

func newModel() *model {
	const (
		defaultWidth  = 80
		defaultHeight = 20
	)

	metrics := newDashboardMetrics(config.StatsWindow)
	metrics.setEnabled(config.StatsEnabled)

	buffer := series.NewBuffer(config.Capacity)
	if config.Seed > 0 {
		rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1))
		for _, s := range seedSamples(config.Seed, time.Now(), rng) {
			buffer.Append(s)
		}
	}
	scheduler := downsample.New(buffer,
		downsample.WithDebounce(config.Debounce),
		downsample.WithThresholdBounds(config.ThresholdMin, config.ThresholdMax),
		downsample.WithPublish(metrics.observeView),
		downsample.WithLogger(log.Default()),
	)

	chart, ok := parseChartKind(config.Chart)
	if !ok {
		log.Printf("unknown chart type %q, using %s", config.Chart, chart)
	}
	method, _ := series.ParseMethod(config.Aggregate)
	rangeIdx, _ := parseRange(config.Range)

	canvas := plot.NewCanvas(defaultWidth, defaultHeight)
	canvas.ShowAxis = false

	m := &model{
		chart:      chart,
		agg:        series.AggregationSpec{Method: method, Window: config.AggWindow},
		rangeIdx:   rangeIdx,
		zoom:       zoomState{scale: minZoom},
		logScale:   config.LogScale,
		buffer:     buffer,
		scheduler:  scheduler,
		samples:    make(chan series.Sample, maxBatch),
		done:       make(chan struct{}),
		categories: newCategoryBoard(defaultWidth/2-2, defaultHeight),
		table:      newTableView(),
		help:       help.New(),
		canvas:     &canvas,
		metrics:    metrics,
	}
	m.pauseCond = sync.NewCond(&m.pauseMu)
	m.rateNs.Store(int64(config.Rate))
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(defaultWidth, config.ViewSplit)
	m.paneHeight = defaultHeight
	if buffer.Len() > 0 {
		m.categories.observe(buffer.Snapshot())
		scheduler.Notify(buffer.Len())
	}
	return m
}

// close stops the producers and the background reduction. Safe to call
// more than once.
func (m *model) close() {
	m.closeOnce.Do(func() {
		m.pauseMu.Lock()
		m.closed = true
		m.pauseMu.Unlock()
		m.pauseCond.Broadcast()
		close(m.done)
		if err := m.scheduler.Close(); err != nil {
			log.Printf("close scheduler: %v", err)
		}
	})
}

func (m *model) Init() tui.Cmd {
	return tui.Batch(m.produce(), m.waitForSamples(), doPlotTick(), doItemsTick())
}

// ingest appends a batch to the buffer and schedules a reduction.
func (m *model) ingest(batch []series.Sample) {
	for _, s := range batch {
		m.buffer.Append(s)
	}
	m.scheduler.Notify(m.buffer.Len())
	m.categories.observe(batch)
	m.metrics.observeIngest(time.Now(), len(batch))
}

func (m *model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		log.Printf("error: %v", msg.err)
		return m, nil
	case exportedMsg:
		m.err = nil
		m.status = "exported " + msg.path
		log.Printf("exported chart to %s", msg.path)
		return m, nil
	case samplesMsg:
		m.ingest(msg)
		return m, m.waitForSamples()
	case plotTickMsg:
		if m.mode == modeChart {
			m.updateFrame(time.Time(msg))
		} else {
			m.fps.frame(time.Time(msg))
		}
		return m, doPlotTick()
	case itemsTickMsg:
		t := time.Time(msg)
		m.doSketchTicks(t)
		if m.isPaused() {
			return m, doItemsTick()
		}
		m.categories.refresh(t)
		cmd := m.categories.updateList(msg)
		if m.mode == modeTable {
			m.refreshTable()
		}
		return m, tui.Batch(cmd, doItemsTick())
	case tui.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case tui.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tui.Cmd
	m.categories.list, cmd = m.categories.list.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tui.KeyMsg) (tui.Model, tui.Cmd) {
	if m.mode == modeTable && m.table.editing() {
		switch {
		case msg.Type == tui.KeyCtrlC:
			return m, tui.Quit
		case key.Matches(msg, keys.Done):
			m.table.stopSearch()
			return m, nil
		}
		cmd, changed := m.table.updateSearch(msg)
		if changed {
			m.refreshTable()
		}
		return m, cmd
	}
	if m.mode == modeChart && m.categories.list.SettingFilter() {
		var cmd tui.Cmd
		m.categories.list, cmd = m.categories.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tui.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, keys.Pause):
		m.togglePause()
		return m, nil
	case key.Matches(msg, keys.Mode):
		if m.mode == modeChart {
			m.mode = modeTable
			m.table.dirty = true
			m.refreshTable()
		} else {
			m.mode = modeChart
			m.invalidate()
		}
		m.layout()
		return m, nil
	case key.Matches(msg, keys.Stress):
		m.setRate(stressRate)
		return m, nil
	case key.Matches(msg, keys.Faster):
		m.setRate(m.rate() / 2)
		return m, nil
	case key.Matches(msg, keys.Slower):
		m.setRate(m.rate() * 2)
		return m, nil
	case key.Matches(msg, keys.Range):
		m.rangeIdx = (m.rangeIdx + 1) % len(timeRanges)
		m.zoom = zoomState{scale: minZoom}
		m.invalidate()
		return m, nil
	case key.Matches(msg, keys.Toggle):
		if c, ok := m.categories.selected(); ok {
			m.categories.toggle(c)
			m.invalidate()
		}
		return m, nil
	case key.Matches(msg, keys.ToggleGroup):
		if c, ok := m.categories.selected(); ok {
			m.categories.toggleGroup(series.Group(c))
			m.invalidate()
		}
		return m, nil
	case key.Matches(msg, keys.ShowAll):
		m.categories.showAll()
		m.invalidate()
		return m, nil
	case key.Matches(msg, keys.HideAll):
		m.categories.hideAll()
		m.invalidate()
		return m, nil
	}

	if m.mode == modeTable {
		return m.handleTableKey(msg)
	}
	return m.handleChartKey(msg)
}

func (m *model) handleChartKey(msg tui.KeyMsg) (tui.Model, tui.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		m.categories.list.CursorUp()
		return m, nil
	case key.Matches(msg, keys.Down):
		m.categories.list.CursorDown()
		return m, nil
	case key.Matches(msg, keys.Chart):
		m.chart = m.chart.next()
	case key.Matches(msg, keys.Aggregate):
		m.agg.Method = m.agg.Method.Next()
	case key.Matches(msg, keys.AggWindow):
		m.agg.Window = nextAggWindow(m.agg.Window)
	case key.Matches(msg, keys.Scale):
		m.logScale = !m.logScale
	case key.Matches(msg, keys.ZoomIn):
		m.zoom = m.zoom.in()
	case key.Matches(msg, keys.ZoomOut):
		m.zoom = m.zoom.out()
	case key.Matches(msg, keys.PanLeft):
		m.zoom = m.zoom.pan(-1, m.frame.visible)
	case key.Matches(msg, keys.PanRight):
		m.zoom = m.zoom.pan(1, m.frame.visible)
	case key.Matches(msg, keys.Reset):
		m.zoom = zoomState{scale: minZoom}
	case key.Matches(msg, keys.Export):
		return m, m.exportCmd()
	default:
		var cmd tui.Cmd
		m.categories.list, cmd = m.categories.list.Update(msg)
		return m, cmd
	}
	m.invalidate()
	return m, nil
}

func (m *model) handleTableKey(msg tui.KeyMsg) (tui.Model, tui.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		m.table.scroll(-1)
	case key.Matches(msg, keys.Down):
		m.table.scroll(1)
	case key.Matches(msg, keys.PageUp):
		m.table.scroll(-m.table.height)
	case key.Matches(msg, keys.PageDown):
		m.table.scroll(m.table.height)
	case key.Matches(msg, keys.Home):
		m.table.home()
	case key.Matches(msg, keys.End):
		m.table.end()
	case key.Matches(msg, keys.Search):
		return m, m.table.startSearch()
	case key.Matches(msg, keys.Sort):
		m.table.cycleSort()
		m.refreshTable()
	case key.Matches(msg, keys.Order):
		m.table.toggleDirection()
		m.refreshTable()
	case key.Matches(msg, keys.Group):
		m.table.toggleGroup()
		m.refreshTable()
	}
	return m, nil
}

// invalidate forces the next frame and table refresh to rebuild.
func (m *model) invalidate() {
	m.settingsVersion++
	m.table.dirty = true
	if m.mode == modeTable {
		m.refreshTable()
	}
}

// refreshTable rebuilds the table rows if the data or query changed.
func (m *model) refreshTable() {
	appended := m.buffer.Appended()
	if !m.table.dirty && appended == m.table.appended {
		return
	}
	f := buildFrame(m.buffer.Snapshot(), "raw", frameSettings{
		hidden: m.categories.hiddenSet(),
		span:   timeRanges[m.rangeIdx].span,
	})
	m.table.rebuild(f.samples, appended)
}

func (m *model) doSketchTicks(t time.Time) {
	t = t.Truncate(config.TickSize)
	if m.lastSketchTick.IsZero() {
		m.lastSketchTick = t
		return
	}
	if ticks := int(t.Sub(m.lastSketchTick) / config.TickSize); ticks > 0 {
		m.categories.tick(ticks)
		m.lastSketchTick = t
	}
}

// layout sizes the panes for the current terminal.
func (m *model) layout() {
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(m.width, config.ViewSplit)
	statsLines := 0
	if config.StatsEnabled {
		statsLines = statsBlockLines
	}
	helpLines := styles.Height(m.helpView())
	statusLines := 1
	available := max(1, m.height-statsLines-helpLines-statusLines)

	leftW := max(1, m.leftPaneWidth)
	m.categories.list.SetSize(leftW, available)
	m.listStyle = styles.NewStyle().Width(leftW).Height(available)

	// Right side is the chart or table plus one label line, wrapped in a
	// border.
	m.paneHeight = max(1, available-3)
	w, h := m.chartSize()
	canvas := plot.NewCanvas(w, h)
	canvas.ShowAxis = false
	m.canvas = &canvas
	m.table.setSize(w, h)
	m.invalidate()
}

func (m *model) chartSize() (int, int) {
	return max(1, m.rightPaneWidth-2), max(1, m.paneHeight)
}
