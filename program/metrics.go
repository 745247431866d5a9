package main

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/keilerkonzept/telemetry-dashboard/downsample"
)

type durationRing struct {
	buf   []time.Duration
	idx   int
	count int
}

func newDurationRing(n int) *durationRing {
	return &durationRing{buf: make([]time.Duration, max(1, n))}
}

func (r *durationRing) add(d time.Duration) {
	r.buf[r.idx] = d
	r.idx = (r.idx + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

type durationStats struct {
	last time.Duration
	max  time.Duration
	avg  time.Duration
	n    int
}

func (r *durationRing) snapshot() durationStats {
	if r.count == 0 {
		return durationStats{}
	}
	var sum, peak time.Duration
	for _, d := range r.buf[:r.count] {
		sum += d
		peak = max(peak, d)
	}
	lastIdx := r.idx - 1
	if lastIdx < 0 {
		lastIdx = len(r.buf) - 1
	}
	return durationStats{
		last: r.buf[lastIdx],
		max:  peak,
		avg:  sum / time.Duration(r.count),
		n:    r.count,
	}
}

// fpsMeter counts frames and reports the rate of the last full second.
type fpsMeter struct {
	windowStart time.Time
	frames      int
	fps         int
}

func (f *fpsMeter) frame(now time.Time) {
	if f.windowStart.IsZero() {
		f.windowStart = now
		return
	}
	f.frames++
	if elapsed := now.Sub(f.windowStart); elapsed >= time.Second {
		f.fps = int(float64(f.frames)/elapsed.Seconds() + 0.5)
		f.frames = 0
		f.windowStart = now
	}
}

// dashboardMetrics is written from the UI loop and the scheduler's result
// goroutine, hence the atomics and the locked reduction ring.
type dashboardMetrics struct {
	enabled atomic.Bool

	ingested      atomic.Uint64
	firstIngestNs atomic.Int64
	lastIngestNs  atomic.Int64

	reduceMu  sync.Mutex
	reduction *durationRing
	viewSize  atomic.Int64
	frame     *durationRing
}

func newDashboardMetrics(window int) *dashboardMetrics {
	return &dashboardMetrics{
		reduction: newDurationRing(window),
		frame:     newDurationRing(window),
	}
}

func (m *dashboardMetrics) setEnabled(v bool) { m.enabled.Store(v) }
func (m *dashboardMetrics) isEnabled() bool   { return m.enabled.Load() }

func (m *dashboardMetrics) observeIngest(now time.Time, n int) {
	if !m.isEnabled() || n <= 0 {
		return
	}
	nowNs := now.UnixNano()
	m.firstIngestNs.CompareAndSwap(0, nowNs)
	m.lastIngestNs.Store(nowNs)
	m.ingested.Add(uint64(n))
}

// observeView is the scheduler's publish hook.
func (m *dashboardMetrics) observeView(v downsample.View) {
	if !m.isEnabled() {
		return
	}
	m.viewSize.Store(int64(len(v.Points)))
	m.reduceMu.Lock()
	m.reduction.add(v.Elapsed)
	m.reduceMu.Unlock()
}

// observeFrame records how long building one frame took. UI loop only.
func (m *dashboardMetrics) observeFrame(d time.Duration) {
	if !m.isEnabled() {
		return
	}
	m.frame.add(d)
}

type metricsSnapshot struct {
	ingested  uint64
	avgRps    uint64
	viewSize  int
	reduction durationStats
	frame     durationStats
}

func (m *dashboardMetrics) snapshot() metricsSnapshot {
	if !m.isEnabled() {
		return metricsSnapshot{}
	}
	records := m.ingested.Load()
	var avgRps uint64
	first, last := m.firstIngestNs.Load(), m.lastIngestNs.Load()
	if first != 0 && last > first {
		avgRps = uint64(float64(records)/time.Duration(last-first).Seconds() + 0.5)
	}
	m.reduceMu.Lock()
	reduction := m.reduction.snapshot()
	m.reduceMu.Unlock()
	return metricsSnapshot{
		ingested:  records,
		avgRps:    avgRps,
		viewSize:  int(m.viewSize.Load()),
		reduction: reduction,
		frame:     m.frame.snapshot(),
	}
}
