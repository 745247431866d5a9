package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/keilerkonzept/telemetry-dashboard/downsample"
	"github.com/keilerkonzept/telemetry-dashboard/lttb"
)

func TestDurationRing(t *testing.T) {
	r := newDurationRing(3)
	assert.Equal(t, durationStats{}, r.snapshot())

	for _, ms := range []int{1, 2, 3, 10} {
		r.add(time.Duration(ms) * time.Millisecond)
	}
	s := r.snapshot()
	assert.Equal(t, 10*time.Millisecond, s.last)
	assert.Equal(t, 10*time.Millisecond, s.max)
	assert.Equal(t, 5*time.Millisecond, s.avg, "oldest value evicted")
	assert.Equal(t, 3, s.n)
}

func TestFPSMeter(t *testing.T) {
	var f fpsMeter
	start := time.Unix(0, 0)
	for i := range 21 {
		f.frame(start.Add(time.Duration(i) * 50 * time.Millisecond))
	}
	assert.Equal(t, 20, f.fps)
}

func TestDashboardMetrics(t *testing.T) {
	m := newDashboardMetrics(8)
	m.observeIngest(time.Unix(0, 0), 5)
	assert.Zero(t, m.snapshot().ingested, "disabled metrics record nothing")

	m.setEnabled(true)
	m.observeIngest(time.Unix(10, 0), 10)
	m.observeIngest(time.Unix(12, 0), 10)
	m.observeView(downsample.View{Points: make([]lttb.Point, 4), Elapsed: 3 * time.Millisecond})
	m.observeFrame(time.Millisecond)

	s := m.snapshot()
	assert.Equal(t, uint64(20), s.ingested)
	assert.Equal(t, uint64(10), s.avgRps)
	assert.Equal(t, 4, s.viewSize)
	assert.Equal(t, 3*time.Millisecond, s.reduction.last)
	assert.Equal(t, time.Millisecond, s.frame.max)
}
