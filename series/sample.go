// Package series holds the telemetry samples the dashboard ingests and the
// pure transforms applied to them before rendering.
package series

import (
	"math"
	"sort"
	"time"

	"github.com/keilerkonzept/telemetry-dashboard/lttb"
)

// Sample is one timestamped measurement. Timestamp is in epoch
// milliseconds; an empty Category means the sample has none.
type Sample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
	Category  string  `json:"category,omitempty"`
}

// Time returns the sample timestamp as a time.Time.
func (s Sample) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Finite reports whether Value is neither NaN nor infinite.
func (s Sample) Finite() bool {
	return !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0)
}

// Point drops the category.
func (s Sample) Point() lttb.Point {
	return lttb.Point{Timestamp: s.Timestamp, Value: s.Value}
}

// FromPoints lifts reducer output back into samples without categories.
func FromPoints(points []lttb.Point) []Sample {
	out := make([]Sample, len(points))
	for i, p := range points {
		out[i] = Sample{Timestamp: p.Timestamp, Value: p.Value}
	}
	return out
}

// Sorted returns a copy of samples ordered by timestamp, keeping the input
// order of equal timestamps.
func Sorted(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	less := func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp }
	if !sort.SliceIsSorted(out, less) {
		sort.SliceStable(out, less)
	}
	return out
}
