package series

import (
	"fmt"
	"strings"
	"time"
)

// Method selects how the samples of one aggregation window collapse into a
// single value.
type Method string

const (
	MethodNone    Method = "none"
	MethodSum     Method = "sum"
	MethodAverage Method = "average"
	MethodMin     Method = "min"
	MethodMax     Method = "max"
)

// Methods lists the known methods in display order.
var Methods = []Method{MethodNone, MethodSum, MethodAverage, MethodMin, MethodMax}

// ParseMethod maps user input to a Method. "raw" and "" mean none, "avg"
// and "mean" mean average.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "raw":
		return MethodNone, nil
	case "sum":
		return MethodSum, nil
	case "average", "avg", "mean":
		return MethodAverage, nil
	case "min":
		return MethodMin, nil
	case "max":
		return MethodMax, nil
	}
	return Method(s), fmt.Errorf("unknown aggregation method %q", s)
}

// Next returns the method after m in Methods, wrapping around.
func (m Method) Next() Method {
	for i, x := range Methods {
		if x == m {
			return Methods[(i+1)%len(Methods)]
		}
	}
	return MethodNone
}

// AggregationSpec configures Aggregate.
type AggregationSpec struct {
	Method Method
	Window time.Duration
}

func (a AggregationSpec) String() string {
	if a.Method == MethodNone {
		return "raw"
	}
	return fmt.Sprintf("%s/%s", a.Method, a.Window)
}

// Aggregate buckets samples into windows of spec.Window aligned to
// multiples of the window since the epoch, and collapses each non-empty
// window to one sample stamped with the window start. The category of a
// bucket is the category of its first sample; mixed categories are not
// merged.
//
// A MethodNone spec, a non-positive window, or empty input returns samples
// unchanged. Unknown methods keep the first sample's value.
func Aggregate(samples []Sample, spec AggregationSpec) []Sample {
	windowMs := spec.Window.Milliseconds()
	if spec.Method == MethodNone || len(samples) == 0 || windowMs <= 0 {
		return samples
	}

	sorted := Sorted(samples)
	out := make([]Sample, 0)
	first := 0
	start := windowStart(sorted[0].Timestamp, windowMs)
	for i := 1; i < len(sorted); i++ {
		ws := windowStart(sorted[i].Timestamp, windowMs)
		if ws == start {
			continue
		}
		out = append(out, collapse(sorted[first:i], spec.Method, start))
		first, start = i, ws
	}
	out = append(out, collapse(sorted[first:], spec.Method, start))
	return out
}

// windowStart floors ts to a multiple of windowMs, rounding toward negative
// infinity for timestamps before the epoch.
func windowStart(ts, windowMs int64) int64 {
	q := ts / windowMs
	if ts%windowMs != 0 && ts < 0 {
		q--
	}
	return q * windowMs
}

func collapse(window []Sample, method Method, start int64) Sample {
	if len(window) == 0 {
		panic("series: aggregate of empty window")
	}
	var value float64
	switch method {
	case MethodSum:
		for _, s := range window {
			value += s.Value
		}
	case MethodAverage:
		for _, s := range window {
			value += s.Value
		}
		value /= float64(len(window))
	case MethodMin:
		value = window[0].Value
		for _, s := range window[1:] {
			value = min(value, s.Value)
		}
	case MethodMax:
		value = window[0].Value
		for _, s := range window[1:] {
			value = max(value, s.Value)
		}
	default:
		value = window[0].Value
	}
	return Sample{Timestamp: start, Value: value, Category: window[0].Category}
}
