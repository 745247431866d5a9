package series

import (
	"math"
	"strings"
)

// UnknownCategory labels samples without a category in filters and groups.
const UnknownCategory = "unknown"

// Stats is the value range of a visible slice.
type Stats struct {
	Min float64
	Max float64
}

// Span returns Max-Min, never less than 1 so it can be used as a divisor.
func (s Stats) Span() float64 {
	return max(1, s.Max-s.Min)
}

// Range returns the min and max finite value of samples. A slice without
// finite values yields {0, 1}; a flat slice yields {v, v+1} so charts always
// have a non-zero span.
func Range(samples []Sample) Stats {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		if !s.Finite() {
			continue
		}
		lo = min(lo, s.Value)
		hi = max(hi, s.Value)
	}
	if lo > hi {
		return Stats{Min: 0, Max: 1}
	}
	if lo == hi {
		hi = lo + 1
	}
	return Stats{Min: lo, Max: hi}
}

// CategoryOf returns the filter key of s.
func CategoryOf(s Sample) string {
	if s.Category == "" {
		return UnknownCategory
	}
	return s.Category
}

// Group returns the group a category belongs to: the part before the first
// dot.
func Group(category string) string {
	g, _, _ := strings.Cut(category, ".")
	return g
}

// Filter keeps samples at or after cutoff (epoch ms) whose category is not
// hidden. A cutoff of math.MinInt64 disables the time filter.
func Filter(samples []Sample, cutoff int64, hidden map[string]bool) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp < cutoff {
			continue
		}
		if len(hidden) > 0 && hidden[CategoryOf(s)] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Since keeps the samples with a timestamp at or after from.
func Since(samples []Sample, from int64) []Sample {
	return Filter(samples, from, nil)
}

// Between keeps the samples with from <= timestamp <= to.
func Between(samples []Sample, from, to int64) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp >= from && s.Timestamp <= to {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the distinct filter keys of samples in first-seen
// order.
func Categories(samples []Sample) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range samples {
		c := CategoryOf(s)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
