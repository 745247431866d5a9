// Package lttb implements Largest-Triangle-Three-Buckets downsampling.
package lttb

import (
	"math"
	"sort"
)

// Point is the projection of a sample that the reducer works on.
type Point struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Reduce returns a visually representative subset of points with exactly
// threshold entries, or a copy of points when no reduction is needed.
// The first and last points are always kept. Points are ordered by
// timestamp before reduction; the input slice is never modified.
//
// Reduce assumes threshold >= 3; callers clamp.
func Reduce(points []Point, threshold int) []Point {
	data := Sorted(points)
	if len(data) == 0 || threshold >= len(data) {
		return data
	}

	sampled := make([]Point, 0, threshold)
	every := float64(len(data)-2) / float64(threshold-2)

	a := 0
	sampled = append(sampled, data[a])

	for i := 0; i < threshold-2; i++ {
		// centroid of the next bucket
		avgStart := int(math.Floor(float64(i+1)*every)) + 1
		avgEnd := min(int(math.Floor(float64(i+2)*every))+1, len(data))
		var avgX, avgY float64
		for j := avgStart; j < avgEnd; j++ {
			avgX += float64(data[j].Timestamp)
			avgY += data[j].Value
		}
		n := float64(max(1, avgEnd-avgStart))
		avgX /= n
		avgY /= n

		rangeStart := int(math.Floor(float64(i)*every)) + 1
		rangeEnd := int(math.Floor(float64(i+1)*every)) + 1

		ax := float64(data[a].Timestamp)
		ay := data[a].Value

		maxArea := -1.0
		next := rangeStart
		for j := rangeStart; j < rangeEnd; j++ {
			area := math.Abs((ax-avgX)*(data[j].Value-ay)-(ax-float64(data[j].Timestamp))*(avgY-ay)) * 0.5
			if area > maxArea {
				maxArea = area
				next = j
			}
		}

		sampled = append(sampled, data[next])
		a = next
	}

	sampled = append(sampled, data[len(data)-1])
	return sampled
}

// Sorted returns a copy of points in ascending timestamp order. Ties keep
// their input order.
func Sorted(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp }) {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	}
	return out
}
