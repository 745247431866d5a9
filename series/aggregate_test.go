package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMethods(t *testing.T) {
	in := []Sample{
		{Timestamp: 0, Value: 1, Category: "a"},
		{Timestamp: 10, Value: 3, Category: "b"},
		{Timestamp: 65000, Value: 9, Category: "c"},
	}
	tests := []struct {
		method Method
		first  float64
	}{
		{MethodSum, 4},
		{MethodAverage, 2},
		{MethodMin, 1},
		{MethodMax, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			out := Aggregate(in, AggregationSpec{Method: tt.method, Window: time.Minute})
			require.Len(t, out, 2)
			assert.Equal(t, Sample{Timestamp: 0, Value: tt.first, Category: "a"}, out[0])
			assert.Equal(t, Sample{Timestamp: 60000, Value: 9, Category: "c"}, out[1])
		})
	}
}

func TestAggregateIdentity(t *testing.T) {
	in := []Sample{{Timestamp: 5, Value: 1}, {Timestamp: 1, Value: 2}}
	assert.Equal(t, in, Aggregate(in, AggregationSpec{Method: MethodNone, Window: time.Minute}))
	assert.Empty(t, Aggregate(nil, AggregationSpec{Method: MethodSum, Window: time.Minute}))
	assert.Equal(t, in, Aggregate(in, AggregationSpec{Method: MethodSum}))
}

func TestAggregateUnknownMethodKeepsFirstValue(t *testing.T) {
	in := []Sample{{Timestamp: 1000, Value: 7}, {Timestamp: 2000, Value: 8}}
	out := Aggregate(in, AggregationSpec{Method: Method("median"), Window: time.Minute})
	assert.Equal(t, []Sample{{Timestamp: 0, Value: 7}}, out)
}

func TestAggregateEpochAlignedWindows(t *testing.T) {
	in := []Sample{
		{Timestamp: 59_999, Value: 1},
		{Timestamp: 60_000, Value: 2},
		{Timestamp: 119_999, Value: 3},
	}
	out := Aggregate(in, AggregationSpec{Method: MethodSum, Window: time.Minute})
	require.Len(t, out, 2)
	assert.Equal(t, int64(0), out[0].Timestamp)
	assert.Equal(t, int64(60_000), out[1].Timestamp)
	assert.Equal(t, 5.0, out[1].Value)
}

func TestAggregateSortsInput(t *testing.T) {
	in := []Sample{
		{Timestamp: 70_000, Value: 5},
		{Timestamp: 1_000, Value: 1},
		{Timestamp: 2_000, Value: 2},
	}
	out := Aggregate(in, AggregationSpec{Method: MethodMax, Window: time.Minute})
	assert.Equal(t, []Sample{{Timestamp: 0, Value: 2}, {Timestamp: 60_000, Value: 5}}, out)
	assert.Equal(t, int64(70_000), in[0].Timestamp, "input must not be reordered")
}

func TestAggregateNegativeTimestamps(t *testing.T) {
	in := []Sample{{Timestamp: -1, Value: 1}, {Timestamp: 0, Value: 2}}
	out := Aggregate(in, AggregationSpec{Method: MethodSum, Window: time.Second})
	require.Len(t, out, 2)
	assert.Equal(t, int64(-1000), out[0].Timestamp)
	assert.Equal(t, int64(0), out[1].Timestamp)
}

func TestAggregateIdempotentOnAggregatedData(t *testing.T) {
	in := []Sample{
		{Timestamp: 100, Value: 1, Category: "x"},
		{Timestamp: 30_000, Value: 4, Category: "y"},
		{Timestamp: 61_000, Value: 6, Category: "z"},
		{Timestamp: 200_000, Value: -3},
	}
	for _, m := range []Method{MethodSum, MethodAverage, MethodMin, MethodMax} {
		spec := AggregationSpec{Method: m, Window: time.Minute}
		once := Aggregate(in, spec)
		assert.Equal(t, once, Aggregate(once, spec), "method %s", m)
	}
}

func TestCollapseEmptyWindowPanics(t *testing.T) {
	assert.Panics(t, func() { collapse(nil, MethodSum, 0) })
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{
		"":        MethodNone,
		"raw":     MethodNone,
		"SUM":     MethodSum,
		"avg":     MethodAverage,
		"average": MethodAverage,
		"min":     MethodMin,
		" max ":   MethodMax,
	} {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMethod("p99")
	assert.Error(t, err)
}

func TestMethodNextCycles(t *testing.T) {
	m := MethodNone
	for range Methods {
		m = m.Next()
	}
	assert.Equal(t, MethodNone, m)
	assert.Equal(t, MethodNone, Method("bogus").Next())
}
