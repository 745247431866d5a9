package main

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

// newTestModel builds a model without seed data and closes it after the test.
func newTestModel(t *testing.T) *model {
	t.Helper()
	withConfig(t, func(c *Config) {
		c.Seed = 0
		c.Debounce = 10 * time.Millisecond
	})
	m := newModel()
	t.Cleanup(m.close)
	return m
}

// drain collects everything queued on m.samples.
func drain(m *model) []series.Sample {
	var out []series.Sample
	for {
		select {
		case s := <-m.samples:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestParseTextLine(t *testing.T) {
	now := time.UnixMilli(5000)
	tests := []struct {
		line string
		want series.Sample
		ok   bool
	}{
		{line: "42.5", want: series.Sample{Timestamp: 5000, Value: 42.5}, ok: true},
		{line: "1000 -3", want: series.Sample{Timestamp: 1000, Value: -3}, ok: true},
		{line: "1000 7 cpu.user", want: series.Sample{Timestamp: 1000, Value: 7, Category: "cpu.user"}, ok: true},
		{line: "2024-01-02T03:04:05Z 1 net", want: series.Sample{Timestamp: 1704164645000, Value: 1, Category: "net"}, ok: true},
		{line: "", ok: false},
		{line: "abc", ok: false},
		{line: "yesterday 1", ok: false},
		{line: "1000 nan-ish", ok: false},
		{line: "NaN", ok: false},
		{line: "inf", ok: false},
		{line: "-Inf", ok: false},
		{line: "1000 NaN cpu", ok: false},
		{line: "1000 +Inf", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parseTextLine(tt.line, now)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, ok := parseTimestamp(float64(1700000000000))
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), ts)

	ts, ok = parseTimestamp("1700000000000")
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), ts)

	_, ok = parseTimestamp(true)
	assert.False(t, ok)
}

func TestReadTextSamples(t *testing.T) {
	m := newTestModel(t)
	input := "1000 1 a\nnot a sample\n2000 2 b\n3\n"
	require.NoError(t, m.readTextSamples(strings.NewReader(input)))

	got := drain(m)
	require.Len(t, got, 3)
	assert.Equal(t, series.Sample{Timestamp: 1000, Value: 1, Category: "a"}, got[0])
	assert.Equal(t, series.Sample{Timestamp: 2000, Value: 2, Category: "b"}, got[1])
	assert.Equal(t, 3.0, got[2].Value)
}

func TestReadTextSamplesMaxLines(t *testing.T) {
	m := newTestModel(t)
	config.MaxLines = 2
	require.NoError(t, m.readTextSamples(strings.NewReader("1\n2\n3\n4\n")))
	assert.Len(t, drain(m), 2)
}

func TestReadJSONSamples(t *testing.T) {
	m := newTestModel(t)
	input := `{"timestamp": 1000, "value": 1.5, "category": "cpu"}
{"timestamp": "2024-01-02T03:04:05Z", "value": 2}
{"value": 3}`
	require.NoError(t, m.readJSONSamples(strings.NewReader(input)))

	got := drain(m)
	require.Len(t, got, 3)
	assert.Equal(t, series.Sample{Timestamp: 1000, Value: 1.5, Category: "cpu"}, got[0])
	assert.Equal(t, int64(1704164645000), got[1].Timestamp)
	assert.Equal(t, 3.0, got[2].Value)
	assert.NotZero(t, got[2].Timestamp, "missing timestamps use the arrival time")
}

func TestRecordSampleRejectsNonFinite(t *testing.T) {
	now := time.UnixMilli(5000)
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, ok := record{Value: v}.sample(now)
		assert.False(t, ok, "value %v", v)
	}
	s, ok := record{Value: 2, Category: "cpu"}.sample(now)
	assert.True(t, ok)
	assert.Equal(t, series.Sample{Timestamp: 5000, Value: 2, Category: "cpu"}, s)
}

func TestReadTextSamplesDropsNonFinite(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.readTextSamples(strings.NewReader("1000 1\n2000 NaN\n3000 inf\n4000 4\n")))
	got := drain(m)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Value)
	assert.Equal(t, 4.0, got[1].Value)
}

func TestReadJSONSamplesBadRecord(t *testing.T) {
	m := newTestModel(t)
	err := m.readJSONSamples(strings.NewReader(`{"value": 1} {"value": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
}

func TestSeedSamples(t *testing.T) {
	end := time.UnixMilli(1_000_000)
	got := seedSamples(100, end, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, got, 100)
	assert.Equal(t, end.UnixMilli(), got[99].Timestamp)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, int64(1000), got[i].Timestamp-got[i-1].Timestamp)
	}
	assert.Equal(t, "series-0", got[0].Category)
	assert.Equal(t, "series-3", got[3].Category)
	for _, s := range got {
		assert.GreaterOrEqual(t, s.Value, -50.0)
		assert.Less(t, s.Value, 60.0)
	}
}

func TestSetRateClamps(t *testing.T) {
	m := newTestModel(t)
	m.setRate(time.Nanosecond)
	assert.Equal(t, minRate, m.rate())
	m.setRate(time.Hour)
	assert.Equal(t, maxRate, m.rate())
}

func TestEmitAfterCloseReturnsFalse(t *testing.T) {
	m := newTestModel(t)
	m.togglePause()
	m.close()
	assert.False(t, m.emit(series.Sample{Value: 1}))
	assert.Empty(t, drain(m))
}

func TestWaitForSamplesBatches(t *testing.T) {
	m := newTestModel(t)
	for i := range 5 {
		m.samples <- series.Sample{Timestamp: int64(i)}
	}
	msg := m.waitForSamples()()
	batch, ok := msg.(samplesMsg)
	require.True(t, ok)
	assert.Len(t, batch, 5)
}
