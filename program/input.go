package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

const (
	minRate    = 10 * time.Millisecond
	maxRate    = time.Second
	stressRate = minRate

	// maxBatch caps how many queued samples one update drains.
	maxBatch = 4096
)

type samplesMsg []series.Sample

type errMsg struct{ err error }

// produce starts the configured producer. Samples are handed to the UI loop
// through m.samples; the buffer itself is only written by Update.
func (m *model) produce() tui.Cmd {
	return func() tui.Msg {
		if config.WSURL != "" {
			if err := m.readWebsocket(config.WSURL); err != nil {
				return errMsg{err}
			}
			return nil
		}
		r, ok, err := m.openInput()
		if err != nil {
			return errMsg{err}
		}
		if !ok {
			m.generating.Store(true)
			defer m.generating.Store(false)
			m.generate(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
			return nil
		}
		defer func() { _ = r.Close() }()
		if config.JSON {
			err = m.readJSONSamples(r)
		} else {
			err = m.readTextSamples(r)
		}
		if err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m *model) openInput() (io.ReadCloser, bool, error) {
	if config.InputPath != "" {
		f, err := os.Open(config.InputPath)
		if err != nil {
			return nil, false, fmt.Errorf("open input: %w", err)
		}
		return f, true, nil
	}
	if term.IsTerminal(os.Stdin.Fd()) {
		return nil, false, nil
	}
	return io.NopCloser(os.Stdin), true, nil
}

// emit blocks until the UI loop has room for s, the producer is resumed, or
// the model is closed. It reports false once the model is closed.
func (m *model) emit(s series.Sample) bool {
	m.waitIfPaused()
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.samples <- s:
		return true
	case <-m.done:
		return false
	}
}

// waitForSamples drains whatever the producers queued so far into one batch.
func (m *model) waitForSamples() tui.Cmd {
	return func() tui.Msg {
		var batch samplesMsg
		select {
		case s := <-m.samples:
			batch = append(batch, s)
		case <-m.done:
			return nil
		}
		for len(batch) < maxBatch {
			select {
			case s := <-m.samples:
				batch = append(batch, s)
			default:
				return batch
			}
		}
		return batch
	}
}

// generate emits random samples forever at the current rate.
func (m *model) generate(rng *rand.Rand) {
	var i int
	for {
		select {
		case <-m.done:
			return
		case <-time.After(m.rate()):
		}
		s := series.Sample{
			Timestamp: time.Now().UnixMilli(),
			Value:     rng.Float64()*100 - 50,
			Category:  fmt.Sprintf("stream-%d", i%5),
		}
		if !m.emit(s) {
			return
		}
		i++
	}
}

// seedSamples builds n historic samples one second apart, ending at end.
func seedSamples(n int, end time.Time, rng *rand.Rand) []series.Sample {
	out := make([]series.Sample, n)
	start := end.Add(-time.Duration(n-1) * time.Second)
	for i := range out {
		out[i] = series.Sample{
			Timestamp: start.Add(time.Duration(i) * time.Second).UnixMilli(),
			Value:     math.Sin(float64(i)/50)*50 + rng.Float64()*10,
			Category:  fmt.Sprintf("series-%d", i%4),
		}
	}
	return out
}

func (m *model) rate() time.Duration {
	return time.Duration(m.rateNs.Load())
}

func (m *model) setRate(d time.Duration) {
	m.rateNs.Store(int64(min(max(d, minRate), maxRate)))
}

func (m *model) readTextSamples(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		if config.MaxLines > 0 && n >= config.MaxLines {
			return nil
		}
		s, ok := parseTextLine(scanner.Text(), time.Now())
		if !ok {
			continue
		}
		if !m.emit(s) {
			return nil
		}
		n++
		if config.Pace > 0 {
			time.Sleep(config.Pace)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// parseTextLine accepts "value" or "timestamp value [category]". Lines that
// do not parse are skipped.
func parseTextLine(line string, now time.Time) (series.Sample, bool) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return series.Sample{}, false
	case 1:
		v, ok := parseValue(fields[0])
		if !ok {
			return series.Sample{}, false
		}
		return series.Sample{Timestamp: now.UnixMilli(), Value: v}, true
	}
	ts, ok := parseTimestamp(fields[0])
	if !ok {
		return series.Sample{}, false
	}
	v, ok := parseValue(fields[1])
	if !ok {
		return series.Sample{}, false
	}
	s := series.Sample{Timestamp: ts, Value: v}
	if len(fields) > 2 {
		s.Category = strings.Join(fields[2:], " ")
	}
	return s, true
}

// parseValue accepts finite numbers only; NaN and infinities are dropped at
// the producer so nothing downstream sees them.
func parseValue(field string) (float64, bool) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

type record struct {
	Timestamp any     `json:"timestamp"`
	Value     float64 `json:"value"`
	Category  string  `json:"category"`
}

// sample converts r, reporting false for non-finite values.
func (r record) sample(now time.Time) (series.Sample, bool) {
	s := series.Sample{Timestamp: now.UnixMilli(), Value: r.Value, Category: r.Category}
	if r.Timestamp != nil {
		if ts, ok := parseTimestamp(r.Timestamp); ok {
			s.Timestamp = ts
		}
	}
	return s, s.Finite()
}

func (m *model) readJSONSamples(r io.Reader) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	n := 0
	for {
		if config.MaxLines > 0 && n >= config.MaxLines {
			return nil
		}
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decode record %d: %w", n+1, err)
		}
		n++
		s, ok := rec.sample(time.Now())
		if !ok {
			continue
		}
		if !m.emit(s) {
			return nil
		}
		if config.Pace > 0 {
			time.Sleep(config.Pace)
		}
	}
}

// parseTimestamp reads epoch milliseconds from a number or a numeric string,
// or an RFC 3339 time from a string.
func parseTimestamp(v any) (int64, bool) {
	switch ts := v.(type) {
	case float64:
		return int64(ts), true
	case int64:
		return ts, true
	case int:
		return int64(ts), true
	case string:
		if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return n, true
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

func (m *model) togglePause() {
	m.pauseMu.Lock()
	m.paused = !m.paused
	m.pauseMu.Unlock()
	m.pauseCond.Broadcast()
}

func (m *model) isPaused() bool {
	m.pauseMu.Lock()
	defer m.pauseMu.Unlock()
	return m.paused
}

func (m *model) waitIfPaused() {
	m.pauseMu.Lock()
	for m.paused && !m.closed {
		m.pauseCond.Wait()
	}
	m.pauseMu.Unlock()
}
