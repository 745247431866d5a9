package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

type exportedMsg struct{ path string }

// exportPNG renders samples as a line chart PNG at path.
func exportPNG(path, title string, samples []series.Sample, width, height int) error {
	samples = series.Sorted(samples)
	if len(samples) < 2 || samples[0].Timestamp == samples[len(samples)-1].Timestamp {
		return fmt.Errorf("export: need at least two distinct timestamps, have %d samples", len(samples))
	}
	xs := make([]time.Time, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.Time()
		ys[i] = s.Value
	}
	ch := chart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatter},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "value",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 1.5,
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("export: render: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func exportPath(now time.Time) string {
	if config.ExportPath != "" {
		return config.ExportPath
	}
	return fmt.Sprintf("dashboard-%d.png", now.Unix())
}

// exportCmd writes the current frame in the background.
func (m *model) exportCmd() tui.Cmd {
	samples := m.frame.samples
	title := fmt.Sprintf("%s | range %s | %s", m.frame.source, timeRanges[m.rangeIdx].label, m.agg)
	path := exportPath(time.Now())
	return func() tui.Msg {
		if err := exportPNG(path, title, samples, 1200, 500); err != nil {
			return errMsg{err}
		}
		return exportedMsg{path}
	}
}
