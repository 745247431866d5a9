package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"

	"github.com/keilerkonzept/telemetry-dashboard/downsample"
	"github.com/keilerkonzept/telemetry-dashboard/series"
)

type Config struct {
	// buffer + reduction
	Capacity     int
	Debounce     time.Duration
	ThresholdMin int
	ThresholdMax int

	// producer
	Rate      time.Duration
	Seed      int
	InputPath string
	JSON      bool
	WSURL     string
	MaxLines  int
	Pace      time.Duration

	// category leaderboard sketch
	K          int
	Width      int
	Depth      int
	Decay      float64
	TickSize   time.Duration
	WindowSize time.Duration

	// render
	PlotFPS   int
	ItemsFPS  int
	Chart     string
	Aggregate string
	AggWindow time.Duration
	Range     string
	LogScale  bool
	ViewSplit int

	StatsEnabled bool
	StatsWindow  int

	AltScreen  bool
	LogPath    string
	ExportPath string
}

var config = Config{
	Capacity:     series.DefaultCapacity,
	Debounce:     downsample.DefaultDebounce,
	ThresholdMin: downsample.DefaultMinThreshold,
	ThresholdMax: downsample.DefaultMaxThreshold,

	Rate:      100 * time.Millisecond,
	Seed:      10000,
	InputPath: "",
	JSON:      false,
	WSURL:     "",
	MaxLines:  0,
	Pace:      0,

	K:          12,
	Width:      1024,
	Depth:      3,
	Decay:      0.9,
	TickSize:   time.Second,
	WindowSize: 30 * time.Second,

	PlotFPS:   20,
	ItemsFPS:  2,
	Chart:     "line",
	Aggregate: "none",
	AggWindow: time.Minute,
	Range:     "5m",
	LogScale:  false,
	ViewSplit: 30,

	StatsEnabled: true,
	StatsWindow:  256,

	AltScreen:  true,
	LogPath:    "",
	ExportPath: "",
}

var (
	selectedColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	accentColor   = styles.AdaptiveColor{Light: "#1e40af", Dark: "#60a5fa"}
	selectedFg    = styles.NewStyle().Foreground(selectedColor)
	borderFg      = styles.NewStyle().Foreground(borderColor)
	accentFg      = styles.NewStyle().Foreground(accentColor)
	plotStyle     = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			Foreground(borderColor).
			BorderForeground(borderColor)
)

func main() {
	flag.IntVar(&config.Capacity, "capacity", config.Capacity, "Maximum number of samples kept in memory")
	flag.DurationVar(&config.Debounce, "debounce", config.Debounce, "Quiet period before a background downsampling pass")
	flag.IntVar(&config.ThresholdMin, "threshold-min", config.ThresholdMin, "Lower bound of the downsampled series size")
	flag.IntVar(&config.ThresholdMax, "threshold-max", config.ThresholdMax, "Upper bound of the downsampled series size")
	flag.DurationVar(&config.Rate, "rate", config.Rate, "Synthetic stream interval between samples [10ms,1s] (used when no input is given)")
	flag.IntVar(&config.Seed, "seed", config.Seed, "Pre-load this many synthetic historic samples (0 = none)")
	flag.StringVar(&config.InputPath, "in", config.InputPath, "Read samples from this file instead of stdin")
	flag.BoolVar(&config.JSON, "json", config.JSON, "Read JSON records {timestamp,value,[category]} instead of text lines")
	flag.StringVar(&config.WSURL, "ws", config.WSURL, "Read JSON sample records from this websocket URL")
	flag.IntVar(&config.MaxLines, "max-lines", config.MaxLines, "Stop after reading this many records (0 = unlimited)")
	flag.DurationVar(&config.Pace, "pace", config.Pace, "Sleep between input records (e.g. 5ms, 50ms)")
	flag.IntVar(&config.K, "k", config.K, "Track the top K categories")
	flag.IntVar(&config.Width, "width", config.Width, "Category sketch width")
	flag.IntVar(&config.Depth, "depth", config.Depth, "Category sketch depth")
	flag.Float64Var(&config.Decay, "decay", config.Decay, "Category sketch counter decay probability on collisions")
	flag.DurationVar(&config.TickSize, "tick", config.TickSize, "Category sliding window tick size")
	flag.DurationVar(&config.WindowSize, "window", config.WindowSize, "Category sliding window size")
	flag.IntVar(&config.PlotFPS, "plot-fps", config.PlotFPS, "Chart refresh rate (frames per second)")
	flag.IntVar(&config.ItemsFPS, "items-fps", config.ItemsFPS, "Category list and table refresh rate (frames per second)")
	flag.StringVar(&config.Chart, "chart", config.Chart, "Chart type: line, bar, scatter or heatmap")
	flag.StringVar(&config.Aggregate, "aggregate", config.Aggregate, "Aggregation method: none, sum, average, min or max")
	flag.DurationVar(&config.AggWindow, "agg-window", config.AggWindow, "Aggregation window (1m, 5m or 1h)")
	flag.StringVar(&config.Range, "range", config.Range, "Visible time range: 30s, 1m, 5m, 15m, 30m, 1h, 4h, 1d or all")
	flag.BoolVar(&config.LogScale, "log-scale", config.LogScale, "Use a signed logarithmic Y axis scale (default: linear)")
	flag.IntVar(&config.ViewSplit, "view-split", config.ViewSplit, "Split the view at this % of the total screen width [20,80]")
	flag.BoolVar(&config.StatsEnabled, "stats", config.StatsEnabled, "Show runtime performance stats")
	flag.IntVar(&config.StatsWindow, "stats-window", config.StatsWindow, "Number of recent samples kept per metric")
	flag.BoolVar(&config.AltScreen, "alt-screen", config.AltScreen, "Use the terminal alternate screen buffer (recommended inside IDE terminals)")
	flag.StringVar(&config.LogPath, "log", config.LogPath, "Write logs to this file (default: discard)")
	flag.StringVar(&config.ExportPath, "export", config.ExportPath, "PNG path for chart exports (default: dashboard-<time>.png)")

	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run validates the config and drives the UI until it quits. Deferred
// cleanup happens before it returns, so main may exit afterwards.
func run() error {
	if err := validateAndNormalizeConfig(); err != nil {
		return err
	}

	if config.LogPath != "" {
		f, err := tui.LogToFile(config.LogPath, "dashboard ")
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	m := newModel()
	defer m.close()
	opts := []tui.ProgramOption{tui.WithInputTTY()}
	if config.AltScreen {
		opts = append(opts, tui.WithAltScreen())
	}
	if _, err := tui.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

func validateAndNormalizeConfig() error {
	if config.Capacity < 1 {
		return fmt.Errorf("-capacity must be >= 1")
	}
	if config.Debounce < 0 {
		return fmt.Errorf("-debounce must be >= 0")
	}
	if config.ThresholdMin < downsample.MinThreshold {
		return fmt.Errorf("-threshold-min must be >= %d", downsample.MinThreshold)
	}
	if config.ThresholdMax < config.ThresholdMin {
		return fmt.Errorf("-threshold-max must be >= -threshold-min")
	}
	if config.Seed < 0 {
		return fmt.Errorf("-seed must be >= 0")
	}
	if config.K < 1 {
		return fmt.Errorf("-k must be >= 1")
	}
	if config.Width < 1 {
		return fmt.Errorf("-width must be >= 1")
	}
	if config.Depth < 1 {
		return fmt.Errorf("-depth must be >= 1")
	}
	if config.Decay < 0 || config.Decay > 1 {
		return fmt.Errorf("-decay must be in [0,1]")
	}
	if config.TickSize <= 0 {
		return fmt.Errorf("-tick must be > 0")
	}
	if config.WindowSize < config.TickSize {
		return fmt.Errorf("-window must be >= -tick")
	}
	if config.WindowSize%config.TickSize != 0 {
		return fmt.Errorf("-window must be a multiple of -tick (got window=%s tick=%s)", config.WindowSize, config.TickSize)
	}
	if config.PlotFPS < 1 {
		return fmt.Errorf("-plot-fps must be >= 1")
	}
	if config.ItemsFPS < 1 {
		return fmt.Errorf("-items-fps must be >= 1")
	}
	if config.MaxLines < 0 {
		return fmt.Errorf("-max-lines must be >= 0")
	}
	if config.Pace < 0 {
		return fmt.Errorf("-pace must be >= 0")
	}
	if config.AggWindow <= 0 {
		return fmt.Errorf("-agg-window must be > 0")
	}
	if _, err := series.ParseMethod(config.Aggregate); err != nil {
		return fmt.Errorf("-aggregate: %w", err)
	}
	if _, ok := parseRange(config.Range); !ok {
		return fmt.Errorf("-range: unknown range %q", config.Range)
	}
	if config.WSURL != "" && config.InputPath != "" {
		return fmt.Errorf("choose only one: -ws or -in")
	}

	// Soft values are clamped rather than rejected.
	config.Rate = min(max(config.Rate, minRate), maxRate)
	config.ViewSplit = min(max(config.ViewSplit, 20), 80)
	config.StatsWindow = max(config.StatsWindow, 16)
	config.Seed = min(config.Seed, config.Capacity)
	return nil
}
