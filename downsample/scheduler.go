// Package downsample keeps a reduced copy of the sample buffer up to date
// without blocking the ingest path. Reductions are debounced, run on a
// worker, and applied last-job-wins.
package downsample

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/keilerkonzept/telemetry-dashboard/lttb"
)

// Defaults of the scheduling policy.
const (
	DefaultDebounce     = 120 * time.Millisecond
	DefaultMinThreshold = 200
	DefaultMaxThreshold = 2000
)

// Source supplies the points to reduce. Points must return a copy.
type Source interface {
	Points() []lttb.Point
}

// View is the result of the latest applied reduction.
type View struct {
	ID        uint64
	Points    []lttb.Point
	Threshold int
	SourceLen int
	// Elapsed is the time from dispatch to application.
	Elapsed time.Duration
}

// Stats counts scheduler activity.
type Stats struct {
	Dispatched uint64
	Applied    uint64
	Stale      uint64
	Failed     uint64
}

type job struct {
	id        uint64
	threshold int
	sourceLen int
	sentAt    time.Time
}

// Scheduler debounces reduction requests and publishes the newest result.
type Scheduler struct {
	source       Source
	debounce     time.Duration
	minThreshold int
	maxThreshold int
	factory      WorkerFactory
	publish      func(View)
	logger       *log.Logger

	worker Worker
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	timer     *time.Timer
	gen       uint64
	threshold int
	nextID    uint64
	latest    job
	view      *View
	stats     Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDebounce sets the quiescence window after the last Notify.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) { s.debounce = d }
}

// WithThresholdBounds bounds the target size computed from the buffer length.
func WithThresholdBounds(lo, hi int) Option {
	return func(s *Scheduler) { s.minThreshold, s.maxThreshold = lo, hi }
}

// WithWorkerFactory replaces the in-process worker.
func WithWorkerFactory(f WorkerFactory) Option {
	return func(s *Scheduler) { s.factory = f }
}

// WithPublish registers a callback invoked with every applied view. It runs
// on the scheduler's result goroutine and must not block for long.
func WithPublish(f func(View)) Option {
	return func(s *Scheduler) { s.publish = f }
}

// WithLogger sets the logger for worker failures. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler reading from source. If the worker cannot be
// constructed the failure is logged and the scheduler stays inert: Notify
// does nothing and View never becomes available.
func New(source Source, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:       source,
		debounce:     DefaultDebounce,
		minThreshold: DefaultMinThreshold,
		maxThreshold: DefaultMaxThreshold,
		factory:      NewWorker,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxThreshold < s.minThreshold {
		s.maxThreshold = s.minThreshold
	}

	w, err := s.factory()
	if err != nil {
		s.logger.Printf("downsample: worker unavailable, showing raw data: %v", err)
		return s
	}
	s.worker = w
	s.wg.Add(1)
	go s.receive()
	return s
}

// Available reports whether a worker is attached.
func (s *Scheduler) Available() bool {
	return s.worker != nil
}

// Threshold returns the target size for a buffer of length n:
// clamp(n/10, min, max), never below MinThreshold.
func (s *Scheduler) Threshold(n int) int {
	t := min(max(n/10, s.minThreshold), s.maxThreshold)
	return max(MinThreshold, t)
}

// Notify tells the scheduler the buffer now holds currentLength samples.
// It restarts the debounce timer; the reduction runs once the buffer has
// been quiet for the debounce window.
func (s *Scheduler) Notify(currentLength int) {
	s.Schedule(s.Threshold(currentLength))
}

// Schedule restarts the debounce timer with an explicit target size.
func (s *Scheduler) Schedule(threshold int) {
	if s.worker == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.threshold = max(MinThreshold, threshold)
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() { s.dispatch(gen) })
}

// dispatch sends one job for timer generation gen. A timer that was
// superseded after it fired finds a newer generation and does nothing.
func (s *Scheduler) dispatch(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.nextID++
	j := job{id: s.nextID, threshold: s.threshold}
	s.mu.Unlock()

	data := s.source.Points()
	j.sourceLen = len(data)
	j.sentAt = time.Now()

	s.mu.Lock()
	if j.id < s.latest.id {
		s.mu.Unlock()
		return
	}
	s.latest = j
	s.stats.Dispatched++
	s.mu.Unlock()

	err := s.worker.Post(Request{Type: TypeDownsample, ID: j.id, Data: data, Threshold: j.threshold})
	if err != nil {
		s.mu.Lock()
		s.stats.Failed++
		s.mu.Unlock()
		s.logger.Printf("downsample: post job %d: %v", j.id, err)
	}
}

func (s *Scheduler) receive() {
	defer s.wg.Done()
	for resp := range s.worker.Results() {
		s.apply(resp)
	}
}

// apply publishes resp if it answers the most recently dispatched job.
func (s *Scheduler) apply(resp Response) {
	s.mu.Lock()
	if resp.ID != s.latest.id {
		s.stats.Stale++
		s.mu.Unlock()
		return
	}
	if resp.Type != TypeResult {
		s.stats.Failed++
		s.mu.Unlock()
		s.logger.Printf("downsample: job %d failed: %s", resp.ID, resp.Message)
		return
	}
	v := View{
		ID:        resp.ID,
		Points:    resp.Data,
		Threshold: s.latest.threshold,
		SourceLen: s.latest.sourceLen,
		Elapsed:   time.Since(s.latest.sentAt),
	}
	s.view = &v
	s.stats.Applied++
	publish := s.publish
	s.mu.Unlock()

	if publish != nil {
		publish(v)
	}
}

// View returns the latest applied reduction.
func (s *Scheduler) View() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return View{}, false
	}
	return *s.view, true
}

// Stats returns activity counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close stops the pending timer and the worker.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	if s.worker == nil {
		return nil
	}
	err := s.worker.Close()
	s.wg.Wait()
	return err
}
