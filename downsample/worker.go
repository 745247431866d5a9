package downsample

import (
	"fmt"
	"sync"

	"github.com/keilerkonzept/telemetry-dashboard/lttb"
)

// MinThreshold is the smallest output size the reducer accepts.
const MinThreshold = 3

type worker struct {
	mu      sync.Mutex
	pending *Request
	closed  bool

	wake    chan struct{}
	results chan Response
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWorker starts an in-process worker goroutine. Its mailbox holds one
// request: posting while a request is still queued replaces the queued one,
// so at most one reduction runs and at most one waits.
func NewWorker() (Worker, error) {
	w := &worker{
		wake:    make(chan struct{}, 1),
		results: make(chan Response, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *worker) Post(req Request) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.pending = &req
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

func (w *worker) Results() <-chan Response {
	return w.results
}

func (w *worker) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.pending = nil
	w.mu.Unlock()
	close(w.done)
	w.wg.Wait()
	close(w.results)
	return nil
}

func (w *worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}
		w.mu.Lock()
		req := w.pending
		w.pending = nil
		w.mu.Unlock()
		if req == nil {
			continue
		}
		resp, ok := Handle(*req)
		if !ok {
			continue
		}
		select {
		case w.results <- resp:
		case <-w.done:
			return
		}
	}
}

// Handle executes one request the way a worker does. It reports false for
// messages that are not downsample requests; those get no response.
func Handle(req Request) (resp Response, ok bool) {
	if req.Type != TypeDownsample {
		return Response{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			resp = Response{Type: TypeError, ID: req.ID, Message: fmt.Sprint(r)}
			ok = true
		}
	}()
	out := lttb.Reduce(req.Data, max(MinThreshold, req.Threshold))
	return Response{Type: TypeResult, ID: req.ID, Data: out}, true
}
