package downsample

import (
	"errors"

	"github.com/keilerkonzept/telemetry-dashboard/lttb"
)

// Message types of the worker protocol.
const (
	TypeDownsample = "downsample"
	TypeResult     = "result"
	TypeError      = "error"
)

// ErrClosed is returned when posting to a closed worker.
var ErrClosed = errors.New("downsample: worker closed")

// Request asks a worker to reduce Data to Threshold points. ID is echoed
// back unchanged in the response.
type Request struct {
	Type      string       `json:"type"`
	ID        uint64       `json:"id"`
	Data      []lttb.Point `json:"data"`
	Threshold int          `json:"threshold"`
}

// Response carries either the reduced Data (Type "result") or a failure
// Message (Type "error") for the request with the same ID.
type Response struct {
	Type    string       `json:"type"`
	ID      uint64       `json:"id"`
	Data    []lttb.Point `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Worker runs reductions outside the caller's goroutine. Communication is
// by message copies only.
type Worker interface {
	// Post queues a request without blocking.
	Post(Request) error
	// Results delivers responses. It is closed after Close.
	Results() <-chan Response
	Close() error
}

// WorkerFactory constructs a worker. A factory error leaves the scheduler
// without a worker for its whole lifetime.
type WorkerFactory func() (Worker, error)
