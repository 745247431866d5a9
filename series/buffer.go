package series

import (
	"sync"

	"github.com/keilerkonzept/telemetry-dashboard/lttb"
)

// DefaultCapacity is the number of samples a buffer keeps when no capacity
// is configured.
const DefaultCapacity = 200_000

// Buffer is a bounded, append-only sample store. When full, appending
// evicts the oldest sample. Reads return copies in append order.
//
// A Buffer has a single writer; the lock only protects readers that run on
// other goroutines (such as the downsampling scheduler's timer).
type Buffer struct {
	mu       sync.RWMutex
	data     []Sample
	head     int // next write position
	count    int
	appended uint64
}

// NewBuffer returns an empty buffer. A non-positive capacity selects
// DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]Sample, capacity)}
}

// Append stores s, evicting the oldest sample if the buffer is full.
// Out-of-order timestamps are accepted as-is.
func (b *Buffer) Append(s Sample) {
	b.mu.Lock()
	b.data[b.head] = s
	b.head++
	if b.head == len(b.data) {
		b.head = 0
	}
	if b.count < len(b.data) {
		b.count++
	}
	b.appended++
	b.mu.Unlock()
}

// Len returns the number of stored samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Appended returns how many samples were ever appended, evicted ones included.
func (b *Buffer) Appended() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.appended
}

// Last returns the most recently appended sample.
func (b *Buffer) Last() (Sample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return Sample{}, false
	}
	i := b.head - 1
	if i < 0 {
		i = len(b.data) - 1
	}
	return b.data[i], true
}

// Snapshot returns a copy of all stored samples, oldest first.
func (b *Buffer) Snapshot() []Sample {
	return b.Tail(-1)
}

// Tail returns a copy of the n most recent samples, oldest first. A
// negative n returns everything.
func (b *Buffer) Tail(n int) []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n < 0 || n > b.count {
		n = b.count
	}
	out := make([]Sample, n)
	b.copyTail(out)
	return out
}

// Points returns the timestamp/value projection of all stored samples,
// oldest first.
func (b *Buffer) Points() []lttb.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]lttb.Point, b.count)
	start := b.head - b.count
	if start < 0 {
		start += len(b.data)
	}
	for i := range out {
		s := b.data[(start+i)%len(b.data)]
		out[i] = lttb.Point{Timestamp: s.Timestamp, Value: s.Value}
	}
	return out
}

// copyTail fills dst with the len(dst) most recent samples. Callers hold
// the read lock.
func (b *Buffer) copyTail(dst []Sample) {
	n := len(dst)
	if n == 0 {
		return
	}
	start := b.head - n
	if start >= 0 {
		copy(dst, b.data[start:b.head])
		return
	}
	start += len(b.data)
	k := copy(dst, b.data[start:])
	copy(dst[k:], b.data[:b.head])
}
