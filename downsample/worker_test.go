package downsample

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilerkonzept/telemetry-dashboard/lttb"
)

func ramp(n int) []lttb.Point {
	out := make([]lttb.Point, n)
	for i := range out {
		out[i] = lttb.Point{Timestamp: int64(i), Value: float64(i % 17)}
	}
	return out
}

func TestHandle(t *testing.T) {
	resp, ok := Handle(Request{Type: TypeDownsample, ID: 7, Data: ramp(100), Threshold: 10})
	require.True(t, ok)
	assert.Equal(t, TypeResult, resp.Type)
	assert.Equal(t, uint64(7), resp.ID)
	assert.Len(t, resp.Data, 10)
}

func TestHandleClampsThreshold(t *testing.T) {
	resp, ok := Handle(Request{Type: TypeDownsample, ID: 1, Data: ramp(100), Threshold: 1})
	require.True(t, ok)
	assert.Len(t, resp.Data, MinThreshold)
}

func TestHandleIgnoresOtherTypes(t *testing.T) {
	_, ok := Handle(Request{Type: "ping", ID: 1})
	assert.False(t, ok)
}

func TestWorkerRoundTrip(t *testing.T) {
	w, err := NewWorker()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Post(Request{Type: TypeDownsample, ID: 42, Data: ramp(500), Threshold: 50}))
	select {
	case resp := <-w.Results():
		assert.Equal(t, uint64(42), resp.ID)
		assert.Equal(t, TypeResult, resp.Type)
		assert.Len(t, resp.Data, 50)
	case <-time.After(5 * time.Second):
		t.Fatal("no response from worker")
	}
}

func TestWorkerPostAfterClose(t *testing.T) {
	w, err := NewWorker()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Post(Request{Type: TypeDownsample}), ErrClosed)
	_, open := <-w.Results()
	assert.False(t, open)
}

func TestMessageWireFormat(t *testing.T) {
	b, err := json.Marshal(Request{Type: TypeDownsample, ID: 3, Data: []lttb.Point{{Timestamp: 1, Value: 2}}, Threshold: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"downsample","id":3,"data":[{"timestamp":1,"value":2}],"threshold":5}`, string(b))

	b, err = json.Marshal(Response{Type: TypeError, ID: 3, Message: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","id":3,"message":"boom"}`, string(b))
}
