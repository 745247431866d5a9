package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

// wsFeed reads sample records from a websocket server. Each text message
// holds one JSON record or a JSON array of records.
type wsFeed struct {
	serverURL      string
	dialer         websocket.Dialer
	reconnectDelay time.Duration
	maxMessageSize int64
	pongWait       time.Duration
}

func newWSFeed(serverURL string) *wsFeed {
	return &wsFeed{
		serverURL:      serverURL,
		dialer:         websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		reconnectDelay: 2 * time.Second,
		maxMessageSize: 1 << 20,
		pongWait:       60 * time.Second,
	}
}

// run feeds samples to emit until done is closed or emit reports false. A
// failed first connection is returned; later disconnects are retried.
func (f *wsFeed) run(emit func(series.Sample) bool, done <-chan struct{}) error {
	u, err := url.Parse(f.serverURL)
	if err != nil {
		return fmt.Errorf("websocket url: %w", err)
	}
	conn, _, err := f.dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", u.Redacted(), err)
	}
	for {
		log.Printf("websocket connected: %s", u.Redacted())
		stopped, err := f.readPump(conn, emit, done)
		if stopped {
			return nil
		}
		log.Printf("websocket disconnected: %v", err)

		for {
			select {
			case <-done:
				return nil
			case <-time.After(f.reconnectDelay):
			}
			conn, _, err = f.dialer.Dial(u.String(), nil)
			if err == nil {
				break
			}
			log.Printf("websocket reconnect failed: %v", err)
		}
	}
}

// readPump reads until the connection fails. stopped is true when the feed
// should not reconnect.
func (f *wsFeed) readPump(conn *websocket.Conn, emit func(series.Sample) bool, done <-chan struct{}) (stopped bool, err error) {
	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-done:
			_ = conn.Close()
		case <-closed:
		}
	}()
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(f.maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(f.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(f.pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return true, nil
			default:
			}
			return false, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(f.pongWait))
		records, err := decodeRecords(data)
		if err != nil {
			log.Printf("websocket: skipping message: %v", err)
			continue
		}
		now := time.Now()
		for _, rec := range records {
			s, ok := rec.sample(now)
			if !ok {
				continue
			}
			if !emit(s) {
				return true, nil
			}
		}
	}
}

func decodeRecords(data []byte) ([]record, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var out []record
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return out, nil
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return []record{rec}, nil
}

func (m *model) readWebsocket(serverURL string) error {
	return newWSFeed(serverURL).run(m.emit, m.done)
}
