package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// TestEncodeSampleFrame checks the wire envelope shape.
func TestEncodeSampleFrame(t *testing.T) {
	ts := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	samples := []Sample{
		{X: 10, Y: 20, Sec: 1, Usec: 500000},
		{X: 50, Y: 60, Sec: 1, Usec: 500000},
	}

	frame, err := encodeSampleFrame(samples, ts)
	if err != nil {
		t.Fatalf("encodeSampleFrame failed: %v", err)
	}

	var decoded struct {
		Type string    `json:"type"`
		Ts   time.Time `json:"ts"`
		Data []Sample  `json:"data"`
	}
	if err := json.Unmarshal(frame, &decoded); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}

	if decoded.Type != "samples" {
		t.Errorf("type=%q, want samples", decoded.Type)
	}
	if !decoded.Ts.Equal(ts) {
		t.Errorf("ts=%v, want %v", decoded.Ts, ts)
	}
	if len(decoded.Data) != 2 || decoded.Data[0] != samples[0] || decoded.Data[1] != samples[1] {
		t.Errorf("data=%+v, want %+v", decoded.Data, samples)
	}
}

func clientCount(h *Hub) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if clientCount(h) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients (have %d)", want, clientCount(h))
}

// TestHub_BroadcastReachesClient registers a client (no real socket needed;
// broadcast only touches the send channel) and checks a frame arrives.
func TestHub_BroadcastReachesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(testLogger(), HubConfig{})
	go hub.Run(ctx)

	c := NewClient(hub, nil, "test-client", testLogger())
	hub.register <- c
	waitForClients(t, hub, 1)

	hub.BroadcastBytes([]byte(`{"type":"samples"}`))

	select {
	case msg := <-c.send:
		if string(msg) != `{"type":"samples"}` {
			t.Errorf("client received %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never received the broadcast")
	}
}

// TestHub_SlowClientEvicted fills a client's send buffer and checks the hub
// drops it instead of blocking the broadcast path.
func TestHub_SlowClientEvicted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(testLogger(), HubConfig{SendBuf: 1})
	go hub.Run(ctx)

	c := NewClient(hub, nil, "slow-client", testLogger())
	hub.register <- c
	waitForClients(t, hub, 1)

	// First frame fills the buffer; the second marks the client slow.
	hub.BroadcastBytes([]byte(`one`))
	hub.BroadcastBytes([]byte(`two`))

	waitForClients(t, hub, 0)
}
