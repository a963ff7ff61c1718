package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// TestDaemon_TickBroadcastsCapturedBatch runs the daemon loop end to end:
// a batch message is dispatched into the chain and the next tick's
// multi-point read is broadcast to a registered stream client.
func TestDaemon_TickBroadcastsCapturedBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	win, adapter := newTestAdapter(t)

	hub := NewHub(testLogger(), HubConfig{})
	go hub.Run(ctx)

	c := NewClient(hub, nil, "test-client", testLogger())
	hub.register <- c
	waitForClients(t, hub, 1)

	msgs := make(chan Message, msgQueueLen)
	go runDaemon(ctx, win, adapter, msgs, hub, 200, 5, testLogger())

	msgs <- Message{
		Type:         MsgTouchBatch,
		ContactCount: 2,
		Batch: newMemBatch([]Contact{
			{X: 10, Y: 20, Flags: ContactDown, TimeMS: 1500},
			{X: 50, Y: 60, Flags: ContactMove, TimeMS: 1500},
		}),
	}

	select {
	case frame := <-c.send:
		var decoded struct {
			Type string   `json:"type"`
			Data []Sample `json:"data"`
		}
		if err := json.Unmarshal(frame, &decoded); err != nil {
			t.Fatalf("frame is not valid JSON: %v", err)
		}
		if decoded.Type != "samples" {
			t.Errorf("type=%q, want samples", decoded.Type)
		}
		if len(decoded.Data) != 2 {
			t.Fatalf("frame carries %d samples, want 2", len(decoded.Data))
		}
		want := Sample{X: 10, Y: 20, Sec: 1, Usec: 500000}
		if decoded.Data[0] != want {
			t.Errorf("first sample=%+v, want %+v", decoded.Data[0], want)
		}

	case <-time.After(2 * time.Second):
		t.Fatal("no frame broadcast after batch capture")
	}
}

// TestDaemon_EmptyReadsBroadcastNothing checks that ticks without active
// contacts stay silent.
func TestDaemon_EmptyReadsBroadcastNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	win, adapter := newTestAdapter(t)

	hub := NewHub(testLogger(), HubConfig{})
	go hub.Run(ctx)

	c := NewClient(hub, nil, "test-client", testLogger())
	hub.register <- c
	waitForClients(t, hub, 1)

	msgs := make(chan Message, msgQueueLen)
	go runDaemon(ctx, win, adapter, msgs, hub, 200, 5, testLogger())

	// A batch whose only contact is released: captured, but filtered out.
	msgs <- Message{
		Type:         MsgTouchBatch,
		ContactCount: 1,
		Batch:        newMemBatch([]Contact{{X: 1, Y: 2, Flags: ContactUp, TimeMS: 100}}),
	}

	select {
	case frame := <-c.send:
		t.Errorf("unexpected broadcast: %s", frame)
	case <-time.After(100 * time.Millisecond):
		// Silence is correct.
	}
}
