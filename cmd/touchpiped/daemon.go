package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Daemon loop
// ============================================================================
//
// One goroutine owns both sides of the adapter:
//   - inbound batch messages are dispatched into the window chain, where the
//     adapter's interceptor overwrites the contact buffer
//   - a ticker drives the pipeline's multi-point read and hands non-empty
//     results to the stream hub
//
// Because capture and consumption never interleave, a batch is always fully
// written before a tick can observe it. Moving either side to another
// goroutine would require an explicit snapshot or lock around the buffer.
//
// ============================================================================

// runDaemon dispatches messages and drives the pipeline reads until ctx is
// canceled or the message channel closes.
func runDaemon(
	ctx context.Context,
	win *Window,
	adapter *Adapter,
	msgs <-chan Message,
	hub *Hub,
	readHz int,
	maxSlots int,
	logger *slog.Logger,
) {
	if readHz <= 0 {
		readHz = defaultReadHz
	}
	if maxSlots <= 0 {
		maxSlots = defaultMaxSlots
	}

	ticker := time.NewTicker(time.Second / time.Duration(readHz))
	defer ticker.Stop()

	// Reused across ticks; ReadSamples only fills the slots it returns.
	out := make([]Sample, maxSlots)

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case msg, ok := <-msgs:
			if !ok {
				logger.Info("daemon stopping (message channel closed)")
				return
			}
			win.Dispatch(msg)

		case now := <-ticker.C:
			n := adapter.ReadSamples(out)
			if n == 0 {
				continue
			}

			frame, err := encodeSampleFrame(out[:n], now)
			if err != nil {
				logger.Error("encode sample frame failed", "error", err)
				continue
			}
			if hub != nil {
				hub.BroadcastBytes(frame)
			}
		}
	}
}
