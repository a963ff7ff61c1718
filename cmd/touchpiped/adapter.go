package main

import (
	"errors"
	"fmt"
	"log/slog"
)

// ============================================================================
// Touch adapter: capture side
// ============================================================================
//
// The Adapter intercepts batch touch notifications on a Window and unpacks
// them into an internally owned contact buffer. It produces no samples of its
// own; the pipeline pulls them through ReadSample / ReadSamples (read.go).
//
// Buffer policy:
//   - capacity grows to the largest batch ever seen and never shrinks
//   - contents are zero-filled, then populated, on every captured batch
//   - a failed grow or unpack drops the incoming batch and leaves the
//     previous buffer contents untouched
//
// The interceptor is the sole writer of the buffer and the reads are its sole
// consumer; both run on the daemon goroutine, so a batch is always fully
// written before the next pipeline tick can observe it.
//
// ============================================================================

// Adapter holds the capture state for one window.
type Adapter struct {
	logger *slog.Logger

	win  *Window
	prev Handler // successor in the dispatch chain

	buf        []Contact
	maxSlots   int // buffer capacity; high-water mark of batch sizes
	nrContacts int // record count of the latest captured batch

	grabEvents bool

	closed bool

	// alloc grows the contact buffer. Tests override it to exercise the
	// allocation-failure path.
	alloc func(n int) ([]Contact, error)
}

func defaultAlloc(n int) ([]Contact, error) {
	return make([]Contact, n), nil
}

// NewAdapter parses the module option string, installs the adapter into the
// window's dispatch chain, and returns it. On any option error the window is
// left untouched and no adapter state survives.
func NewAdapter(win *Window, params string, logger *slog.Logger) (*Adapter, error) {
	if win == nil {
		return nil, errors.New("window must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		logger: logger,
		win:    win,
		alloc:  defaultAlloc,
	}

	if err := parseModuleParams(a, moduleVars, params); err != nil {
		return nil, fmt.Errorf("parse module params: %w", err)
	}

	a.prev = win.SwapHandler(a)
	return a, nil
}

// GrabEvents reports whether the grab_events option requested exclusive
// access to the input device.
func (a *Adapter) GrabEvents() bool { return a.grabEvents }

// MaxSlots returns the current contact buffer capacity.
func (a *Adapter) MaxSlots() int { return a.maxSlots }

// NumContacts returns the record count of the latest captured batch.
func (a *Adapter) NumContacts() int { return a.nrContacts }

// HandleMessage implements Handler. Batch touch notifications are captured
// into the contact buffer; everything else, including batches that failed to
// capture, is forwarded unmodified to the previous handler.
func (a *Adapter) HandleMessage(msg Message) HandleResult {
	if msg.Type == MsgTouchBatch {
		if a.captureBatch(msg) == Handled {
			return Handled
		}
	}
	return a.prev.HandleMessage(msg)
}

// captureBatch ingests one batch touch notification. Capture failures are
// absorbed here: the batch is dropped, prior buffer contents stay intact, and
// the message falls through the chain. The pipeline simply sees fewer or no
// samples for that tick.
func (a *Adapter) captureBatch(msg Message) HandleResult {
	n := msg.ContactCount
	if n < 0 || msg.Batch == nil {
		return Forwarded
	}

	if n > a.maxSlots {
		buf, err := a.alloc(n)
		if err != nil {
			a.logger.Debug("contact buffer grow failed, dropping batch",
				"want", n, "have", a.maxSlots, "error", err)
			return Forwarded
		}
		a.buf = buf
		a.maxSlots = n
	}

	// Zero the whole buffer, not just the first n records: the reads scan up
	// to capacity and must not see contacts from an earlier, larger batch.
	clear(a.buf)

	if err := msg.Batch.Unpack(a.buf[:n]); err != nil {
		a.logger.Debug("batch unpack failed, dropping batch",
			"contacts", n, "error", err)
		return Forwarded
	}

	a.nrContacts = n
	_ = msg.Batch.Close()
	return Handled
}

// Close restores the previous handler on the window and releases the contact
// buffer. Safe to call more than once; only the first call does work.
func (a *Adapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	a.win.SwapHandler(a.prev)
	a.buf = nil
	a.maxSlots = 0
	a.nrContacts = 0
	return nil
}
