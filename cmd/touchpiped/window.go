package main

import (
	"errors"
	"fmt"
)

// ============================================================================
// Message dispatch chain
// ============================================================================
//
// A Window is a single shared dispatch point for native messages. Exactly one
// Handler is active at a time; installing a new one returns the previous
// handler so the newcomer can forward everything it does not recognize.
//
// The adapter uses this as a chain of responsibility: it swaps itself in at
// init, keeps the previous handler as its successor, and only the batch touch
// message short-circuits the chain.
//
// ============================================================================

// Message type identifiers delivered through a Window.
const (
	// MsgTouchBatch carries one batch touch notification: zero or more
	// simultaneous contact updates packed behind a BatchHandle.
	MsgTouchBatch uint32 = 0x0240
)

// HandleResult reports how a handler disposed of a message.
type HandleResult int

const (
	// Forwarded means the handler did not consume the message; it was (or
	// should be) passed along the chain.
	Forwarded HandleResult = iota

	// Handled means the message was consumed and must not travel further.
	Handled
)

// Handler receives messages dispatched through a Window.
type Handler interface {
	HandleMessage(msg Message) HandleResult
}

// HandlerFunc adapts a function literal to the Handler interface.
type HandlerFunc func(Message) HandleResult

// HandleMessage calls the underlying function.
func (f HandlerFunc) HandleMessage(msg Message) HandleResult { return f(msg) }

// Message is one native message flowing through the dispatch chain. Only
// MsgTouchBatch messages carry a contact count and a batch handle; for every
// other type those fields are zero.
type Message struct {
	Type         uint32
	ContactCount int
	Batch        BatchHandle
}

// BatchHandle is the platform-side handle to a packed touch batch. Unpack
// decodes the per-contact payload directly into the destination slice; Close
// releases the platform resources behind the handle. Unpack must not be
// called after Close.
type BatchHandle interface {
	Unpack(dst []Contact) error
	Close() error
}

// Window owns the active message handler for one native window.
//
// All dispatching happens on the daemon goroutine; Window performs no
// locking of its own.
type Window struct {
	handler Handler
}

// NewWindow returns a window whose initial handler forwards everything.
// This stands in for whatever handler the host installed before us.
func NewWindow() *Window {
	return &Window{
		handler: HandlerFunc(func(Message) HandleResult { return Forwarded }),
	}
}

// SwapHandler installs h as the active handler and returns the previously
// installed one. The caller is responsible for forwarding unrecognized
// messages to the returned handler and for swapping it back at teardown.
func (w *Window) SwapHandler(h Handler) Handler {
	prev := w.handler
	w.handler = h
	return prev
}

// Dispatch delivers msg to the active handler and returns its result.
func (w *Window) Dispatch(msg Message) HandleResult {
	return w.handler.HandleMessage(msg)
}

// ============================================================================
// In-memory batch handle
// ============================================================================

var errBatchClosed = errors.New("batch handle already closed")

// memBatch is a BatchHandle over an already-decoded frame of contacts. The
// evdev source produces these; tests use them directly.
type memBatch struct {
	contacts []Contact
	closed   bool
}

func newMemBatch(contacts []Contact) *memBatch {
	return &memBatch{contacts: contacts}
}

func (b *memBatch) Unpack(dst []Contact) error {
	if b.closed {
		return errBatchClosed
	}
	if len(dst) < len(b.contacts) {
		return fmt.Errorf("unpack: destination holds %d contacts, batch has %d", len(dst), len(b.contacts))
	}
	copy(dst, b.contacts)
	return nil
}

func (b *memBatch) Close() error {
	b.closed = true
	return nil
}
