package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ============================================================================
// Native batch source: Linux evdev multitouch
// ============================================================================
//
// This is the one native event-delivery mechanism the adapter is tied to.
// A single goroutine epoll-waits on the device, decodes input_event records,
// accumulates per-slot multitouch state, and on every SYN_REPORT emits one
// MsgTouchBatch message carrying the frame's contacts. It never touches the
// contact buffer itself; the daemon loop dispatches the message into the
// window chain on its own goroutine.
//
// ============================================================================

// inputEvent mirrors struct input_event on 64-bit kernels:
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// timeMS converts the event timestamp to device milliseconds.
func (ev inputEvent) timeMS() uint32 {
	return uint32(ev.Sec*1000 + ev.Usec/1000)
}

// ioctl request encoding (Linux _IOC macro), enough for EVIOCGRAB.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

func eviocGrab() uintptr {
	// EVIOCGRAB = _IOW('E', 0x90, int)
	return ioc(iocWrite, uint32('E'), 0x90, uint32(unsafe.Sizeof(int32(0))))
}

// grabDevice requests exclusive access to the input device so the desktop
// does not see the touches we consume.
func grabDevice(fd int) error {
	var one int32 = 1
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocGrab(), uintptr(unsafe.Pointer(&one)))
	if errno != 0 {
		return errno
	}
	return nil
}

// slotState tracks one kernel MT slot between frames.
type slotState struct {
	tracking int32 // kernel tracking id; -1 when the slot is empty
	x, y     int32

	// Per-frame markers, reset after every SYN_REPORT.
	down  bool // touched down in the current frame
	moved bool // position changed in the current frame
	up    bool // released in the current frame
}

// frameAssembler folds a stream of input events into per-frame contact
// batches following the type-B multitouch protocol (slots + tracking ids).
type frameAssembler struct {
	slots []slotState
	cur   int // slot addressed by the last ABS_MT_SLOT
}

func newFrameAssembler() *frameAssembler {
	fa := &frameAssembler{slots: make([]slotState, initialSlots)}
	for i := range fa.slots {
		fa.slots[i].tracking = -1
	}
	return fa
}

// feed applies one event. On SYN_REPORT it returns the completed frame and
// true; for every other event it returns nil and false. The returned slice is
// freshly allocated per frame, so the caller may hand it off.
func (fa *frameAssembler) feed(ev inputEvent) ([]Contact, bool) {
	switch ev.Type {
	case EV_ABS:
		switch ev.Code {
		case ABS_MT_SLOT:
			fa.cur = int(ev.Value)
			for fa.cur >= len(fa.slots) {
				fa.slots = append(fa.slots, slotState{tracking: -1})
			}

		case ABS_MT_TRACKING_ID:
			s := &fa.slots[fa.cur]
			if ev.Value >= 0 {
				if s.tracking < 0 {
					s.down = true
				}
				s.tracking = ev.Value
			} else if s.tracking >= 0 {
				s.up = true
				s.tracking = -1
			}

		case ABS_MT_POSITION_X:
			s := &fa.slots[fa.cur]
			if s.tracking >= 0 && !s.down && s.x != ev.Value {
				s.moved = true
			}
			s.x = ev.Value

		case ABS_MT_POSITION_Y:
			s := &fa.slots[fa.cur]
			if s.tracking >= 0 && !s.down && s.y != ev.Value {
				s.moved = true
			}
			s.y = ev.Value
		}

	case EV_SYN:
		if ev.Code == SYN_REPORT {
			return fa.flushFrame(ev.timeMS()), true
		}
	}

	return nil, false
}

// flushFrame snapshots all occupied (or just-released) slots in slot order
// and clears the per-frame markers. Contacts held stationary stay in the
// frame with no flag bits set; the reads skip them.
func (fa *frameAssembler) flushFrame(timeMS uint32) []Contact {
	var contacts []Contact
	for i := range fa.slots {
		s := &fa.slots[i]
		if s.tracking < 0 && !s.up {
			continue
		}

		var flags ContactFlags
		switch {
		case s.down:
			flags = ContactDown
		case s.up:
			flags = ContactUp
		case s.moved:
			flags = ContactMove
		}

		contacts = append(contacts, Contact{
			X:      s.x,
			Y:      s.y,
			Flags:  flags,
			TimeMS: timeMS,
		})

		s.down, s.moved, s.up = false, false, false
	}
	return contacts
}

// runEvdevSource captures multitouch frames from the device and posts one
// MsgTouchBatch message per frame. It returns when ctx is canceled or on a
// device error. If the message queue is full the frame is dropped; a missed
// batch is simply absent from the next read.
func runEvdevSource(ctx context.Context, path string, grab bool, msgs chan<- Message, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input device: %w", err)
	}
	defer f.Close()

	fd := int(f.Fd())
	if grab {
		if err := grabDevice(fd); err != nil {
			// Not fatal: capture still works, the desktop just sees the
			// touches too.
			logger.Warn("EVIOCGRAB failed, continuing without exclusive access",
				"device", path, "error", err)
		} else {
			logger.Info("input device grabbed", "device", path)
		}
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
	}

	// Reusable buffers
	epollEvents := make([]unix.EpollEvent, 8)
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	fa := newFrameAssembler()

	logger.Info("evdev source running", "device", path)

	for {
		if ctx.Err() != nil {
			return nil
		}

		// Bounded wait so cancellation is noticed without extra plumbing.
		n, err := unix.EpollWait(epfd, epollEvents, 500)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		if n == 0 {
			continue
		}

		if epollEvents[0].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			return fmt.Errorf("device error/hangup: %s", path)
		}

		if _, err := f.Read(buf); err != nil {
			return fmt.Errorf("read from %s: %w", path, err)
		}

		reader.Reset(buf)
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}

		contacts, done := fa.feed(ev)
		if !done {
			continue
		}

		msg := Message{
			Type:         MsgTouchBatch,
			ContactCount: len(contacts),
			Batch:        newMemBatch(contacts),
		}

		select {
		case msgs <- msg:
		default:
			logger.Debug("message queue full, dropping batch", "contacts", len(contacts))
		}
	}
}
