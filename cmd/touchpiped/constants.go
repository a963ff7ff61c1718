package main

// Linux input event types and codes (from <linux/input-event-codes.h>)
const (
	EV_SYN = 0x00
	EV_ABS = 0x03

	SYN_REPORT = 0x00

	ABS_MT_SLOT        = 0x2f
	ABS_MT_POSITION_X  = 0x35
	ABS_MT_POSITION_Y  = 0x36
	ABS_MT_TRACKING_ID = 0x39
)

// Daemon defaults
const (
	defaultDevice     = "/dev/input/event0"
	defaultReadHz     = 60 // pipeline pull frequency (Hz)
	defaultMaxSlots   = 10 // output slots per multi-point read
	defaultListenAddr = ":3080"

	// initialSlots is the evdev source's starting slot-table size; it grows
	// on demand when the kernel reports a higher slot index.
	initialSlots = 10

	// msgQueueLen bounds the in-flight batch messages between the evdev
	// source and the daemon loop. A full queue drops the batch: there is no
	// buffering of unconsumed batches across notifications.
	msgQueueLen = 64
)
