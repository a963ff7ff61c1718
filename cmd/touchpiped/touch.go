package main

// ContactFlags is the per-contact activity bit set carried by a raw contact
// record. A record with neither ContactDown nor ContactMove is ignored by the
// sample reads.
type ContactFlags uint32

const (
	ContactDown ContactFlags = 1 << iota // contact appeared in this batch
	ContactMove                          // contact position changed
	ContactUp                            // contact was released
)

// Active reports whether the contact should produce a normalized sample.
func (f ContactFlags) Active() bool {
	return f&(ContactDown|ContactMove) != 0
}

// Contact is one raw per-contact record as delivered by the native batch
// source. Records are owned by the adapter's contact buffer and are
// overwritten wholesale on every new batch.
type Contact struct {
	X, Y   int32
	Flags  ContactFlags
	TimeMS uint32 // device timestamp in milliseconds
}

// Sample is the normalized output unit consumed by the downstream pipeline.
// The timestamp is split into whole seconds and sub-second microseconds.
type Sample struct {
	X    int   `json:"x"`
	Y    int   `json:"y"`
	Sec  int64 `json:"sec"`
	Usec int64 `json:"usec"`
}

// sampleFromContact maps a raw record into the boundary sample shape.
// Pressure is not reported; the native source does not deliver it.
func sampleFromContact(c Contact) Sample {
	return Sample{
		X:    int(c.X),
		Y:    int(c.Y),
		Sec:  int64(c.TimeMS) / 1000,
		Usec: int64(c.TimeMS) % 1000 * 1000,
	}
}
