package main

// Pull-style sample reads exposed to the consuming pipeline. Both calls are
// stateless with respect to previous reads: re-reading an unconsumed batch
// yields the same samples.

// ReadSample is the single-point read. It returns the number of samples
// written (0 or 1).
//
// Single-point mode tracks contact index 0 only. When contact 0 is neither
// down nor moving the read still reports one sample available but leaves the
// caller's sample untouched, so the caller observes whatever it last held.
// This mirrors the long-standing capture-module behavior and is pinned by a
// test; do not tidy it up without changing the downstream contract.
func (a *Adapter) ReadSample(samp *Sample) int {
	if a.maxSlots == 0 {
		return 0
	}

	if a.buf[0].Flags.Active() {
		*samp = sampleFromContact(a.buf[0])
	}
	return 1
}

// ReadSamples is the multi-point read. It scans buffer records in batch order
// up to min(len(out), capacity), writes one sample per down-or-moving record
// into the next free output slot, and returns the count written. Released or
// idle records are skipped entirely, not emitted as release events.
func (a *Adapter) ReadSamples(out []Sample) int {
	k := 0
	for j := 0; j < len(out) && j < a.maxSlots; j++ {
		if !a.buf[j].Flags.Active() {
			continue
		}
		out[k] = sampleFromContact(a.buf[j])
		k++
	}
	return k
}
