// Package uart implements the two bit-level engines of an asynchronous
// 8-N-1 serial transceiver: a 16x-oversampling Receiver and a
// one-tick-per-bit Transmitter. Both are synchronous state machines with
// no internal clock; a host loop calls Step once per system tick and
// supplies the oversampling/bit-period enables externally.
package uart

// Framing and timing constants shared by both engines.
const (
	// DataBits is the number of data bits per frame, emitted and
	// sampled LSB first.
	DataBits = 8
	// OversampleRate is the number of receiver samples per bit period.
	OversampleRate = 16
	// FrameBits is the total length of one frame: start + data + stop.
	FrameBits = DataBits + 2

	sampleMid  = OversampleRate / 2 // mid-bit sampling point
	sampleLast = OversampleRate - 1 // last sample count of a bit period
)
