package uart

//go:generate stringer -type RxState -trimprefix rx

// RxState is a type for possible states of the Receiver state machine.
type RxState byte

const (
	rxAwaitingStart RxState = iota // Line idle, counting consecutive low samples
	rxReceivingData                // Sampling data bits at mid-period
	rxCheckingStop                 // Waiting out / confirming the stop bit
)

// RxInput holds the input lines sampled by the Receiver on one system tick.
//
// Active is the positive form of the active-low rx_enable line: callers pass
// Active == true when the raw line is de-asserted. The inversion happens at
// the point the raw signal enters the system, never inside the engine.
type RxInput struct {
	Line       bool // serial_in level (true = high)
	TickEnable bool // oversampling enable, asserted 16x per bit period
	Active     bool // receiver enabled (raw rx_enable de-asserted)
	Ack        bool // acknowledge/clear the ready flag
}

// Receiver reconstructs bytes from a serial line sampled at 16x the bit
// rate. It detects a start bit by observing the line low for a full bit
// period, samples each data bit at its period midpoint, and accepts the
// stop condition leniently (see Step). Malformed frames are never
// reported; the machine silently resynchronizes.
type Receiver struct {
	state     RxState
	sampleCnt byte // oversampling tick count within the current bit period
	bitPos    byte // index of the data bit being sampled
	scratch   byte // accumulator, committed to data only on a good frame

	data  byte
	ready bool
}

// NewReceiver returns a Receiver in its initial AwaitingStart state.
func NewReceiver() *Receiver {
	return &Receiver{}
}

// State returns the current state of the receive engine.
func (r *Receiver) State() RxState { return r.state }

// Data returns the last completed byte. It persists across reads and is
// overwritten, without an overrun indication, when the next frame
// completes before Ready was acknowledged.
func (r *Receiver) Data() byte { return r.data }

// Ready reports whether a completed byte is waiting to be acknowledged.
// It stays set until a Step sees RxInput.Ack asserted.
func (r *Receiver) Ready() bool { return r.ready }

// Step advances the receiver by one system tick.
//
// The acknowledge input is applied first and on every tick, independent of
// the enable gating below. A frame completing on the same tick sets Ready
// afterwards, so a simultaneous ack never loses a fresh byte.
//
// No state changes unless the oversampling enable is asserted and the
// receiver is active.
func (r *Receiver) Step(in RxInput) {
	if in.Ack {
		r.ready = false
	}
	if !in.TickEnable || !in.Active {
		return
	}

	switch r.state {
	case rxAwaitingStart:
		// A high reading restarts the count; the line must read low for
		// a full bit period before this counts as a start bit.
		if in.Line {
			r.sampleCnt = 0
			break
		}
		r.sampleCnt++
		if r.sampleCnt >= sampleLast {
			r.state = rxReceivingData
			r.sampleCnt = 0
			r.bitPos = 0
			r.scratch = 0
		}
	case rxReceivingData:
		// The counter free-runs modulo 16 for the whole data phase; each
		// bit period's 16 ticks stay aligned because it never re-zeroes
		// between bits.
		r.sampleCnt = (r.sampleCnt + 1) % OversampleRate
		if r.sampleCnt == sampleMid {
			if in.Line {
				r.scratch |= 1 << r.bitPos
			}
			r.bitPos++
		}
		if r.bitPos == DataBits && r.sampleCnt == sampleLast {
			r.state = rxCheckingStop
		}
	case rxCheckingStop:
		// Accept after a full bit period, or early once past mid-period
		// if the line already reads low (the next start bit arriving
		// ahead of nominal timing). A failing stop bit is not reported.
		r.sampleCnt = (r.sampleCnt + 1) % OversampleRate
		if r.sampleCnt == sampleLast || (r.sampleCnt >= sampleMid && !in.Line) {
			r.data = r.scratch
			r.ready = true
			r.sampleCnt = 0
			r.state = rxAwaitingStart
		}
	default:
		r.sampleCnt = 0
		r.state = rxAwaitingStart
	}
}
