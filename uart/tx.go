package uart

//go:generate stringer -type TxState -trimprefix tx

// TxState is a type for possible states of the Transmitter state machine.
type TxState byte

const (
	txIdle  TxState = iota // Line high, waiting for a start request
	txStart                // Drive the start bit on the next bit tick
	txData                 // Shift out data bits, LSB first
	txStop                 // Drive the stop bit, then return to idle
)

// TxInput holds the input lines sampled by the Transmitter on one system
// tick.
//
// Start is the positive form of the active-low tx_enable line: callers
// pass Start == true when the raw line is asserted low. Unlike every
// other transition, the Idle->Start latch is NOT gated by TickEnable and
// may occur on any system tick; idle has no bit timing to preserve.
type TxInput struct {
	Data       byte // byte to transmit, latched at Idle->Start
	Start      bool // start request (raw tx_enable asserted low)
	TickEnable bool // bit-period enable, asserted once per bit
}

// Transmitter drives a serial output line through one 8-N-1 frame per
// start request, one bit per externally supplied bit tick. The line
// idles high. A start request while a frame is in flight is ignored;
// the latched byte is immutable until the frame completes.
type Transmitter struct {
	state  TxState
	buf    byte // byte in flight, latched at Idle->Start
	bitPos byte
	line   bool // driven serial_out level
}

// NewTransmitter returns an idle Transmitter with its line at the
// idle-high level.
func NewTransmitter() *Transmitter {
	return &Transmitter{line: true}
}

// State returns the current state of the transmit engine.
func (t *Transmitter) State() TxState { return t.state }

// Line returns the currently driven serial_out level.
func (t *Transmitter) Line() bool { return t.line }

// Busy reports whether a frame is in flight. It is derived from the
// state, never stored: true in every state except Idle.
func (t *Transmitter) Busy() bool { return t.state != txIdle }

// Step advances the transmitter by one system tick.
func (t *Transmitter) Step(in TxInput) {
	switch t.state {
	case txIdle:
		if in.Start {
			t.buf = in.Data
			t.bitPos = 0
			t.state = txStart
		}
	case txStart:
		if !in.TickEnable {
			break
		}
		t.line = false
		t.state = txData
	case txData:
		if !in.TickEnable {
			break
		}
		t.line = t.buf&(1<<t.bitPos) != 0
		t.bitPos++
		if t.bitPos == DataBits {
			t.state = txStop
		}
	case txStop:
		if !in.TickEnable {
			break
		}
		t.line = true
		t.state = txIdle
	default:
		t.line = true
		t.state = txIdle
	}
}
