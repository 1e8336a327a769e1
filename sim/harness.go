package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/softuart/uart"
)

// Defaults for NewHarness. A 1ms timer stepping a batch of 160 ticks
// runs one frame per fire, fast enough for interactive use without
// spinning a core.
const (
	DefaultInterval  = time.Millisecond
	DefaultBatch     = uart.FrameBits * uart.OversampleRate
	defaultQueueSize = 64
)

// Harness owns one Receiver and one Transmitter. By default they are
// wired back to back: serial_out feeds serial_in. SetLineIn splits the
// pair, detaching the receiver from the local transmitter so an
// external bit source can drive it; LineOut exposes the raw transmit
// line for the other direction. Bytes queued with Queue are latched
// into the transmitter whenever it is idle; bytes the receiver
// completes are acknowledged and delivered on Recv. All stepping
// happens on the goroutine calling Tick or Run; the queues are the
// only concurrent surface.
type Harness struct {
	rx *uart.Receiver
	tx *uart.Transmitter

	clock Clock

	// lineIn supplies serial_in when the harness runs split; nil means
	// loopback from the local serial_out.
	lineIn func() bool

	// Interval and Batch control Run's pacing: every Interval the
	// harness advances Batch system ticks.
	Interval time.Duration
	Batch    int

	txq chan byte
	rxq chan byte

	// mu guards the engines and counters against Status/SetRxActive
	// from other goroutines.
	mu sync.Mutex

	rxActive   bool
	ackPending bool

	txFrames uint64
	rxBytes  uint64
	dropped  uint64
}

// Status is a point-in-time snapshot of both engines, suitable for
// the HTTP status endpoint.
type Status struct {
	Ticks    uint64 `json:"ticks"`
	RxState  string `json:"rx_state"`
	TxState  string `json:"tx_state"`
	TxBusy   bool   `json:"tx_busy"`
	RxReady  bool   `json:"rx_ready"`
	RxData   byte   `json:"rx_data"`
	TxFrames uint64 `json:"tx_frames"`
	RxBytes  uint64 `json:"rx_bytes"`
	Dropped  uint64 `json:"dropped"`
}

// NewHarness returns a loopback harness with default pacing and an
// active receiver.
func NewHarness() *Harness {
	return &Harness{
		rx:       uart.NewReceiver(),
		tx:       uart.NewTransmitter(),
		Interval: DefaultInterval,
		Batch:    DefaultBatch,
		txq:      make(chan byte, defaultQueueSize),
		rxq:      make(chan byte, defaultQueueSize),
		rxActive: true,
	}
}

// Queue schedules a byte for transmission. It fails instead of blocking
// when the transmit queue is full.
func (h *Harness) Queue(b byte) error {
	select {
	case h.txq <- b:
		return nil
	default:
		return fmt.Errorf("transmit queue full (%v pending)", cap(h.txq))
	}
}

// Recv returns the channel of completed bytes.
func (h *Harness) Recv() <-chan byte { return h.rxq }

// LineOut returns the level the transmitter currently drives on
// serial_out. Split-mode peers read the raw line here; cross-wired
// harnesses must be stepped in lockstep from a single goroutine.
func (h *Harness) LineOut() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tx.Line()
}

// SetLineIn supplies the receiver's serial_in level for subsequent
// ticks, detaching it from the local transmitter. A nil src restores
// the loopback wiring. Pass a peer's LineOut to cross-wire two
// harnesses; never the harness's own LineOut (loopback is the nil
// default, and the tick already holds the lock).
func (h *Harness) SetLineIn(src func() bool) {
	h.mu.Lock()
	h.lineIn = src
	h.mu.Unlock()
}

// SetRxActive drives the receiver's enable predicate for subsequent
// ticks. The raw rx_enable line is active-low; this takes the positive
// form.
func (h *Harness) SetRxActive(active bool) {
	h.mu.Lock()
	h.rxActive = active
	h.mu.Unlock()
}

// Status snapshots both engines. Safe to call from any goroutine.
func (h *Harness) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{
		Ticks:    h.clock.Ticks(),
		RxState:  h.rx.State().String(),
		TxState:  h.tx.State().String(),
		TxBusy:   h.tx.Busy(),
		RxReady:  h.rx.Ready(),
		RxData:   h.rx.Data(),
		TxFrames: h.txFrames,
		RxBytes:  h.rxBytes,
		Dropped:  h.dropped,
	}
}

// Tick advances the harness by exactly one system tick: the
// transmitter steps first, then the receiver samples the wired-in
// line (the local serial_out unless SetLineIn split the pair).
func (h *Harness) Tick() {
	h.mu.Lock()
	defer h.mu.Unlock()
	bitTick := h.clock.Next()

	in := uart.TxInput{TickEnable: bitTick}
	if !h.tx.Busy() {
		select {
		case b := <-h.txq:
			in.Data = b
			in.Start = true
			h.txFrames++
			log.Debugf("tx: latched %#02x (frame %v)", b, h.txFrames)
		default:
		}
	}
	h.tx.Step(in)

	line := h.tx.Line()
	if h.lineIn != nil {
		line = h.lineIn()
	}
	h.rx.Step(uart.RxInput{
		Line:       line,
		TickEnable: true,
		Active:     h.rxActive,
		Ack:        h.ackPending,
	})

	if h.rx.Ready() && !h.ackPending {
		b := h.rx.Data()
		select {
		case h.rxq <- b:
			h.rxBytes++
			log.Debugf("rx: completed %#02x (byte %v)", b, h.rxBytes)
		default:
			h.dropped++
			log.Warnf("rx: delivery queue full, dropped %#02x", b)
		}
		h.ackPending = true
	} else if !h.rx.Ready() {
		h.ackPending = false
	}
}

// Steps advances n system ticks.
func (h *Harness) Steps(n int) {
	for i := 0; i < n; i++ {
		h.Tick()
	}
}

// Run drives the harness until the context is done, advancing Batch
// ticks every Interval.
func (h *Harness) Run(ctx context.Context) error {
	interval := h.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	batch := h.Batch
	if batch <= 0 {
		batch = DefaultBatch
	}

	log.Debugf("harness: running, %v ticks per %v", batch, interval)
	timer := time.NewTicker(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debugf("harness: stopping after %v ticks", h.clock.Ticks())
			return ctx.Err()
		case <-timer.C:
			h.Steps(batch)
		}
	}
}
