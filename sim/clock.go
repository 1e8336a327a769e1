package sim

import "github.com/speters/softuart/uart"

// Clock divides a run of system ticks into the two enables the engines
// need: every tick is an oversampling tick for the receiver, and every
// 16th is a bit tick for the transmitter. It stands in for the external
// bit-rate generator, which the engines treat as an opaque trigger.
type Clock struct {
	ticks uint64
}

// Next advances the clock by one system tick and reports whether this
// tick carries the bit-period enable.
func (c *Clock) Next() (bitTick bool) {
	bitTick = c.ticks%uart.OversampleRate == 0
	c.ticks++
	return bitTick
}

// Ticks returns the number of system ticks elapsed.
func (c *Clock) Ticks() uint64 { return c.ticks }
