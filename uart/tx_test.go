package uart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// collectFrame latches b into an idle transmitter and clocks out the
// whole frame, returning the line level seen after each bit tick.
func collectFrame(t *testing.T, tx *Transmitter, b byte) []bool {
	t.Helper()
	tx.Step(TxInput{Data: b, Start: true})
	require.True(t, tx.Busy(), "busy right after the start latch")

	var levels []bool
	for tx.Busy() {
		tx.Step(TxInput{TickEnable: true})
		levels = append(levels, tx.Line())
	}
	return levels
}

func TestTransmitterFrame(t *testing.T) {
	tx := NewTransmitter()
	require.True(t, tx.Line(), "line idles high")
	require.False(t, tx.Busy())

	levels := collectFrame(t, tx, 0xA5)
	require.Len(t, levels, FrameBits)

	require.False(t, levels[0], "start bit low")
	for bit := 0; bit < DataBits; bit++ {
		require.Equal(t, 0xA5&(1<<bit) != 0, levels[1+bit], "data bit %d", bit)
	}
	require.True(t, levels[FrameBits-1], "stop bit high")

	require.Equal(t, txIdle, tx.State())
	require.True(t, tx.Line(), "line back to idle high")
}

func TestTransmitterStartLatchIsUngated(t *testing.T) {
	tx := NewTransmitter()

	// No bit tick, yet the start request latches immediately.
	tx.Step(TxInput{Data: 0x0F, Start: true})
	require.True(t, tx.Busy())
	require.Equal(t, txStart, tx.State())
	require.True(t, tx.Line(), "start bit not driven before the first bit tick")

	// Ungated ticks keep the line untouched.
	for i := 0; i < 5; i++ {
		tx.Step(TxInput{})
	}
	require.Equal(t, txStart, tx.State())
	require.True(t, tx.Line())

	tx.Step(TxInput{TickEnable: true})
	require.False(t, tx.Line(), "start bit on the first bit tick")
}

func TestTransmitterBufferImmutableWhileBusy(t *testing.T) {
	tx := NewTransmitter()
	tx.Step(TxInput{Data: 0xA5, Start: true})

	var levels []bool
	for tx.Busy() {
		// A competing byte, with the start request still asserted, must
		// neither restart nor alter the frame in flight.
		tx.Step(TxInput{Data: 0xFF, Start: true, TickEnable: true})
		levels = append(levels, tx.Line())
	}

	require.Len(t, levels, FrameBits)
	for bit := 0; bit < DataBits; bit++ {
		require.Equal(t, 0xA5&(1<<bit) != 0, levels[1+bit], "data bit %d", bit)
	}
}

func TestTransmitterBusyContinuous(t *testing.T) {
	tx := NewTransmitter()
	tx.Step(TxInput{Data: 0x00, Start: true})

	// Busy must hold through every tick of the frame, gated or not.
	ticks := 0
	for tx.Busy() {
		require.True(t, tx.Busy())
		tx.Step(TxInput{TickEnable: ticks%2 == 0})
		ticks++
	}
	require.Equal(t, txIdle, tx.State())
	require.False(t, tx.Busy())
}

func TestTransmitterIdleStaysIdle(t *testing.T) {
	tx := NewTransmitter()
	for i := 0; i < 3*FrameBits; i++ {
		tx.Step(TxInput{Data: 0xC3, TickEnable: true})
	}
	require.Equal(t, txIdle, tx.State())
	require.True(t, tx.Line())
	require.False(t, tx.Busy())
}

func TestTransmitterDefaultRecovery(t *testing.T) {
	tx := NewTransmitter()
	tx.state = TxState(0x7F)
	tx.line = false

	tx.Step(TxInput{})
	require.Equal(t, txIdle, tx.State())
	require.True(t, tx.Line(), "recovery forces the idle-high level")

	levels := collectFrame(t, tx, 0x5A)
	require.Len(t, levels, FrameBits)
	require.False(t, levels[0])
	require.True(t, levels[FrameBits-1])
}

func TestTxStateString(t *testing.T) {
	require.Equal(t, "Idle", txIdle.String())
	require.Equal(t, "Start", txStart.String())
	require.Equal(t, "Data", txData.String())
	require.Equal(t, "Stop", txStop.String())
	require.Equal(t, "TxState(64)", TxState(0x40).String())
}
