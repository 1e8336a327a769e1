package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/speters/softuart/sim"
	"github.com/speters/softuart/uart"
)

const frameTicks = (uart.FrameBits + 2) * uart.OversampleRate

func TestSendEndpoint(t *testing.T) {
	harness = sim.NewHarness()

	w := httptest.NewRecorder()
	sendByte(w, httptest.NewRequest("POST", "/send", strings.NewReader("165")))
	require.Equal(t, http.StatusOK, w.Code)

	harness.Steps(frameTicks)
	select {
	case b := <-harness.Recv():
		require.Equal(t, byte(165), b)
	default:
		t.Fatal("queued byte never completed the loopback")
	}
}

func TestSendEndpointRejectsBadBodies(t *testing.T) {
	harness = sim.NewHarness()

	for _, body := range []string{"300", "-1", "1.5", "\"A5\"", "zz"} {
		w := httptest.NewRecorder()
		sendByte(w, httptest.NewRequest("POST", "/send", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestRecvEndpointEncodesNumbers(t *testing.T) {
	harness = sim.NewHarness()
	require.NoError(t, harness.Queue(0xA5))
	require.NoError(t, harness.Queue(0x42))
	harness.Steps(2 * frameTicks)

	w := httptest.NewRecorder()
	recvBytes(w, httptest.NewRequest("GET", "/recv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[165, 66]", w.Body.String())

	// Drained: the next call reports an empty array, not null.
	w = httptest.NewRecorder()
	recvBytes(w, httptest.NewRequest("GET", "/recv", nil))
	require.JSONEq(t, "[]", w.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	harness = sim.NewHarness()

	w := httptest.NewRecorder()
	getStatus(w, httptest.NewRequest("GET", "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"rx_state": "AwaitingStart"`)
	require.Contains(t, w.Body.String(), `"tx_state": "Idle"`)
}
