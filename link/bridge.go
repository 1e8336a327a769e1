package link

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/speters/softuart/sim"
)

// Bridge pumps bytes between a connected Device and a sim.Harness:
// bytes read from the host are queued to the soft transmitter, and
// bytes the soft receiver completes are written back to the host. The
// harness itself is stepped separately, typically via Harness.Run.
type Bridge struct {
	Device  *Device
	Harness *sim.Harness
}

// Run pumps until the context is done or the device reaches EOF. The
// harness must be running (or being ticked) concurrently for bytes to
// move.
func (b *Bridge) Run(ctx context.Context) error {
	errc := make(chan error, 1)

	go func() {
		buf := make([]byte, 64)
		for {
			n, err := b.Device.Read(buf)
			if err != nil {
				if err != io.EOF {
					log.Errorf("bridge: read: %v", err)
				}
				errc <- err
				return
			}
			for i := 0; i < n; i++ {
				if qerr := b.Harness.Queue(buf[i]); qerr != nil {
					log.Warnf("bridge: dropping %#02x: %v", buf[i], qerr)
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case c := <-b.Harness.Recv():
			if _, err := b.Device.Write([]byte{c}); err != nil {
				log.Errorf("bridge: write: %v", err)
				return err
			}
		}
	}
}
