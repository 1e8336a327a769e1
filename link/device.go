// Package link attaches the soft UART to a host: a serial device or a
// TCP socket carries bytes to and from the simulated transceiver.
package link

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// DefaultBaud is used for serial connections unless Device.Baud is set.
// The host port is opened 8-N-1 to match the core's framing.
const DefaultBaud = 9600

// Device is the ReadWriteCloser representation of the host attachment.
type Device struct {
	conn         io.ReadWriteCloser
	r            *bufio.Reader
	rlock, wlock sync.Mutex

	connected bool
	done      chan struct{}

	// Baud applies to serial connections only; zero means DefaultBaud.
	Baud int
}

// NewDevice returns an unconnected Device.
func NewDevice() *Device {
	return &Device{}
}

// Connect attaches to the host via serial device or a tcp socket.
// Accepted forms: "tcp://host:port", "socket://host:port", a bare
// device path, or "file:///dev/...".
func (o *Device) Connect(link string) error {
	o.rlock.Lock()
	o.wlock.Lock()
	defer o.rlock.Unlock()
	defer o.wlock.Unlock()

	u, err := url.Parse(link)
	if err != nil {
		o.connected = false
		return err
	}

	if (u.Scheme == "socket") || (u.Scheme == "tcp") {
		// Connect via network
		o.conn, err = net.Dial("tcp", u.Host)
		if err != nil {
			return err
		}
		if tc, ok := o.conn.(*net.TCPConn); ok {
			tc.SetKeepAlive(true)
			tc.SetKeepAlivePeriod(30 * time.Second)
		}
	} else if (u.Scheme == "file") || (u.Scheme == "") {
		// Connect via serial
		baud := o.Baud
		if baud == 0 {
			baud = DefaultBaud
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		o.conn, err = serial.OpenPort(&serial.Config{Name: path, Baud: baud, Size: 8, Parity: serial.ParityNone, StopBits: serial.Stop1})
		if err != nil {
			return err
		}
	} else {
		o.connected = false
		return fmt.Errorf("can not find a valid connection string in \"%v\"", link)
	}
	o.connected = true
	o.done = make(chan struct{})
	o.r = bufio.NewReader(o.conn)

	return nil
}

// Close closes the Device, closing the underlying serial or network
// connection.
func (o *Device) Close() error {
	o.rlock.Lock()
	o.wlock.Lock()
	defer o.rlock.Unlock()
	defer o.wlock.Unlock()

	if o.done == nil {
		return io.ErrClosedPipe
	}
	select {
	case <-o.done:
		return io.ErrClosedPipe
	default:
		close(o.done)
	}

	o.connected = false
	return o.conn.Close()
}

func (o *Device) Read(b []byte) (int, error) {
	o.rlock.Lock()
	defer o.rlock.Unlock()

	if !o.connected {
		return 0, io.EOF
	}

	select {
	case <-o.done:
		return 0, io.EOF
	default:
		n, err := o.r.Read(b)
		log.Debugf("link: read b='%# x', n=%v, err=%v", b[0:n], n, err)
		return n, err
	}
}

// ReadByte reads and returns a single byte. If no byte is available,
// returns an error.
func (o *Device) ReadByte() (byte, error) {
	o.rlock.Lock()
	defer o.rlock.Unlock()
	if !o.connected {
		return 0, io.EOF
	}
	select {
	case <-o.done:
		return 0, io.EOF
	default:
		return o.r.ReadByte()
	}
}

func (o *Device) Write(b []byte) (int, error) {
	o.wlock.Lock()
	defer o.wlock.Unlock()
	if !o.connected {
		return 0, io.EOF
	}
	select {
	case <-o.done:
		return 0, io.EOF
	default:
		n, err := o.conn.Write(b)
		log.Debugf("link: write b='%# x', n=%v, err=%v", b, n, err)
		return n, err
	}
}
