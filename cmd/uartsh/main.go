package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"sync"

	"github.com/abiosoft/ishell"
	log "github.com/sirupsen/logrus"

	"github.com/speters/softuart/sim"
)

var verbose = flag.Bool("v", false, "verbose logging")

const consoleKey = "$console"

// console owns the harness and its tick-loop lifecycle: run starts a
// cancellable Run goroutine, stop cancels it. The harness itself keeps
// its state across stop/run cycles.
type console struct {
	harness *sim.Harness

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (cs *console) start() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cancel != nil {
		return fmt.Errorf("already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cs.cancel = cancel
	go cs.harness.Run(ctx)
	return nil
}

func (cs *console) stop() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cancel == nil {
		return fmt.Errorf("not running")
	}
	cs.cancel()
	cs.cancel = nil
	return nil
}

func (cs *console) running() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.cancel != nil
}

func consoleFrom(c *ishell.Context) *console {
	return c.Get(consoleKey).(*console)
}

// parseByte accepts decimal (165), hex (0xA5) and a quoted character ('a').
func parseByte(s string) (byte, error) {
	if len(s) == 3 && s[0] == '\'' && s[2] == '\'' {
		return s[1], nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %v", s, err)
	}
	return byte(n), nil
}

var commands = []*ishell.Cmd{
	{
		Name: "run",
		Help: "start the tick loop",
		Func: func(c *ishell.Context) {
			if err := consoleFrom(c).start(); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	},
	{
		Name: "stop",
		Help: "stop the tick loop",
		Func: func(c *ishell.Context) {
			if err := consoleFrom(c).stop(); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	},
	{
		Name: "send",
		Help: "BYTE... queue bytes for transmission (decimal, 0x.. or 'c')",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("BYTE required"))
				return
			}
			h := consoleFrom(c).harness
			for _, arg := range c.Args {
				b, err := parseByte(arg)
				if err != nil {
					c.Err(err)
					return
				}
				if err := h.Queue(b); err != nil {
					c.Err(err)
					return
				}
			}
			c.Println("OK")
		},
	},
	{
		Name: "recv",
		Help: "print bytes received so far",
		Func: func(c *ishell.Context) {
			h := consoleFrom(c).harness
			n := 0
			for {
				select {
				case b := <-h.Recv():
					c.Printf("%#02x ", b)
					n++
					continue
				default:
				}
				break
			}
			if n == 0 {
				c.Println("(none)")
				return
			}
			c.Println()
		},
	},
	{
		Name: "status",
		Help: "show engine states and counters",
		Func: func(c *ishell.Context) {
			cs := consoleFrom(c)
			s := cs.harness.Status()
			c.Printf("loop:      running=%v ticks=%v\n", cs.running(), s.Ticks)
			c.Printf("rx:        %v ready=%v data=%#02x bytes=%v\n", s.RxState, s.RxReady, s.RxData, s.RxBytes)
			c.Printf("tx:        %v busy=%v frames=%v\n", s.TxState, s.TxBusy, s.TxFrames)
			c.Printf("dropped:   %v\n", s.Dropped)
		},
	},
	{
		Name: "rx",
		Help: "on|off enable or disable the receiver",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 || (c.Args[0] != "on" && c.Args[0] != "off") {
				c.Err(fmt.Errorf("usage: rx on|off"))
				return
			}
			consoleFrom(c).harness.SetRxActive(c.Args[0] == "on")
			c.Println("OK")
		},
	},
}

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	cs := &console{harness: sim.NewHarness()}
	if err := cs.start(); err != nil {
		log.Fatal(err)
	}

	shell := ishell.New()
	shell.Println("soft UART loopback console (tick loop running; see run/stop)")
	shell.SetPrompt("uart> ")
	shell.Set(consoleKey, cs)
	for _, cmd := range commands {
		shell.AddCmd(cmd)
	}
	shell.Run()
	cs.stop()
}
