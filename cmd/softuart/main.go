package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"github.com/speters/softuart/link"
	"github.com/speters/softuart/sim"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var httpServe = flag.String("s", "", "start http server at [bindtohost][:]port")
var connTo = flag.String("c", "", "connection string, use socket://[host]:[port] for TCP or [serialDevice] for direct serial connection")
var baud = flag.Int("b", link.DefaultBaud, "baud rate for serial connections")
var verbose = flag.Bool("v", false, "verbose logging")

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var harness *sim.Harness

// To be set via go build -ldflags "-X main.buildVersion=$(date -u +%FT%TZ) -X main.buildDate=$(git describe --dirty)"
var buildVersion = "unspecified"
var buildDate = "unknown"

func getStatus(w http.ResponseWriter, r *http.Request) {
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	e.Encode(harness.Status())
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	v := struct {
		Version   string `json:"version"`
		BuildDate string `json:"build_date"`
	}{Version: buildVersion, BuildDate: buildDate}
	j, _ := json.Marshal(v)
	w.Write([]byte(j))
}

func sendByte(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	var val interface{}
	err := decoder.Decode(&val)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		w.Write([]byte(err.Error()))
		return
	}
	n, ok := val.(float64)
	if !ok || n < 0 || n > 255 || n != float64(byte(n)) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(fmt.Sprintf("Expected a byte value 0-255, got %v", val)))
		return
	}
	if err := harness.Queue(byte(n)); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("\"OK\"\n"))
}

func recvBytes(w http.ResponseWriter, r *http.Request) {
	// []byte would marshal to a base64 string; a number array keeps the
	// endpoint readable.
	got := []int{}
	for {
		select {
		case b := <-harness.Recv():
			got = append(got, int(b))
			continue
		default:
		}
		break
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	e := json.NewEncoder(w)
	e.Encode(got)
}

func main() {
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	done := make(chan os.Signal, 1)

	signal.Notify(done,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-done
		cancel()

		if *memprofile != "" {
			f, err := os.Create(*memprofile)
			if err != nil {
				log.Fatal("could not create memory profile: ", err)
			}
			runtime.GC() // get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatal("could not write memory profile: ", err)
			}
			f.Close()
		}
		if *cpuprofile != "" {
			pprof.StopCPUProfile()
		}
		os.Exit(0)
	}()

	harness = sim.NewHarness()
	go harness.Run(ctx)

	if *connTo != "" {
		go func() {
			for {
				dev := link.NewDevice()
				dev.Baud = *baud
				if err := dev.Connect(*connTo); err != nil {
					log.Errorf("connect %v: %v", *connTo, err)
				} else {
					log.Infof("Connected to %v", *connTo)
					bridge := &link.Bridge{Device: dev, Harness: harness}
					if err := bridge.Run(ctx); err != nil && err != context.Canceled {
						log.Error(err)
					}
					dev.Close()
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(12 * time.Second):
				}
			}
		}()
	}

	if *httpServe != "" {
		router := mux.NewRouter()

		router.HandleFunc("/status", getStatus).Methods("GET")
		router.HandleFunc("/version", versionInfo).Methods("GET")
		router.HandleFunc("/send", sendByte).Methods("POST")
		router.HandleFunc("/recv", recvBytes).Methods("GET")

		// accept :[portnum] as well as [portnum]
		if i, err := strconv.Atoi(*httpServe); err == nil {
			*httpServe = fmt.Sprintf(":%d", i)
		}

		h := &http.Server{Addr: *httpServe, Handler: router}
		go func() { log.Error(h.ListenAndServe()) }()
	}

	<-ctx.Done()
}
