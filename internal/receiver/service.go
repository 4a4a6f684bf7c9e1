package receiver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/ratelimit"

	"ubxtrk/internal/hexstream"
	"ubxtrk/internal/metrics"
	"ubxtrk/internal/trk"
	"ubxtrk/internal/ubx"
)

const (
	SourceSerial = "serial"
	SourceFile   = "file"
	SourceStdin  = "stdin"
	SourceReplay = "replay"

	FormatBinary = "binary"
	FormatHex    = "hex"
)

// Config controls the receiver service.
//
// Device may be empty to auto-detect a USB serial receiver. Configure sends
// CFG-MSG for TRK-D5 and TRK-SFRBX, preceded by the RAW unlock patch when
// Patch names one; it needs a writable transport, so only Source "serial".
type Config struct {
	Source string
	Device string
	Baud   int
	Path   string
	Format string

	Configure bool
	Patch     string

	MaxPayload     int
	VerifyChecksum bool

	ReplaySpeed float64
	ReplayLoop  bool
}

type Snapshot struct {
	Running bool   `json:"running"`
	Source  string `json:"source"`
	Device  string `json:"device,omitempty"`
	Baud    int    `json:"baud,omitempty"`
	Path    string `json:"path,omitempty"`
	Format  string `json:"format"`

	Bytes        uint64 `json:"bytes"`
	Dispatched   uint64 `json:"dispatched"`
	Unhandled    uint64 `json:"unhandled"`
	DecodeErrors uint64 `json:"decode_errors"`
	Epochs       uint64 `json:"epochs"`
	Subframes    uint64 `json:"subframes"`
	HexInvalid   uint64 `json:"hex_invalid,omitempty"`
	ConfigWrites int    `json:"config_writes,omitempty"`

	Sync ubx.SyncStats `json:"sync"`

	LastError string `json:"last_error,omitempty"`
}

// Recorder receives every completed frame, typically a replay.Writer.
type Recorder interface {
	WriteFrame(now time.Time, f ubx.Frame) error
}

type Service struct {
	cfg  Config
	sink trk.Sink
	rec  Recorder

	// Overridable in tests.
	openSerial func(path string, baud int) (io.ReadWriteCloser, error)
	stdin      io.Reader
	limiter    ratelimit.Limiter
	now        func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	last atomic.Value // Snapshot

	mu     sync.Mutex
	closer io.Closer
}

// New builds a service. rec may be nil.
func New(cfg Config, sink trk.Sink, rec Recorder) *Service {
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	if cfg.Source == "" {
		cfg.Source = SourceSerial
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format == "" {
		cfg.Format = FormatBinary
	}
	if cfg.Baud == 0 {
		cfg.Baud = 9600
	}
	if cfg.ReplaySpeed <= 0 {
		cfg.ReplaySpeed = 1
	}

	s := &Service{
		cfg:        cfg,
		sink:       sink,
		rec:        rec,
		openSerial: openSerial,
		stdin:      os.Stdin,
		// One command every 250 ms gives the receiver time to apply each.
		limiter: ratelimit.New(4),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	s.last.Store(Snapshot{Source: cfg.Source, Device: cfg.Device, Baud: cfg.Baud, Path: cfg.Path, Format: cfg.Format})
	return s
}

// Start opens the transport and launches the pump goroutine. It returns once
// the transport is open and any configuration commands have been written.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("receiver service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if s.sink == nil {
		return fmt.Errorf("receiver sink is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	tr, err := s.openTransport(childCtx)
	if err != nil {
		cancel()
		s.setErrorLocked(err.Error())
		return err
	}

	configWrites := 0
	if s.cfg.Configure {
		configWrites, err = s.configure(tr)
		if err != nil {
			cancel()
			if tr.c != nil {
				_ = tr.c.Close()
			}
			s.setErrorLocked(err.Error())
			return err
		}
	}

	s.cancel = cancel
	s.closer = tr.c

	st := &pumpState{snap: s.Snapshot()}
	st.snap.Running = true
	st.snap.Device = tr.device
	st.snap.ConfigWrites = configWrites
	s.last.Store(st.snap)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)
		if tr.c != nil {
			defer func() { _ = tr.c.Close() }()
		}
		s.run(childCtx, tr, st)
	}()
	return nil
}

// Done is closed when the pump goroutine exits: end of input, transport
// failure or cancellation.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

func (s *Service) setErrorLocked(msg string) {
	cur := s.Snapshot()
	cur.LastError = msg
	s.last.Store(cur)
}

// pumpState is owned by the pump goroutine.
type pumpState struct {
	snap     Snapshot
	lastSync ubx.SyncStats
	hex      *hexstream.Reader
}

// countingSink tallies records on their way to the real sink.
type countingSink struct {
	st   *pumpState
	next trk.Sink
}

func (c countingSink) WriteEpoch(ep trk.Epoch) error {
	c.st.snap.Epochs++
	return c.next.WriteEpoch(ep)
}

func (c countingSink) WriteSubframe(sf trk.Subframe) error {
	c.st.snap.Subframes++
	return c.next.WriteSubframe(sf)
}

func (s *Service) run(ctx context.Context, tr transport, st *pumpState) {
	log.Printf("receiver started source=%s device=%s format=%s", s.cfg.Source, tr.device, s.cfg.Format)

	var br io.ByteReader
	if s.cfg.Format == FormatHex {
		st.hex = hexstream.NewReader(tr.r)
		br = st.hex
	} else {
		br = bufio.NewReaderSize(tr.r, 4096)
	}

	syn := ubx.NewSynchronizer(ubx.SyncOptions{MaxPayload: s.cfg.MaxPayload, VerifyChecksum: s.cfg.VerifyChecksum})
	d := ubx.NewDispatcher()
	trk.Register(d, countingSink{st: st, next: s.sink})

	var pending int
	publish := func() {
		metrics.AddBytes(pending)
		pending = 0
		cur := syn.Stats()
		metrics.RecordSync(st.lastSync, cur)
		st.lastSync = cur
		st.snap.Sync = cur
		if st.hex != nil {
			st.snap.HexInvalid = st.hex.Invalid()
		}
		s.last.Store(st.snap)
	}

	hooks := ubx.PumpHooks{
		OnByte: func() {
			st.snap.Bytes++
			pending++
		},
		OnFrame: func(f ubx.Frame) {
			metrics.RecordFrame(f.Msg())
			if s.rec != nil {
				if err := s.rec.WriteFrame(s.now(), f); err != nil {
					st.snap.LastError = fmt.Sprintf("record: %v", err)
				}
			}
		},
		OnDispatch: func(f ubx.Frame, handled bool, err error) {
			if handled {
				st.snap.Dispatched++
			} else {
				st.snap.Unhandled++
			}
			if err != nil {
				st.snap.DecodeErrors++
				st.snap.LastError = err.Error()
				metrics.RecordDecodeError(f.Msg())
				log.Printf("receiver decode error msg=%s err=%v", f.Msg(), err)
			}
			publish()
		},
	}

	err := ubx.Pump(ctx, br, syn, d, hooks)
	st.snap.Running = false
	switch {
	case err == nil:
		log.Printf("receiver input ended source=%s bytes=%d frames=%d", s.cfg.Source, st.snap.Bytes, syn.Stats().Frames)
	case ctx.Err() != nil:
		log.Printf("receiver stopped source=%s", s.cfg.Source)
	default:
		st.snap.LastError = fmt.Sprintf("read: %v", err)
		log.Printf("receiver read stopped source=%s err=%v", s.cfg.Source, err)
	}
	publish()
}
