// Package replay records complete UBX frames with their arrival times and
// plays them back.
//
// Log format, one record per line:
//
//	START              resets the time origin
//	<t_ns>,<hex>       frame received t_ns nanoseconds after START
//
// Blank lines and lines starting with '#' are ignored. The hex field holds the
// whole wire frame, sync bytes and checksum included.
package replay

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"ubxtrk/internal/ubx"
)

const (
	startMarker = "START"
	maxLineLen  = 3*ubx.MaxFrameLen + 32
)

// Record is one log line. A START marker has a nil Wire.
type Record struct {
	At   time.Duration
	Wire []byte
}

func (r Record) IsStart() bool { return r.Wire == nil }

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadAll parses the whole log. Every data line must hold exactly one UBX
// frame; checksums are not verified here.
func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	// Room for the largest frame in byte-spaced hex plus the timestamp.
	s.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	var recs []Record
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		switch {
		case line == "", strings.HasPrefix(line, "#"):
			continue
		case line == startMarker:
			recs = append(recs, Record{})
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("frame log line %d: %w", lineNo, err)
		}
		recs = append(recs, rec)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func parseLine(line string) (Record, error) {
	tsStr, hexStr, ok := strings.Cut(line, ",")
	if !ok {
		return Record{}, fmt.Errorf("missing comma: %q", line)
	}
	tsNs, err := strconv.ParseInt(strings.TrimSpace(tsStr), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("timestamp: %w", err)
	}
	if tsNs < 0 {
		return Record{}, fmt.Errorf("negative timestamp %d", tsNs)
	}
	wire, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(hexStr), " ", ""))
	if err != nil {
		return Record{}, fmt.Errorf("hex: %w", err)
	}
	if _, err := ubx.ParseFrame(wire); err != nil {
		return Record{}, err
	}
	return Record{At: time.Duration(tsNs), Wire: wire}, nil
}

// Writer appends frames to a log. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	c      io.Closer
	w      *bufio.Writer
	start  time.Time
	frames uint64
	closed bool
}

// Create truncates path and starts a new log section.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := newWriter(f, f, time.Now())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func newWriter(w io.Writer, c io.Closer, start time.Time) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.WriteString(startMarker + "\n"); err != nil {
		return nil, err
	}
	return &Writer{c: c, w: bw, start: start}, nil
}

// WriteFrame logs f in wire form, stamped relative to the writer's start.
func (ww *Writer) WriteFrame(now time.Time, f ubx.Frame) error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return errors.New("frame log is closed")
	}
	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	if _, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), hex.EncodeToString(f.Bytes())); err != nil {
		return err
	}
	ww.frames++
	return nil
}

// Frames returns the number of frames written.
func (ww *Writer) Frames() uint64 {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	return ww.frames
}

func (ww *Writer) Flush() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	ww.closed = true
	err := ww.w.Flush()
	if ww.c != nil {
		if cerr := ww.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PlayOptions control Play. Speed 1 is real time, 2 halves every wait.
type PlayOptions struct {
	Speed   float64
	Loop    bool
	Sleeper Sleeper
}

// Play hands each logged frame to fn, waiting out the recorded gaps.
// START markers reset the origin and never cause a wait.
func Play(ctx context.Context, records []Record, opts PlayOptions, fn func(wire []byte) error) error {
	if opts.Speed <= 0 {
		return fmt.Errorf("replay speed must be > 0, got %v", opts.Speed)
	}
	if fn == nil {
		return errors.New("replay callback is nil")
	}
	if !hasFrames(records) {
		return errors.New("frame log has no frames")
	}
	sl := opts.Sleeper
	if sl == nil {
		sl = realSleeper{}
	}

	for {
		var origin, last time.Duration
		first := true
		for _, r := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.IsStart() {
				origin = r.At
				first = true
				continue
			}

			at := r.At - origin
			if at < 0 {
				at = 0
			}
			if !first {
				if wait := time.Duration(float64(at-last) / opts.Speed); wait > 0 {
					if err := sl.Sleep(ctx, wait); err != nil {
						return err
					}
				}
			}
			if err := fn(r.Wire); err != nil {
				return err
			}
			last = at
			first = false
		}
		if !opts.Loop {
			return nil
		}
	}
}

func hasFrames(records []Record) bool {
	for _, r := range records {
		if !r.IsStart() {
			return true
		}
	}
	return false
}
