package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"ubxtrk/internal/replay"
	"ubxtrk/internal/ubx"
)

type transport struct {
	r io.Reader
	// w is nil for read-only sources.
	w      io.Writer
	c      io.Closer
	device string
}

func (s *Service) openTransport(ctx context.Context) (transport, error) {
	switch s.cfg.Source {
	case SourceSerial:
		device := strings.TrimSpace(s.cfg.Device)
		if device == "" {
			device = autoDetectDevice()
			if device == "" {
				return transport{}, errors.New("receiver auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			}
		}
		p, err := s.openSerial(device, s.cfg.Baud)
		if err != nil {
			return transport{}, fmt.Errorf("receiver open failed device=%s baud=%d: %w", device, s.cfg.Baud, err)
		}
		return transport{r: p, w: p, c: p, device: device}, nil

	case SourceFile:
		f, err := os.Open(s.cfg.Path)
		if err != nil {
			return transport{}, fmt.Errorf("receiver open failed path=%s: %w", s.cfg.Path, err)
		}
		return transport{r: f, c: f, device: s.cfg.Path}, nil

	case SourceStdin:
		tr := transport{r: s.stdin, device: "stdin"}
		if c, ok := s.stdin.(io.Closer); ok {
			tr.c = c
		}
		return tr, nil

	case SourceReplay:
		return s.openReplay(ctx)
	}
	return transport{}, fmt.Errorf("unknown receiver source %q", s.cfg.Source)
}

// openReplay turns a frame log into a byte stream, so replayed frames take
// the same synchronizer and dispatcher path as live input.
func (s *Service) openReplay(ctx context.Context) (transport, error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return transport{}, fmt.Errorf("replay open failed path=%s: %w", s.cfg.Path, err)
	}
	recs, err := replay.NewReader(f).ReadAll()
	_ = f.Close()
	if err != nil {
		return transport{}, fmt.Errorf("replay read failed path=%s: %w", s.cfg.Path, err)
	}

	pr, pw := io.Pipe()
	opts := replay.PlayOptions{Speed: s.cfg.ReplaySpeed, Loop: s.cfg.ReplayLoop}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := replay.Play(ctx, recs, opts, func(wire []byte) error {
			_, err := pw.Write(wire)
			return err
		})
		if err != nil && !errors.Is(err, io.ErrClosedPipe) && ctx.Err() == nil {
			log.Printf("replay stopped path=%s err=%v", s.cfg.Path, err)
		}
		_ = pw.CloseWithError(err)
	}()

	log.Printf("replay loaded path=%s records=%d speed=%g loop=%t", s.cfg.Path, len(recs), opts.Speed, opts.Loop)
	return transport{r: pr, c: pr, device: s.cfg.Path}, nil
}

// configure writes the tracking setup, paced by the service limiter.
func (s *Service) configure(tr transport) (int, error) {
	if tr.w == nil {
		return 0, fmt.Errorf("receiver configure needs a writable source, have %q", s.cfg.Source)
	}
	cmds, err := ubx.TrackingSetup(s.cfg.Patch)
	if err != nil {
		return 0, err
	}
	for i, cmd := range cmds {
		s.limiter.Take()
		if _, err := tr.w.Write(cmd); err != nil {
			return i, fmt.Errorf("receiver configure write %d/%d: %w", i+1, len(cmds), err)
		}
	}
	log.Printf("receiver configured commands=%d patch=%q", len(cmds), s.cfg.Patch)
	return len(cmds), nil
}

func autoDetectDevice() string {
	for _, pattern := range []string{"/dev/ttyACM%d", "/dev/ttyUSB%d"} {
		for i := 0; i < 10; i++ {
			p := fmt.Sprintf(pattern, i)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}
