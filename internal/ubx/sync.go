package ubx

// DefaultMaxPayload caps the declared payload length the synchronizer will
// accumulate. TRK-D5 with a full channel set stays well below this.
const DefaultMaxPayload = 8192

type syncState int

const (
	stateIdle syncState = iota
	stateSync1
	stateAccumulating
)

// SyncStats counts framing events since the synchronizer was created.
type SyncStats struct {
	Frames           uint64 `json:"frames"`
	SyncMisses       uint64 `json:"sync_misses"`
	Overflows        uint64 `json:"overflows"`
	ChecksumFailures uint64 `json:"checksum_failures"`
	Dropped          uint64 `json:"dropped"`
}

// SyncOptions tunes the synchronizer. The zero value counts checksum
// mismatches without dropping frames and caps payloads at DefaultMaxPayload.
type SyncOptions struct {
	MaxPayload     int
	VerifyChecksum bool
}

// Synchronizer finds UBX frames in a byte stream, one byte at a time.
//
// After 0xB5 0x62 it accumulates class, id, length, payload and checksum into
// buf and emits the frame once len(buf) == length+6. A byte that breaks the
// sync pair is dropped rather than reconsidered as a new 0xB5.
type Synchronizer struct {
	opts  SyncOptions
	state syncState
	buf   []byte
	want  int
	stats SyncStats
}

func NewSynchronizer(opts SyncOptions) *Synchronizer {
	if opts.MaxPayload <= 0 {
		opts.MaxPayload = DefaultMaxPayload
	}
	return &Synchronizer{opts: opts, buf: make([]byte, 0, 256)}
}

// Feed consumes one byte and returns a frame when it completes one.
//
// The returned payload is a fresh slice owned by the caller.
func (s *Synchronizer) Feed(b byte) (Frame, bool) {
	switch s.state {
	case stateIdle:
		if b == Sync1 {
			s.state = stateSync1
		}
		return Frame{}, false

	case stateSync1:
		if b == Sync2 {
			s.state = stateAccumulating
			s.buf = s.buf[:0]
			s.want = 0
		} else {
			s.stats.SyncMisses++
			s.state = stateIdle
		}
		return Frame{}, false
	}

	s.buf = append(s.buf, b)
	if len(s.buf) == headerLen {
		n := int(s.buf[2]) | int(s.buf[3])<<8
		if n > s.opts.MaxPayload {
			s.stats.Overflows++
			s.reset()
			return Frame{}, false
		}
		s.want = n + headerLen + trailerLen
	}
	if len(s.buf) < headerLen || len(s.buf) < s.want {
		return Frame{}, false
	}

	n := s.want - headerLen - trailerLen
	f := Frame{
		Class:    s.buf[0],
		ID:       s.buf[1],
		Payload:  append([]byte(nil), s.buf[headerLen:headerLen+n]...),
		Checksum: [2]byte{s.buf[headerLen+n], s.buf[headerLen+n+1]},
	}
	s.reset()

	if !f.ChecksumOK() {
		s.stats.ChecksumFailures++
		if s.opts.VerifyChecksum {
			s.stats.Dropped++
			return Frame{}, false
		}
	}
	s.stats.Frames++
	return f, true
}

// Write feeds p and returns every frame completed along the way. It is
// equivalent to calling Feed for each byte.
func (s *Synchronizer) Write(p []byte) []Frame {
	var out []Frame
	for _, b := range p {
		if f, ok := s.Feed(b); ok {
			out = append(out, f)
		}
	}
	return out
}

// Reset discards any partial frame and returns to the idle state.
func (s *Synchronizer) Reset() {
	s.reset()
}

func (s *Synchronizer) Stats() SyncStats {
	return s.stats
}

func (s *Synchronizer) reset() {
	s.state = stateIdle
	s.buf = s.buf[:0]
	s.want = 0
}
