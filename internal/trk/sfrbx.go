package trk

import (
	"fmt"
	"strings"

	"ubxtrk/internal/gnss"
	"ubxtrk/internal/ubx"
)

// TRK-SFRBX layout.
const (
	sfrbxGNSSID   = 1
	sfrbxSVID     = 2
	sfrbxFreqID   = 4
	sfrbxWords    = 13
	sfrbxHeadLen  = 5
	subframeWords = 10
	// SubframeBytes is the packed size of 10 parity-stripped 24-bit words.
	SubframeBytes = subframeWords * 3
	// SubframeBits is the length of BitString().
	SubframeBits = SubframeBytes * 8
)

// Subframe is one navigation subframe reported by TRK-SFRBX.
//
// For GPS, ID and Bits are always set; Clock, Orbit2 and Orbit3 are filled for
// subframes 1, 2 and 3. GLONASS frames are recognized but not decoded: only Sat
// and FreqID are set and Stub is true.
type Subframe struct {
	Sat    gnss.SatID          `json:"sat"`
	FreqID int                 `json:"freq_id,omitempty"`
	Stub   bool                `json:"stub,omitempty"`
	ID     int                 `json:"id,omitempty"`
	TOW    float64             `json:"tow,omitempty"`
	Bits   [SubframeBytes]byte `json:"-"`

	Clock  *ClockParams  `json:"clock,omitempty"`
	Orbit2 *OrbitParams2 `json:"orbit2,omitempty"`
	Orbit3 *OrbitParams3 `json:"orbit3,omitempty"`
}

// BitString renders the 240 subframe bits as '0'/'1' characters, most
// significant bit of word 1 first.
func (s Subframe) BitString() string {
	var sb strings.Builder
	sb.Grow(SubframeBits)
	for _, b := range s.Bits {
		fmt.Fprintf(&sb, "%08b", b)
	}
	return sb.String()
}

// DecodeTrkSfrbx decodes a TRK-SFRBX payload.
//
// ok is false for constellations other than GPS and GLONASS.
func DecodeTrkSfrbx(payload []byte) (sf Subframe, ok bool, err error) {
	if len(payload) < sfrbxHeadLen {
		return Subframe{}, false, fmt.Errorf("trk-sfrbx: %w: len=%d need %d", ErrShortPayload, len(payload), sfrbxHeadLen)
	}
	sys := gnss.Constellation(ubx.U1(payload, sfrbxGNSSID))
	sat := gnss.NewSatID(sys, ubx.U1(payload, sfrbxSVID))

	switch sys {
	case gnss.GPS:
		sf, err := decodeGPSNav(sat, payload)
		if err != nil {
			return Subframe{}, false, err
		}
		return sf, true, nil
	case gnss.GLONASS:
		return Subframe{Sat: sat, FreqID: int(ubx.U1(payload, sfrbxFreqID)), Stub: true}, true, nil
	}
	return Subframe{}, false, nil
}

func decodeGPSNav(sat gnss.SatID, payload []byte) (Subframe, error) {
	need := sfrbxWords + 4*subframeWords
	if len(payload) < need {
		return Subframe{}, fmt.Errorf("trk-sfrbx %s: %w: len=%d need %d", sat, ErrShortPayload, len(payload), need)
	}

	var words [subframeWords]uint32
	for i := range words {
		words[i] = ubx.U4(payload, sfrbxWords+4*i)
	}
	bits := PackWords(words)

	id := SubframeID(bits)
	if id < 1 || id > 5 {
		return Subframe{}, fmt.Errorf("trk-sfrbx %s: %w: id=%d", sat, ErrSubframeID, id)
	}

	sf := Subframe{Sat: sat, ID: id, Bits: bits, TOW: decodeTOW(bits)}
	switch id {
	case 1:
		c := decodeClock(bits)
		sf.Clock = &c
	case 2:
		o := decodeOrbit2(bits)
		sf.Orbit2 = &o
	case 3:
		o := decodeOrbit3(bits)
		sf.Orbit3 = &o
	}
	return sf, nil
}

// PackWords strips the 6 parity bits from each transport word and packs the
// remaining 24 data bits big-endian into a 30-byte subframe.
func PackWords(words [subframeWords]uint32) [SubframeBytes]byte {
	var out [SubframeBytes]byte
	for i, w := range words {
		v := (w >> 6) & 0xFFFFFF
		out[3*i] = byte(v >> 16)
		out[3*i+1] = byte(v >> 8)
		out[3*i+2] = byte(v)
	}
	return out
}
