package trk

import (
	"github.com/bamiaux/iobit"

	"ubxtrk/internal/gnss"
)

// Bit positions are offsets into the 240-bit parity-stripped subframe.
const (
	posTOW        = 24
	posSubframeID = 43
	posFields     = 48
)

// ClockParams are the subframe 1 clock and health fields.
type ClockParams struct {
	Week     int  `json:"week"`
	CodeOnL2 int  `json:"code_on_l2"`
	URA      int  `json:"ura"`
	Health   int  `json:"health"`
	IODC     int  `json:"iodc"`
	L2PData  bool `json:"l2p_data"`
	// TGD is the group delay in seconds, the raw value times 2^-31 with no
	// sentinel handling. TGDUnavailable reports the raw -128 that the ICD
	// reserves for "no group delay".
	TGD            float64 `json:"tgd"`
	TGDUnavailable bool    `json:"tgd_unavailable,omitempty"`
	Toc            float64 `json:"toc"`
	Af0            float64 `json:"af0"`
	Af1            float64 `json:"af1"`
	Af2            float64 `json:"af2"`
}

// OrbitParams2 are the subframe 2 ephemeris fields. Angles are in
// semicircles.
type OrbitParams2 struct {
	IODE        int     `json:"iode"`
	Crs         float64 `json:"crs"`
	DeltaN      float64 `json:"delta_n"`
	M0          float64 `json:"m0"`
	Cuc         float64 `json:"cuc"`
	E           float64 `json:"e"`
	Cus         float64 `json:"cus"`
	SqrtA       float64 `json:"sqrt_a"`
	Toe         float64 `json:"toe"`
	FitInterval bool    `json:"fit_interval"`
}

// OrbitParams3 are the subframe 3 ephemeris fields. Angles are in
// semicircles.
type OrbitParams3 struct {
	Cic      float64 `json:"cic"`
	Omega0   float64 `json:"omega0"`
	Cis      float64 `json:"cis"`
	I0       float64 `json:"i0"`
	Crc      float64 `json:"crc"`
	Omega    float64 `json:"omega"`
	OmegaDot float64 `json:"omega_dot"`
	IODE     int     `json:"iode"`
	IDot     float64 `json:"idot"`
}

// bitCursor reads consecutive big-endian bit fields.
type bitCursor struct {
	r iobit.Reader
}

func newBitCursor(bits []byte, pos uint) *bitCursor {
	c := &bitCursor{r: iobit.NewReader(bits)}
	c.r.Skip(pos)
	return c
}

func (c *bitCursor) skip(n uint) {
	c.r.Skip(n)
}

func (c *bitCursor) u(n uint) uint32 {
	return c.r.Uint32(n)
}

// s reads an n-bit two's-complement field.
func (c *bitCursor) s(n uint) int32 {
	return signExtend(c.r.Uint32(n), n)
}

func signExtend(v uint32, n uint) int32 {
	shift := 32 - n
	return int32(v<<shift) >> shift
}

// SubframeID returns the 3-bit subframe id from the handover word.
func SubframeID(bits [SubframeBytes]byte) int {
	return int(newBitCursor(bits[:], posSubframeID).u(3))
}

func decodeTOW(bits [SubframeBytes]byte) float64 {
	return float64(newBitCursor(bits[:], posTOW).u(17)) * 6.0
}

func decodeClock(bits [SubframeBytes]byte) ClockParams {
	var p ClockParams
	c := newBitCursor(bits[:], posFields)
	p.Week = int(c.u(10))
	p.CodeOnL2 = int(c.u(2))
	p.URA = int(c.u(4))
	p.Health = int(c.u(6))
	iodcHigh := int(c.u(2))
	p.L2PData = c.u(1) == 1
	c.skip(87)
	tgd := c.s(8)
	p.TGD = float64(tgd) * gnss.P2_31
	p.TGDUnavailable = tgd == -128
	p.IODC = iodcHigh<<8 | int(c.u(8))
	p.Toc = float64(c.u(16)) * 16.0
	p.Af2 = float64(c.s(8)) * gnss.P2_55
	p.Af1 = float64(c.s(16)) * gnss.P2_43
	p.Af0 = float64(c.s(22)) * gnss.P2_31
	return p
}

func decodeOrbit2(bits [SubframeBytes]byte) OrbitParams2 {
	var p OrbitParams2
	c := newBitCursor(bits[:], posFields)
	p.IODE = int(c.u(8))
	p.Crs = float64(c.s(16)) * gnss.P2_5
	p.DeltaN = float64(c.s(16)) * gnss.P2_43
	p.M0 = float64(c.s(32)) * gnss.P2_31
	p.Cuc = float64(c.s(16)) * gnss.P2_29
	p.E = float64(c.u(32)) * gnss.P2_33
	p.Cus = float64(c.s(16)) * gnss.P2_29
	p.SqrtA = float64(c.u(32)) * gnss.P2_19
	p.Toe = float64(c.u(16)) * 16.0
	p.FitInterval = c.u(1) == 1
	return p
}

func decodeOrbit3(bits [SubframeBytes]byte) OrbitParams3 {
	var p OrbitParams3
	c := newBitCursor(bits[:], posFields)
	p.Cic = float64(c.s(16)) * gnss.P2_29
	p.Omega0 = float64(c.s(32)) * gnss.P2_31
	p.Cis = float64(c.s(16)) * gnss.P2_29
	p.I0 = float64(c.s(32)) * gnss.P2_31
	p.Crc = float64(c.s(16)) * gnss.P2_5
	p.Omega = float64(c.s(32)) * gnss.P2_31
	p.OmegaDot = float64(c.s(24)) * gnss.P2_43
	p.IODE = int(c.u(8))
	p.IDot = float64(c.s(14)) * gnss.P2_43
	return p
}
