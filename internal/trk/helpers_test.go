package trk

import (
	"encoding/binary"
	"math"

	"ubxtrk/internal/gnss"
)

type d5Block struct {
	sys    gnss.Constellation
	sv     uint8
	qi     uint8
	flags  uint8
	tsMs   float64
	adrRaw int64
	dopRaw int32
	snrRaw uint16
}

func buildTrkD5(blocks ...d5Block) []byte {
	p := make([]byte, trkD5HeaderLen+len(blocks)*trkD5BlockLen)
	p[0] = trkD5Type6
	for i, b := range blocks {
		off := trkD5HeaderLen + i*trkD5BlockLen
		binary.LittleEndian.PutUint64(p[off+blkTime:], uint64(int64(math.Round(b.tsMs*4294967296))))
		binary.LittleEndian.PutUint64(p[off+blkADR:], uint64(b.adrRaw))
		binary.LittleEndian.PutUint32(p[off+blkDoppler:], uint32(b.dopRaw))
		binary.LittleEndian.PutUint16(p[off+blkSNR:], b.snrRaw)
		// Upper bits are not part of the quality indicator.
		p[off+blkQI] = b.qi | 0xF8
		p[off+blkFlags] = b.flags
		p[off+blkGNSSID] = byte(b.sys)
		p[off+blkSVID] = b.sv
	}
	return p
}

// setBits writes the low n bits of v at bit position pos, MSB first.
func setBits(buf []byte, pos, n uint, v uint32) {
	for i := uint(0); i < n; i++ {
		bit := (v >> (n - 1 - i)) & 1
		byteIdx := (pos + i) / 8
		shift := 7 - (pos+i)%8
		if bit == 1 {
			buf[byteIdx] |= 1 << shift
		} else {
			buf[byteIdx] &^= 1 << shift
		}
	}
}

func setSigned(buf []byte, pos, n uint, v int32) {
	setBits(buf, pos, n, uint32(v)&(1<<n-1))
}

// transportWords spreads a packed subframe over 10 transport words, adding
// parity-like noise in the bits the decoder must discard.
func transportWords(bits [SubframeBytes]byte) [subframeWords]uint32 {
	var w [subframeWords]uint32
	for i := range w {
		v := uint32(bits[3*i])<<16 | uint32(bits[3*i+1])<<8 | uint32(bits[3*i+2])
		w[i] = 0xC0000000 | v<<6 | 0x2A
	}
	return w
}

func buildSfrbx(sys gnss.Constellation, sv uint8, bits [SubframeBytes]byte) []byte {
	p := make([]byte, sfrbxWords+4*subframeWords)
	p[sfrbxGNSSID] = byte(sys)
	p[sfrbxSVID] = sv
	for i, w := range transportWords(bits) {
		binary.LittleEndian.PutUint32(p[sfrbxWords+4*i:], w)
	}
	return p
}

func subframeWithID(id uint32) [SubframeBytes]byte {
	var bits [SubframeBytes]byte
	setBits(bits[:], posSubframeID, 3, id)
	return bits
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
