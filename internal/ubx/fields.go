package ubx

import (
	"encoding/binary"
	"fmt"
)

// Little-endian field readers over a payload window.
//
// Callers validate payload geometry up front; reading past the end is a
// programming error and panics instead of truncating.

func need(p []byte, off, width int) {
	if off < 0 || off+width > len(p) {
		panic(fmt.Sprintf("ubx: %d-byte read at offset %d exceeds payload length %d", width, off, len(p)))
	}
}

func U1(p []byte, off int) uint8 {
	need(p, off, 1)
	return p[off]
}

func U2(p []byte, off int) uint16 {
	need(p, off, 2)
	return binary.LittleEndian.Uint16(p[off:])
}

func U4(p []byte, off int) uint32 {
	need(p, off, 4)
	return binary.LittleEndian.Uint32(p[off:])
}

func I4(p []byte, off int) int32 {
	return int32(U4(p, off))
}

func I8(p []byte, off int) int64 {
	need(p, off, 8)
	return int64(binary.LittleEndian.Uint64(p[off:]))
}
