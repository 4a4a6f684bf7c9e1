package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Sync1 = 0xB5
	Sync2 = 0x62

	// headerLen is class, id and the 2-byte length that follow the sync pair.
	headerLen = 4
	// trailerLen is the 2-byte Fletcher checksum.
	trailerLen = 2
	// Overhead is the number of wire bytes around a payload.
	Overhead = 2 + headerLen + trailerLen
	// MaxFrameLen is the largest frame the 16-bit length field can declare.
	MaxFrameLen = 0xFFFF + Overhead
)

// MsgID is a (class, id) pair.
type MsgID struct {
	Class byte
	ID    byte
}

func (m MsgID) String() string {
	return fmt.Sprintf("0x%02X/0x%02X", m.Class, m.ID)
}

// ErrNotFrame reports bytes that are not exactly one wire frame.
var ErrNotFrame = errors.New("not a ubx frame")

// Frame is one complete UBX message as received.
type Frame struct {
	Class    byte
	ID       byte
	Payload  []byte
	Checksum [2]byte
}

func (f Frame) Msg() MsgID {
	return MsgID{Class: f.Class, ID: f.ID}
}

// ChecksumOK reports whether the received trailer matches the checksum
// computed over class, id, length and payload.
func (f Frame) ChecksumOK() bool {
	a, b := frameChecksum(f.Class, f.ID, f.Payload)
	return f.Checksum[0] == a && f.Checksum[1] == b
}

// Bytes re-encodes the frame in wire form, keeping the received checksum.
func (f Frame) Bytes() []byte {
	buf := make([]byte, 0, len(f.Payload)+Overhead)
	buf = append(buf, Sync1, Sync2, f.Class, f.ID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Payload)))
	buf = append(buf, f.Payload...)
	return append(buf, f.Checksum[0], f.Checksum[1])
}

// Checksum computes the 8-bit Fletcher checksum UBX uses over everything
// between the sync pair and the trailer.
func Checksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

func frameChecksum(class, id byte, payload []byte) (byte, byte) {
	n := len(payload)
	a, b := Checksum([]byte{class, id, byte(n), byte(n >> 8)})
	for _, c := range payload {
		a += c
		b += a
	}
	return a, b
}

// Encode builds a complete wire frame: sync, class, id, length, payload and
// checksum.
func Encode(class, id byte, payload []byte) []byte {
	buf := make([]byte, 0, len(payload)+Overhead)
	buf = append(buf, Sync1, Sync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	a, b := Checksum(buf[2:])
	return append(buf, a, b)
}

// ParseFrame parses b as exactly one wire frame. The checksum is not
// verified; use ChecksumOK.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < Overhead {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrNotFrame, len(b))
	}
	if b[0] != Sync1 || b[1] != Sync2 {
		return Frame{}, fmt.Errorf("%w: sync %02X %02X", ErrNotFrame, b[0], b[1])
	}
	n := int(binary.LittleEndian.Uint16(b[4:6]))
	if len(b) != n+Overhead {
		return Frame{}, fmt.Errorf("%w: length field %d, have %d payload bytes", ErrNotFrame, n, len(b)-Overhead)
	}
	f := Frame{
		Class:   b[2],
		ID:      b[3],
		Payload: append([]byte(nil), b[6:6+n]...),
	}
	copy(f.Checksum[:], b[6+n:])
	return f, nil
}
