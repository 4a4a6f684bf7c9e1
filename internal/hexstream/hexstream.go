// Package hexstream turns a text stream of whitespace-separated hex byte
// tokens ("B5 62 03 0A ...") into a byte stream.
package hexstream

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// maxToken bounds a single token so a binary stream fed by mistake cannot
// grow the scanner buffer without limit.
const maxToken = 4096

// Reader implements io.ByteReader over hex tokens. Tokens that are not a
// single byte in hex are skipped.
type Reader struct {
	sc      *bufio.Scanner
	invalid uint64
	bytes   uint64
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64), maxToken)
	sc.Split(bufio.ScanWords)
	return &Reader{sc: sc}
}

// ReadByte returns the next valid token's value, or io.EOF when the input is
// exhausted.
func (r *Reader) ReadByte() (byte, error) {
	for r.sc.Scan() {
		b, ok := parseToken(r.sc.Text())
		if !ok {
			r.invalid++
			continue
		}
		r.bytes++
		return b, nil
	}
	if err := r.sc.Err(); err != nil {
		return 0, err
	}
	return 0, io.EOF
}

// Invalid returns the number of tokens skipped so far.
func (r *Reader) Invalid() uint64 { return r.invalid }

// Bytes returns the number of bytes produced so far.
func (r *Reader) Bytes() uint64 { return r.bytes }

func parseToken(tok string) (byte, bool) {
	tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
	if tok == "" || len(tok) > 2 {
		return 0, false
	}
	v, err := strconv.ParseUint(tok, 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}
