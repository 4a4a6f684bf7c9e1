//go:build !linux

package receiver

import (
	"io"

	"github.com/tarm/serial"
)

func openSerial(path string, baud int) (io.ReadWriteCloser, error) {
	p, err := serial.OpenPort(&serial.Config{Name: path, Baud: baud})
	if err != nil {
		return nil, err
	}
	return p, nil
}
