package udp

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
)

// MaxDatagram is the largest UDP payload that fits an IPv4 datagram.
const MaxDatagram = 65507

var ErrDatagramTooLarge = errors.New("udp: datagram too large")

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)

type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

// Broadcaster sends decoded records as individual datagrams to one
// destination.
type Broadcaster struct {
	dest string
	conn udpConn

	sent   atomic.Uint64
	failed atomic.Uint64
}

func NewBroadcaster(dest string) (*Broadcaster, error) {
	dial := func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	}
	return newBroadcaster(dest, net.ResolveUDPAddr, dial)
}

func newBroadcaster(dest string, resolve resolveFunc, dial dialFunc) (*Broadcaster, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest %q: %w", dest, err)
	}

	// A nil local address lets the kernel pick the outgoing interface.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp %s: %w", addr, err)
	}

	return &Broadcaster{dest: dest, conn: conn}, nil
}

func (b *Broadcaster) Dest() string { return b.dest }

// Send writes payload as a single datagram. Empty payloads are skipped.
func (b *Broadcaster) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if len(payload) > MaxDatagram {
		b.failed.Add(1)
		return fmt.Errorf("%w: %d bytes", ErrDatagramTooLarge, len(payload))
	}
	if _, err := b.conn.Write(payload); err != nil {
		b.failed.Add(1)
		return err
	}
	b.sent.Add(1)
	return nil
}

// Counts returns the number of datagrams sent and the number that failed.
func (b *Broadcaster) Counts() (sent, failed uint64) {
	return b.sent.Load(), b.failed.Load()
}

func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
