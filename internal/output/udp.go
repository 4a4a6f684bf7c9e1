package output

import (
	"encoding/json"

	"ubxtrk/internal/trk"
)

type sender interface {
	Send(payload []byte) error
}

// UDP sends each record as one JSON datagram, typically through a
// udp.Broadcaster.
type UDP struct {
	s sender
}

func NewUDP(s sender) *UDP {
	return &UDP{s: s}
}

func (u *UDP) WriteEpoch(ep trk.Epoch) error {
	return u.send(epochRecord(ep))
}

func (u *UDP) WriteSubframe(sf trk.Subframe) error {
	return u.send(subframeRecord(sf))
}

func (u *UDP) send(r record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return u.s.Send(b)
}
