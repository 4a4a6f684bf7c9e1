package trk

import (
	"fmt"

	"ubxtrk/internal/ubx"
)

// Sink receives decoded records. Implementations must not retain the
// Observation slice past the call.
type Sink interface {
	WriteEpoch(ep Epoch) error
	WriteSubframe(sf Subframe) error
}

// Register installs the TRK-D5 and TRK-SFRBX decoders on d, delivering their
// output to sink.
func Register(d *ubx.Dispatcher, sink Sink) {
	d.Handle(ubx.MsgTrkD5, func(f ubx.Frame) error {
		ep, ok, err := DecodeTrkD5(f.Payload)
		if err != nil || !ok {
			return err
		}
		if err := sink.WriteEpoch(ep); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
		return nil
	})
	d.Handle(ubx.MsgTrkSfrbx, func(f ubx.Frame) error {
		sf, ok, err := DecodeTrkSfrbx(f.Payload)
		if err != nil || !ok {
			return err
		}
		if err := sink.WriteSubframe(sf); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
		return nil
	})
}
