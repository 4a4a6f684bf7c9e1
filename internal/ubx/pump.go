package ubx

import (
	"context"
	"errors"
	"io"
)

// PumpHooks observes the byte loop. All fields are optional.
type PumpHooks struct {
	// OnFrame is called for every completed frame before dispatch.
	OnFrame func(f Frame)
	// OnDispatch is called after a frame was dispatched, with whether a
	// handler existed and any decode error.
	OnDispatch func(f Frame, handled bool, err error)
	// OnByte is called after each byte is consumed.
	OnByte func()
}

// Pump reads r one byte at a time, feeds s, and dispatches completed frames
// synchronously through d before reading the next byte.
//
// It returns nil when r reports io.EOF, ctx.Err() when ctx is cancelled, and
// any other read error as-is. Decode errors go to hooks.OnDispatch only.
func Pump(ctx context.Context, r io.ByteReader, s *Synchronizer, d *Dispatcher, hooks PumpHooks) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if hooks.OnByte != nil {
			hooks.OnByte()
		}

		f, ok := s.Feed(b)
		if !ok {
			continue
		}
		if hooks.OnFrame != nil {
			hooks.OnFrame(f)
		}
		handled, derr := d.Dispatch(f)
		if hooks.OnDispatch != nil {
			hooks.OnDispatch(f, handled, derr)
		}
	}
}
