// Package output holds the trk.Sink implementations that deliver decoded
// epochs and subframes to the console, a JSON stream, UDP and metrics.
package output

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"ubxtrk/internal/gnss"
	"ubxtrk/internal/trk"
)

// Text prints records in the receiver tool's console layout: a message
// heading, one line per observation or subframe, then a blank line.
type Text struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w)}
}

func (t *Text) WriteEpoch(ep trk.Epoch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.w, "TRK-TRKD5")
	for _, o := range ep.Obs {
		fmt.Fprintf(t.w, "sat: %s qi: %1d snr: %4.1f ts: %.6f P: %.1f D: %8.1f L: %11.1f\n",
			o.Sat, o.QI, o.SNR, o.Ts, o.Pseudorange, o.Doppler, o.CarrierPhase)
	}
	fmt.Fprintln(t.w)
	return t.w.Flush()
}

func (t *Text) WriteSubframe(sf trk.Subframe) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.w, "TRK-SFRBX")
	if sf.Stub {
		fmt.Fprintf(t.w, "sat: %s freq: %d\n", sf.Sat, sf.FreqID)
	} else {
		bits := sf.BitString()
		fmt.Fprintf(t.w, "sat: %s sf_id: %d (%s)\n", sf.Sat, sf.ID, bits[43:46])
	}
	if c := sf.Clock; c != nil {
		fmt.Fprintf(t.w, "week: %d code: %d ura: %d health: %d l2p: %t tgd: %g iodc: %d toc: %.0f af0: %g af1: %g af2: %g\n",
			c.Week, c.CodeOnL2, c.URA, c.Health, c.L2PData, c.TGD, c.IODC, c.Toc, c.Af0, c.Af1, c.Af2)
	}
	if o := sf.Orbit2; o != nil {
		fmt.Fprintf(t.w, "iode: %d crs: %g dn: %g m0: %g cuc: %g e: %g cus: %g sqrta: %.6f toe: %.0f fit: %t\n",
			o.IODE, o.Crs, o.DeltaN*gnss.SemiCircle, o.M0*gnss.SemiCircle, o.Cuc, o.E, o.Cus, o.SqrtA, o.Toe, o.FitInterval)
	}
	if o := sf.Orbit3; o != nil {
		fmt.Fprintf(t.w, "iode: %d cic: %g omg0: %g cis: %g i0: %g crc: %g omg: %g omgd: %g idot: %g\n",
			o.IODE, o.Cic, o.Omega0*gnss.SemiCircle, o.Cis, o.I0*gnss.SemiCircle, o.Crc,
			o.Omega*gnss.SemiCircle, o.OmegaDot*gnss.SemiCircle, o.IDot*gnss.SemiCircle)
	}
	fmt.Fprintln(t.w)
	return t.w.Flush()
}
