package output

import (
	"errors"

	"ubxtrk/internal/metrics"
	"ubxtrk/internal/trk"
)

// Multi fans records out to every sink. All sinks see every record; their
// errors are joined.
type Multi []trk.Sink

func (m Multi) WriteEpoch(ep trk.Epoch) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteEpoch(ep); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) WriteSubframe(sf trk.Subframe) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteSubframe(sf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Metrics counts emitted records in the Prometheus registry.
type Metrics struct{}

func (Metrics) WriteEpoch(ep trk.Epoch) error {
	metrics.RecordEpoch()
	for _, o := range ep.Obs {
		metrics.RecordObservation(o.Sat.Sys.String())
	}
	return nil
}

func (Metrics) WriteSubframe(sf trk.Subframe) error {
	metrics.RecordSubframe(sf.ID)
	return nil
}
