package output

import (
	"encoding/json"
	"io"
	"sync"

	"ubxtrk/internal/trk"
)

// record is the envelope written by the JSON and UDP sinks.
type record struct {
	Type     string        `json:"type"`
	Epoch    *trk.Epoch    `json:"epoch,omitempty"`
	Subframe *trk.Subframe `json:"subframe,omitempty"`
	// Bits is the subframe as a 240-character '0'/'1' string.
	Bits string `json:"bits,omitempty"`
}

func epochRecord(ep trk.Epoch) record {
	return record{Type: "epoch", Epoch: &ep}
}

func subframeRecord(sf trk.Subframe) record {
	r := record{Type: "subframe", Subframe: &sf}
	if !sf.Stub {
		r.Bits = sf.BitString()
	}
	return r
}

// JSON writes one object per line.
type JSON struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

func (j *JSON) WriteEpoch(ep trk.Epoch) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(epochRecord(ep))
}

func (j *JSON) WriteSubframe(sf trk.Subframe) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(subframeRecord(sf))
}
