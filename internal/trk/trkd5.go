// Package trk decodes the undocumented u-blox TRK messages: TRK-D5 raw
// tracking measurements and TRK-SFRBX navigation subframes.
package trk

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ubxtrk/internal/gnss"
	"ubxtrk/internal/ubx"
)

var (
	// ErrShortPayload reports a payload too small for its message layout.
	ErrShortPayload = errors.New("payload too short")
	// ErrSubframeID reports a navigation subframe whose id is outside 1..5.
	ErrSubframeID = errors.New("subframe id out of range")
)

// TRK-D5 type 6 (u-blox 7) layout.
const (
	trkD5Type6     = 6
	trkD5HeaderLen = 80
	trkD5BlockLen  = 64

	// Offsets inside one satellite block.
	blkTime    = 0
	blkADR     = 8
	blkDoppler = 16
	blkSNR     = 32
	blkQI      = 41
	blkFlags   = 54
	blkGNSSID  = 56
	blkSVID    = 57
)

const (
	minQI      = 4
	maxQI      = 7
	minPhaseQI = 6

	// Receive times are snapped to the 100 ms measurement epoch.
	epochTick   = 0.1
	epochOffset = 0.08
)

// Observation is one satellite's measurement for an epoch.
type Observation struct {
	QI  uint8      `json:"qi"`
	Sat gnss.SatID `json:"sat"`
	// SNR in dB-Hz.
	SNR float64 `json:"snr"`
	// Ts is the satellite transmit time, seconds of week.
	Ts float64 `json:"ts"`
	// Tau is the signal time of flight in seconds.
	Tau         float64 `json:"tau"`
	Pseudorange float64 `json:"pseudorange"`
	Doppler     float64 `json:"doppler"`
	// CarrierPhase is the accumulated Doppler range in cycles, sign inverted.
	CarrierPhase float64 `json:"carrier_phase"`
}

// Epoch is the decoded content of one TRK-D5 message.
type Epoch struct {
	// Tr is the common receive time, seconds of week, on a 0.1 s tick.
	Tr  float64       `json:"tr"`
	Obs []Observation `json:"obs"`
}

// DecodeTrkD5 decodes a TRK-D5 payload.
//
// ok is false when the message yields no epoch: an unsupported block type or
// no GPS satellite of sufficient quality to fix the receive time.
func DecodeTrkD5(payload []byte) (ep Epoch, ok bool, err error) {
	if len(payload) < 1 {
		return Epoch{}, false, fmt.Errorf("trk-d5: %w: len=%d", ErrShortPayload, len(payload))
	}
	if t := ubx.U1(payload, 0); t != trkD5Type6 {
		return Epoch{}, false, nil
	}
	if len(payload) < trkD5HeaderLen {
		return Epoch{}, false, fmt.Errorf("trk-d5: %w: len=%d need %d", ErrShortPayload, len(payload), trkD5HeaderLen)
	}

	blocks := blockOffsets(len(payload))

	tr, found := referenceTime(payload, blocks)
	if !found {
		return Epoch{}, false, nil
	}
	tr = epochTick * math.Floor(0.5+(tr+epochOffset)/epochTick)

	obs := make([]Observation, 0, len(blocks))
	for _, off := range blocks {
		qi := ubx.U1(payload, off+blkQI) & 7
		if qi < minQI || qi > maxQI {
			continue
		}
		obs = append(obs, decodeBlock(payload, off, qi, tr))
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Sat.Less(obs[j].Sat) })

	return Epoch{Tr: tr, Obs: obs}, true, nil
}

// blockOffsets lists the start of every complete satellite block.
func blockOffsets(n int) []int {
	var offs []int
	for off := trkD5HeaderLen; off+trkD5BlockLen <= n; off += trkD5BlockLen {
		offs = append(offs, off)
	}
	return offs
}

// referenceTime returns the latest receive-time candidate among GPS blocks
// with QI >= 4.
func referenceTime(payload []byte, blocks []int) (float64, bool) {
	tr := -1.0
	for _, off := range blocks {
		if ubx.U1(payload, off+blkQI)&7 < minQI {
			continue
		}
		t := blockTime(payload, off)
		sys := gnss.Constellation(ubx.U1(payload, off+blkGNSSID))
		if sys == gnss.GLONASS {
			t -= gnss.GlonassTimeOffset
		}
		if sys != gnss.GPS {
			continue
		}
		if t > tr {
			tr = t
		}
	}
	return tr, tr >= 0
}

func blockTime(payload []byte, off int) float64 {
	return float64(ubx.I8(payload, off+blkTime)) * gnss.P2_32 / 1000.0
}

func decodeBlock(payload []byte, off int, qi uint8, tr float64) Observation {
	sat := gnss.NewSatID(gnss.Constellation(ubx.U1(payload, off+blkGNSSID)), ubx.U1(payload, off+blkSVID))

	// The GLONASS shift applies to the reference time only.
	ts := blockTime(payload, off)

	var tau float64
	if qi >= minQI {
		tau = TimeOfFlight(tr, ts)
	}

	var adr float64
	if qi >= minPhaseQI {
		adr = float64(ubx.I8(payload, off+blkADR)) * gnss.P2_32
		if ubx.U1(payload, off+blkFlags)&0x01 != 0 {
			adr += 0.5
		}
	}

	return Observation{
		QI:           qi,
		Sat:          sat,
		SNR:          float64(ubx.U2(payload, off+blkSNR)) / 256.0,
		Ts:           ts,
		Tau:          tau,
		Pseudorange:  tau * gnss.CLight,
		Doppler:      float64(ubx.I4(payload, off+blkDoppler)) * gnss.P2_10 / 4.0,
		CarrierPhase: -adr,
	}
}

// TimeOfFlight returns tr-ts folded into [-302400, 302400] seconds, undoing
// the ambiguity of modulo-week timestamps.
func TimeOfFlight(tr, ts float64) float64 {
	tau := tr - ts
	if tau < -gnss.HalfWeek {
		tau += gnss.SecondsPerWeek
	} else if tau > gnss.HalfWeek {
		tau -= gnss.SecondsPerWeek
	}
	return tau
}
