package trk

import (
	"errors"
	"testing"

	"ubxtrk/internal/gnss"
)

func TestDecodeTrkD5_Epoch(t *testing.T) {
	payload := buildTrkD5(
		d5Block{sys: gnss.SBAS, sv: 120, qi: 5, tsMs: 345599950, snrRaw: 30 * 256},
		d5Block{sys: gnss.GPS, sv: 5, qi: 7, flags: 0x01, tsMs: 345599930, adrRaw: 1000 << 32, dopRaw: 4096, snrRaw: 42 * 256},
		d5Block{sys: gnss.GLONASS, sv: 3, qi: 2, tsMs: 356399000},
		d5Block{sys: gnss.GPS, sv: 1, qi: 4, tsMs: 345599925, adrRaw: 77 << 32, dopRaw: -2048, snrRaw: 35*256 + 128},
	)

	ep, ok, err := DecodeTrkD5(payload)
	if err != nil {
		t.Fatalf("DecodeTrkD5() error: %v", err)
	}
	if !ok {
		t.Fatalf("expected an epoch")
	}
	if !near(ep.Tr, 345600.0, 1e-6) {
		t.Fatalf("tr=%.9f want 345600", ep.Tr)
	}
	if len(ep.Obs) != 3 {
		t.Fatalf("obs=%d want 3", len(ep.Obs))
	}

	want := []string{"GPS:001", "GPS:005", "SBS:120"}
	for i, o := range ep.Obs {
		if o.Sat.String() != want[i] {
			t.Fatalf("obs[%d].Sat=%s want %s", i, o.Sat, want[i])
		}
	}

	gps1, gps5, sbs := ep.Obs[0], ep.Obs[1], ep.Obs[2]

	if gps5.QI != 7 {
		t.Fatalf("qi=%d want 7", gps5.QI)
	}
	if !near(gps5.Tau, 0.070, 1e-6) {
		t.Fatalf("tau=%.9f want 0.070", gps5.Tau)
	}
	if !near(gps5.Pseudorange, 0.070*gnss.CLight, 1.0) {
		t.Fatalf("pseudorange=%.3f want %.3f", gps5.Pseudorange, 0.070*gnss.CLight)
	}
	if gps5.CarrierPhase != -1000.5 {
		t.Fatalf("carrier=%v want -1000.5", gps5.CarrierPhase)
	}
	if gps5.Doppler != 1.0 {
		t.Fatalf("doppler=%v want 1", gps5.Doppler)
	}
	if gps5.SNR != 42 {
		t.Fatalf("snr=%v want 42", gps5.SNR)
	}

	// QI 4 has no carrier phase.
	if gps1.CarrierPhase != 0 {
		t.Fatalf("carrier=%v want 0 for qi=4", gps1.CarrierPhase)
	}
	if gps1.Doppler != -0.5 {
		t.Fatalf("doppler=%v want -0.5", gps1.Doppler)
	}
	if gps1.SNR != 35.5 {
		t.Fatalf("snr=%v want 35.5", gps1.SNR)
	}

	if !near(sbs.Tau, 0.050, 1e-6) {
		t.Fatalf("sbas tau=%.9f want 0.050", sbs.Tau)
	}
}

func TestDecodeTrkD5_PhaseWithoutHalfCycle(t *testing.T) {
	payload := buildTrkD5(d5Block{sys: gnss.GPS, sv: 9, qi: 6, tsMs: 1000, adrRaw: -(3 << 31)})
	ep, ok, err := DecodeTrkD5(payload)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if ep.Obs[0].CarrierPhase != 1.5 {
		t.Fatalf("carrier=%v want 1.5", ep.Obs[0].CarrierPhase)
	}
}

func TestDecodeTrkD5_NoQualifyingGPS(t *testing.T) {
	payload := buildTrkD5(
		d5Block{sys: gnss.SBAS, sv: 120, qi: 7, tsMs: 1000},
		d5Block{sys: gnss.GPS, sv: 3, qi: 3, tsMs: 1000},
		d5Block{sys: gnss.GLONASS, sv: 4, qi: 7, tsMs: 11000000},
	)
	ep, ok, err := DecodeTrkD5(payload)
	if err != nil {
		t.Fatalf("DecodeTrkD5() error: %v", err)
	}
	if ok || len(ep.Obs) != 0 {
		t.Fatalf("ok=%v obs=%d want no output", ok, len(ep.Obs))
	}
}

func TestDecodeTrkD5_GlonassDoesNotSetReference(t *testing.T) {
	// GLONASS time minus 10800 s would be later than the GPS time, but only
	// GPS blocks contribute to the reference.
	payload := buildTrkD5(
		d5Block{sys: gnss.GPS, sv: 2, qi: 7, tsMs: 100000},
		d5Block{sys: gnss.GLONASS, sv: 4, qi: 7, tsMs: 200000000},
	)
	ep, ok, err := DecodeTrkD5(payload)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if !near(ep.Tr, 100.1, 1e-6) {
		t.Fatalf("tr=%.9f want 100.1", ep.Tr)
	}
}

func TestDecodeTrkD5_UnsupportedType(t *testing.T) {
	payload := buildTrkD5(d5Block{sys: gnss.GPS, sv: 1, qi: 7, tsMs: 1000})
	payload[0] = 3
	_, ok, err := DecodeTrkD5(payload)
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v want ignored", ok, err)
	}
}

func TestDecodeTrkD5_ShortPayload(t *testing.T) {
	cases := [][]byte{
		nil,
		append([]byte{trkD5Type6}, make([]byte, 40)...),
	}
	for _, p := range cases {
		_, _, err := DecodeTrkD5(p)
		if !errors.Is(err, ErrShortPayload) {
			t.Fatalf("len=%d err=%v want ErrShortPayload", len(p), err)
		}
	}
}

func TestDecodeTrkD5_TrailingPartialBlockIgnored(t *testing.T) {
	payload := buildTrkD5(d5Block{sys: gnss.GPS, sv: 1, qi: 7, tsMs: 1000})
	payload = append(payload, make([]byte, trkD5BlockLen-1)...)
	ep, ok, err := DecodeTrkD5(payload)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if len(ep.Obs) != 1 {
		t.Fatalf("obs=%d want 1", len(ep.Obs))
	}
}

func TestDecodeTrkD5_WeekRollover(t *testing.T) {
	payload := buildTrkD5(
		d5Block{sys: gnss.GPS, sv: 1, qi: 7, tsMs: 50},
		d5Block{sys: gnss.GPS, sv: 2, qi: 7, tsMs: 604799980},
	)
	ep, ok, err := DecodeTrkD5(payload)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	// The reference comes from the late-week satellite; the early-week one
	// needs the week wrap.
	if !near(ep.Tr, 604800.1, 1e-6) {
		t.Fatalf("tr=%.9f want 604800.1", ep.Tr)
	}
	for _, o := range ep.Obs {
		if o.Tau < 0 || o.Tau > 0.2 {
			t.Fatalf("%s tau=%.9f want within (0, 0.2)", o.Sat, o.Tau)
		}
	}
}

func TestTimeOfFlight(t *testing.T) {
	cases := []struct {
		name   string
		tr, ts float64
		want   float64
	}{
		{"Plain", 100.07, 100.0, 0.07},
		{"WrapBackward", 304000, 1000, -301800},
		{"WrapForward", 1000, 304000, 301800},
		{"BoundaryKept", 302400, 0, 302400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimeOfFlight(tc.tr, tc.ts); !near(got, tc.want, 1e-9) {
				t.Fatalf("TimeOfFlight(%v, %v)=%v want %v", tc.tr, tc.ts, got, tc.want)
			}
		})
	}
}

func TestDecodeTrkD5_OrderIndependentOfInput(t *testing.T) {
	blocks := []d5Block{
		{sys: gnss.GPS, sv: 5, qi: 7, tsMs: 1000},
		{sys: gnss.GPS, sv: 1, qi: 7, tsMs: 1001},
		{sys: gnss.SBAS, sv: 120, qi: 7, tsMs: 1002},
	}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range perms {
		ordered := make([]d5Block, 0, 3)
		for _, i := range perm {
			ordered = append(ordered, blocks[i])
		}
		ep, ok, err := DecodeTrkD5(buildTrkD5(ordered...))
		if err != nil || !ok {
			t.Fatalf("perm=%v ok=%v err=%v", perm, ok, err)
		}
		got := []string{ep.Obs[0].Sat.String(), ep.Obs[1].Sat.String(), ep.Obs[2].Sat.String()}
		want := []string{"GPS:001", "GPS:005", "SBS:120"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("perm=%v order=%v want %v", perm, got, want)
			}
		}
	}
}
