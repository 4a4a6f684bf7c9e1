package gnss

import (
	"math"
	"sort"
	"testing"
)

func TestConstellationString(t *testing.T) {
	cases := []struct {
		c    Constellation
		want string
	}{
		{GPS, "GPS"},
		{SBAS, "SBS"},
		{Galileo, "GAL"},
		{BeiDou, "CMP"},
		{QZSS, "QZS"},
		{GLONASS, "GLO"},
		{Constellation(7), "[7]"},
	}
	for _, tc := range cases {
		if got := tc.c.String(); got != tc.want {
			t.Fatalf("Constellation(%d).String()=%q want %q", tc.c, got, tc.want)
		}
	}
	if Constellation(6).Known() {
		t.Fatalf("Constellation(6) should not be known")
	}
}

func TestNewSatID_QZSSOffset(t *testing.T) {
	got := NewSatID(QZSS, 1)
	if got.PRN != 193 {
		t.Fatalf("prn=%d want 193", got.PRN)
	}
	if got.String() != "QZS:193" {
		t.Fatalf("string=%q want %q", got.String(), "QZS:193")
	}
	if NewSatID(GPS, 5).PRN != 5 {
		t.Fatalf("gps prn should not be offset")
	}
}

func TestSatIDOrdering(t *testing.T) {
	sats := []SatID{
		{Sys: SBAS, PRN: 120},
		{Sys: GPS, PRN: 5},
		{Sys: GPS, PRN: 1},
		{Sys: GLONASS, PRN: 3},
	}
	sort.Slice(sats, func(i, j int) bool { return sats[i].Less(sats[j]) })

	want := []string{"GLO:003", "GPS:001", "GPS:005", "SBS:120"}
	for i, s := range sats {
		if s.String() != want[i] {
			t.Fatalf("sats[%d]=%s want %s", i, s, want[i])
		}
	}
}

func TestScaleFactors(t *testing.T) {
	cases := []struct {
		name string
		got  float64
		exp  int
	}{
		{"P2_5", P2_5, -5},
		{"P2_10", P2_10, -10},
		{"P2_19", P2_19, -19},
		{"P2_29", P2_29, -29},
		{"P2_31", P2_31, -31},
		{"P2_32", P2_32, -32},
		{"P2_33", P2_33, -33},
		{"P2_43", P2_43, -43},
		{"P2_55", P2_55, -55},
	}
	for _, tc := range cases {
		if want := math.Ldexp(1, tc.exp); tc.got != want {
			t.Fatalf("%s=%g want %g", tc.name, tc.got, want)
		}
	}
}
