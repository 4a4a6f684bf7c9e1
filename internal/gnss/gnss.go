// Package gnss holds satellite identity and the physical constants shared by
// the UBX tracking decoders.
package gnss

import "fmt"

const (
	// CLight is the speed of light in m/s.
	CLight = 299792458.0

	// SecondsPerWeek is the length of a GPS week.
	SecondsPerWeek = 604800.0
	// HalfWeek is the threshold for week-rollover disambiguation.
	HalfWeek = 302400.0

	// GlonassTimeOffset is the shift (s) between GLONASS broadcast time
	// (Moscow, UTC+3) and GPS time of week as used by the tracking decoder.
	GlonassTimeOffset = 10800.0

	// SemiCircle converts ephemeris angles from semicircles to radians
	// (the value fixed by IS-GPS-200).
	SemiCircle = 3.1415926535898

	// QZSSPRNOffset maps QZSS PRNs reported by the receiver out of the GPS PRN space.
	QZSSPRNOffset = 192
)

// Fixed-point scale factors.
const (
	P2_5  = 1.0 / (1 << 5)
	P2_10 = 1.0 / (1 << 10)
	P2_19 = 1.0 / (1 << 19)
	P2_29 = 1.0 / (1 << 29)
	P2_31 = 1.0 / (1 << 31)
	P2_32 = 1.0 / (1 << 32)
	P2_33 = 1.0 / (1 << 33)
	P2_43 = 1.0 / (1 << 43)
	P2_55 = 1.0 / (1 << 55)
)

// Constellation is the UBX gnssId value.
type Constellation uint8

const (
	GPS     Constellation = 0
	SBAS    Constellation = 1
	Galileo Constellation = 2
	BeiDou  Constellation = 3
	QZSS    Constellation = 4
	GLONASS Constellation = 5
)

var constellationTags = [...]string{"GPS", "SBS", "GAL", "CMP", "QZS", "GLO"}

// String returns the three-letter display tag, or "[n]" for ids the receiver
// reports that are not in the known set.
func (c Constellation) String() string {
	if int(c) < len(constellationTags) {
		return constellationTags[c]
	}
	return fmt.Sprintf("[%d]", uint8(c))
}

// Known reports whether c is one of the enumerated constellations.
func (c Constellation) Known() bool {
	return int(c) < len(constellationTags)
}

// SatID identifies a satellite. It is a display and sort key only; PRN ranges
// are not validated.
type SatID struct {
	Sys Constellation
	PRN int
}

// NewSatID builds the identity for a receiver-reported gnssId/svId pair,
// applying the QZSS PRN offset.
func NewSatID(sys Constellation, svID uint8) SatID {
	prn := int(svID)
	if sys == QZSS {
		prn += QZSSPRNOffset
	}
	return SatID{Sys: sys, PRN: prn}
}

func (s SatID) String() string {
	return fmt.Sprintf("%s:%03d", s.Sys, s.PRN)
}

// Less orders by constellation tag, then PRN.
func (s SatID) Less(o SatID) bool {
	a, b := s.Sys.String(), o.Sys.String()
	if a != b {
		return a < b
	}
	return s.PRN < o.PRN
}

// MarshalText renders the satellite as its display key so it can be used
// directly in JSON output.
func (s SatID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
