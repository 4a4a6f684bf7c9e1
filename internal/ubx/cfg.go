package ubx

import "fmt"

var (
	MsgCfgMsg = MsgID{Class: 0x06, ID: 0x01}
	// MsgTrkD5 carries raw tracking measurements (undocumented, u-blox 6/7).
	MsgTrkD5 = MsgID{Class: 0x03, ID: 0x0A}
	// MsgTrkSfrbx carries raw navigation subframe words (undocumented).
	MsgTrkSfrbx = MsgID{Class: 0x03, ID: 0x0F}

	msgRawPatch = MsgID{Class: 0x09, ID: 0x01}
)

// EnableMessage builds a CFG-MSG frame setting the output rate of msg on the
// current port. Rate 1 means every navigation epoch, 0 disables it.
func EnableMessage(msg MsgID, rate byte) []byte {
	return Encode(MsgCfgMsg.Class, MsgCfgMsg.ID, []byte{msg.Class, msg.ID, rate})
}

// Firmware patches that unlock the TRK messages on receivers that do not
// emit them by default. See https://wiki.openstreetmap.org/wiki/UbloxRAW.
var rawPatches = map[string][]byte{
	"6.02": {
		0xdc, 0x0f, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x23, 0xcc, 0x21, 0x00,
		0x00, 0x00, 0x02, 0x10,
	},
	"7.03": {
		0xc8, 0x16, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x97, 0x69, 0x21, 0x00,
		0x00, 0x00, 0x02, 0x10,
	},
}

// RawPatch returns the wire frame for the RAW unlock patch of the given
// firmware version ("6.02" or "7.03").
func RawPatch(version string) ([]byte, error) {
	p, ok := rawPatches[version]
	if !ok {
		return nil, fmt.Errorf("no raw patch for firmware %q", version)
	}
	return Encode(msgRawPatch.Class, msgRawPatch.ID, p), nil
}

// TrackingSetup returns the frames that switch a receiver to emitting the two
// TRK messages, preceded by the RAW patch when patch is non-empty.
func TrackingSetup(patch string) ([][]byte, error) {
	var out [][]byte
	if patch != "" {
		p, err := RawPatch(patch)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	out = append(out, EnableMessage(MsgTrkD5, 1), EnableMessage(MsgTrkSfrbx, 1))
	return out, nil
}
