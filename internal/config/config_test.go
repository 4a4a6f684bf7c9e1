package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ubxtrk/internal/ubx"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "input:\n  device: /dev/ttyACM0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Input.Source != "serial" || cfg.Input.Format != "binary" || cfg.Input.Baud != 9600 {
		t.Fatalf("input=%+v", cfg.Input)
	}
	if cfg.Framer.MaxPayload != ubx.DefaultMaxPayload || cfg.Framer.VerifyChecksum {
		t.Fatalf("framer=%+v", cfg.Framer)
	}
	if cfg.Output.Format != "text" {
		t.Fatalf("output.format=%q want text", cfg.Output.Format)
	}
}

func TestLoad_EmptyFileIsValid(t *testing.T) {
	path := writeTempConfig(t, "")
	if _, err := Load(path); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `
input:
  source: SERIAL
  device: /dev/ttyUSB1
  baud: 115200
  format: hex
receiver:
  configure: true
  patch: "7.03"
framer:
  max_payload: 4096
  verify_checksum: true
output:
  format: json
  udp_dest: 127.0.0.1:5005
record:
  enable: true
  path: /tmp/frames.log
metrics:
  listen: ":9108"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Input.Source != "serial" || cfg.Input.Baud != 115200 || cfg.Input.Format != "hex" {
		t.Fatalf("input=%+v", cfg.Input)
	}
	if !cfg.Receiver.Configure || cfg.Receiver.Patch != "7.03" {
		t.Fatalf("receiver=%+v", cfg.Receiver)
	}
	if cfg.Framer.MaxPayload != 4096 || !cfg.Framer.VerifyChecksum {
		t.Fatalf("framer=%+v", cfg.Framer)
	}
	if cfg.Output.Format != "json" || cfg.Output.UDPDest != "127.0.0.1:5005" {
		t.Fatalf("output=%+v", cfg.Output)
	}
	if !cfg.Record.Enable || cfg.Metrics.Listen != ":9108" {
		t.Fatalf("record=%+v metrics=%+v", cfg.Record, cfg.Metrics)
	}
}

func TestLoad_ReplayDefaultsSpeed(t *testing.T) {
	path := writeTempConfig(t, "replay:\n  enable: true\n  path: frames.log\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Replay.Speed != 1 {
		t.Fatalf("replay.speed=%v want 1", cfg.Replay.Speed)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "UnknownSource",
			yaml: "input:\n  source: tcp\n",
			want: `input.source must be one of serial, file, stdin (got "tcp")`,
		},
		{
			name: "FileNeedsPath",
			yaml: "input:\n  source: file\n",
			want: "input.path is required when input.source is 'file'",
		},
		{
			name: "UnknownFormat",
			yaml: "input:\n  format: base64\n",
			want: `input.format must be 'binary' or 'hex' (got "base64")`,
		},
		{
			name: "ConfigureNeedsSerial",
			yaml: "input:\n  source: stdin\nreceiver:\n  configure: true\n",
			want: "receiver.configure requires input.source 'serial'",
		},
		{
			name: "UnknownPatch",
			yaml: "receiver:\n  configure: true\n  patch: '8.01'\n",
			want: `receiver.patch: no raw patch for firmware "8.01"`,
		},
		{
			name: "PatchWithoutConfigure",
			yaml: "receiver:\n  patch: '6.02'\n",
			want: "receiver.patch is only sent when receiver.configure is true",
		},
		{
			name: "MaxPayloadRange",
			yaml: "framer:\n  max_payload: 70000\n",
			want: "framer.max_payload must be within 1..65535",
		},
		{
			name: "OutputFormat",
			yaml: "output:\n  format: csv\n",
			want: `output.format must be 'text' or 'json' (got "csv")`,
		},
		{
			name: "RecordNeedsPath",
			yaml: "record:\n  enable: true\n",
			want: "record.path is required when record.enable is true",
		},
		{
			name: "ReplayNeedsPath",
			yaml: "replay:\n  enable: true\n",
			want: "replay.path is required when replay.enable is true",
		},
		{
			name: "ReplayNegativeSpeed",
			yaml: "replay:\n  enable: true\n  path: x.log\n  speed: -2\n",
			want: "replay.speed must be > 0",
		},
		{
			name: "RecordAndReplay",
			yaml: "record:\n  enable: true\n  path: a.log\nreplay:\n  enable: true\n  path: b.log\n",
			want: "record and replay cannot both be enabled",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_AddressErrorsNameKey(t *testing.T) {
	for key, yaml := range map[string]string{
		"output.udp_dest": "output:\n  udp_dest: nohostport\n",
		"metrics.listen":  "metrics:\n  listen: nohostport\n",
	} {
		_, err := Load(writeTempConfig(t, yaml))
		if err == nil || !strings.HasPrefix(err.Error(), key+":") {
			t.Fatalf("err=%v want prefix %q", err, key)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
