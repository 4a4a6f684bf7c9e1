package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ubxtrk/internal/ubx"
)

type Config struct {
	Input    InputConfig    `yaml:"input"`
	Receiver ReceiverConfig `yaml:"receiver"`
	Framer   FramerConfig   `yaml:"framer"`
	Output   OutputConfig   `yaml:"output"`
	Record   RecordConfig   `yaml:"record"`
	Replay   ReplayConfig   `yaml:"replay"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type InputConfig struct {
	// Source is "serial", "file" or "stdin".
	Source string `yaml:"source"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	Path   string `yaml:"path"`
	// Format is "binary" or "hex" (whitespace-separated byte tokens).
	Format string `yaml:"format"`
}

type ReceiverConfig struct {
	Configure bool `yaml:"configure"`
	// Patch is the firmware version whose RAW unlock patch is sent first:
	// "", "6.02" or "7.03".
	Patch string `yaml:"patch"`
}

type FramerConfig struct {
	MaxPayload     int  `yaml:"max_payload"`
	VerifyChecksum bool `yaml:"verify_checksum"`
}

type OutputConfig struct {
	// Format is "text" or "json".
	Format  string `yaml:"format"`
	UDPDest string `yaml:"udp_dest"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type ReplayConfig struct {
	Enable bool    `yaml:"enable"`
	Path   string  `yaml:"path"`
	Speed  float64 `yaml:"speed"`
	Loop   bool    `yaml:"loop"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills defaults in place and rejects inconsistent
// settings. Errors name the offending YAML key.
func DefaultAndValidate(cfg *Config) error {
	in := &cfg.Input
	in.Source = strings.ToLower(strings.TrimSpace(in.Source))
	in.Format = strings.ToLower(strings.TrimSpace(in.Format))
	if in.Source == "" {
		in.Source = "serial"
	}
	if in.Format == "" {
		in.Format = "binary"
	}
	if in.Baud == 0 {
		in.Baud = 9600
	}

	switch in.Source {
	case "serial", "stdin":
	case "file":
		if in.Path == "" && !cfg.Replay.Enable {
			return fmt.Errorf("input.path is required when input.source is 'file'")
		}
	default:
		return fmt.Errorf("input.source must be one of serial, file, stdin (got %q)", in.Source)
	}
	switch in.Format {
	case "binary", "hex":
	default:
		return fmt.Errorf("input.format must be 'binary' or 'hex' (got %q)", in.Format)
	}
	if in.Baud < 0 {
		return fmt.Errorf("input.baud must be > 0")
	}

	if cfg.Receiver.Configure && in.Source != "serial" {
		return fmt.Errorf("receiver.configure requires input.source 'serial'")
	}
	if p := cfg.Receiver.Patch; p != "" {
		if _, err := ubx.RawPatch(p); err != nil {
			return fmt.Errorf("receiver.patch: %w", err)
		}
		if !cfg.Receiver.Configure {
			return fmt.Errorf("receiver.patch is only sent when receiver.configure is true")
		}
	}

	if cfg.Framer.MaxPayload == 0 {
		cfg.Framer.MaxPayload = ubx.DefaultMaxPayload
	}
	if cfg.Framer.MaxPayload < 0 || cfg.Framer.MaxPayload > 0xFFFF {
		return fmt.Errorf("framer.max_payload must be within 1..65535")
	}

	out := &cfg.Output
	out.Format = strings.ToLower(strings.TrimSpace(out.Format))
	if out.Format == "" {
		out.Format = "text"
	}
	if out.Format != "text" && out.Format != "json" {
		return fmt.Errorf("output.format must be 'text' or 'json' (got %q)", out.Format)
	}
	if out.UDPDest != "" {
		if _, _, err := net.SplitHostPort(out.UDPDest); err != nil {
			return fmt.Errorf("output.udp_dest: %w", err)
		}
	}

	if cfg.Record.Enable && cfg.Record.Path == "" {
		return fmt.Errorf("record.path is required when record.enable is true")
	}

	if cfg.Replay.Enable {
		if cfg.Replay.Path == "" {
			return fmt.Errorf("replay.path is required when replay.enable is true")
		}
		if cfg.Replay.Speed == 0 {
			cfg.Replay.Speed = 1
		}
		if cfg.Replay.Speed < 0 {
			return fmt.Errorf("replay.speed must be > 0")
		}
		if cfg.Receiver.Configure {
			return fmt.Errorf("receiver.configure cannot be used with replay.enable")
		}
	}

	if cfg.Record.Enable && cfg.Replay.Enable {
		return fmt.Errorf("record and replay cannot both be enabled")
	}

	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}
	return nil
}
