package main

import (
	"io"

	"ubxtrk/internal/config"
	"ubxtrk/internal/output"
	"ubxtrk/internal/receiver"
	"ubxtrk/internal/trk"
	"ubxtrk/internal/udp"
)

func receiverConfig(cfg config.Config) receiver.Config {
	rc := receiver.Config{
		Source:         cfg.Input.Source,
		Device:         cfg.Input.Device,
		Baud:           cfg.Input.Baud,
		Path:           cfg.Input.Path,
		Format:         cfg.Input.Format,
		Configure:      cfg.Receiver.Configure,
		Patch:          cfg.Receiver.Patch,
		MaxPayload:     cfg.Framer.MaxPayload,
		VerifyChecksum: cfg.Framer.VerifyChecksum,
	}
	if cfg.Replay.Enable {
		rc.Source = receiver.SourceReplay
		rc.Path = cfg.Replay.Path
		rc.Format = receiver.FormatBinary
		rc.ReplaySpeed = cfg.Replay.Speed
		rc.ReplayLoop = cfg.Replay.Loop
	}
	return rc
}

// buildSink assembles the console sink, the optional UDP sink and the
// metrics sink. The returned func releases the UDP socket.
func buildSink(cfg config.OutputConfig, stdout io.Writer) (trk.Sink, func(), error) {
	var sinks output.Multi
	if cfg.Format == "json" {
		sinks = append(sinks, output.NewJSON(stdout))
	} else {
		sinks = append(sinks, output.NewText(stdout))
	}

	closeFn := func() {}
	if cfg.UDPDest != "" {
		b, err := udp.NewBroadcaster(cfg.UDPDest)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, output.NewUDP(b))
		closeFn = func() { _ = b.Close() }
	}

	sinks = append(sinks, output.Metrics{})
	return sinks, closeFn, nil
}
