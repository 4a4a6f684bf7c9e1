package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ubxtrk/internal/config"
	"ubxtrk/internal/receiver"
	"ubxtrk/internal/replay"
	"ubxtrk/internal/web"
)

func main() {
	var configPath string
	var summaryPath string
	flag.StringVar(&configPath, "config", "./ubxtrk.yaml", "Path to YAML config")
	flag.StringVar(&summaryPath, "summary", "", "Print a summary of a recorded frame log and exit")
	flag.Parse()

	if summaryPath != "" {
		if err := printLogSummary(os.Stdout, summaryPath); err != nil {
			log.Fatalf("log summary failed: %v", err)
		}
		return
	}

	logs := web.NewLogBuffer(2000)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink, closeSinks, err := buildSink(cfg.Output, os.Stdout)
	if err != nil {
		log.Fatalf("output init failed: %v", err)
	}
	defer closeSinks()

	var rec receiver.Recorder
	if cfg.Record.Enable {
		w, err := replay.Create(cfg.Record.Path)
		if err != nil {
			log.Fatalf("record init failed path=%s: %v", cfg.Record.Path, err)
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Printf("record close failed: %v", err)
			}
			log.Printf("record closed path=%s frames=%d", cfg.Record.Path, w.Frames())
		}()
		rec = w
		log.Printf("record enabled path=%s", cfg.Record.Path)
	}

	svc := receiver.New(receiverConfig(cfg), sink, rec)

	httpCtx, stopHTTP := context.WithCancel(ctx)
	defer stopHTTP()
	if cfg.Metrics.Listen != "" {
		go func() {
			log.Printf("http listen=%s", cfg.Metrics.Listen)
			if err := web.Serve(httpCtx, cfg.Metrics.Listen, web.Handler(svc.Snapshot, logs)); err != nil && httpCtx.Err() == nil {
				log.Printf("http server stopped listen=%s: %v", cfg.Metrics.Listen, err)
			}
		}()
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("receiver start failed: %v", err)
	}

	log.Printf("ubxtrk running output=%s udp_dest=%s", cfg.Output.Format, cfg.Output.UDPDest)
	select {
	case <-ctx.Done():
	case <-svc.Done():
	}
	svc.Close()

	snap := svc.Snapshot()
	log.Printf("ubxtrk stopping bytes=%d frames=%d epochs=%d subframes=%d decode_errors=%d sync_misses=%d overflows=%d checksum_failures=%d",
		snap.Bytes, snap.Sync.Frames, snap.Epochs, snap.Subframes, snap.DecodeErrors,
		snap.Sync.SyncMisses, snap.Sync.Overflows, snap.Sync.ChecksumFailures)
	if snap.LastError != "" {
		log.Printf("last_error=%s", snap.LastError)
	}
}
