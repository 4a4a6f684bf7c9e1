package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"ubxtrk/internal/replay"
	"ubxtrk/internal/trk"
	"ubxtrk/internal/ubx"
)

type logSummary struct {
	Segments         int
	Frames           int
	ChecksumFailures int
	Epochs           int
	Observations     int
	Subframes        int
	DecodeErrors     int
	MaxDuration      time.Duration
	MsgCounts        map[ubx.MsgID]int
}

// summaryCounter is a trk.Sink that only counts.
type summaryCounter struct {
	s *logSummary
}

func (c summaryCounter) WriteEpoch(ep trk.Epoch) error {
	c.s.Epochs++
	c.s.Observations += len(ep.Obs)
	return nil
}

func (c summaryCounter) WriteSubframe(trk.Subframe) error {
	c.s.Subframes++
	return nil
}

// summarizeFrameLog routes every logged frame through the same dispatcher
// registration the live receiver uses.
func summarizeFrameLog(records []replay.Record) logSummary {
	s := logSummary{MsgCounts: map[ubx.MsgID]int{}}
	d := ubx.NewDispatcher()
	trk.Register(d, summaryCounter{s: &s})

	var origin time.Duration
	hasFrames := false
	for _, r := range records {
		if r.IsStart() {
			s.Segments++
			origin = r.At
			continue
		}
		hasFrames = true
		s.Frames++
		if at := r.At - origin; at > s.MaxDuration {
			s.MaxDuration = at
		}

		f, err := ubx.ParseFrame(r.Wire)
		if err != nil {
			s.DecodeErrors++
			continue
		}
		if !f.ChecksumOK() {
			s.ChecksumFailures++
		}
		s.MsgCounts[f.Msg()]++
		if _, err := d.Dispatch(f); err != nil {
			s.DecodeErrors++
		}
	}
	if s.Segments == 0 && hasFrames {
		s.Segments = 1
	}
	return s
}

func printLogSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := replay.NewReader(f).ReadAll()
	if err != nil {
		return err
	}
	s := summarizeFrameLog(recs)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "frames: %d\n", s.Frames)
	fmt.Fprintf(w, "checksum_failures: %d\n", s.ChecksumFailures)
	fmt.Fprintf(w, "epochs: %d\n", s.Epochs)
	fmt.Fprintf(w, "observations: %d\n", s.Observations)
	fmt.Fprintf(w, "subframes: %d\n", s.Subframes)
	fmt.Fprintf(w, "decode_errors: %d\n", s.DecodeErrors)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	keys := make([]ubx.MsgID, 0, len(s.MsgCounts))
	for k := range s.MsgCounts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Class != keys[j].Class {
			return keys[i].Class < keys[j].Class
		}
		return keys[i].ID < keys[j].ID
	})
	fmt.Fprintf(w, "msg_counts:\n")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, s.MsgCounts[k])
	}
	return nil
}
