// Package web serves the operator HTTP surface: receiver status, recent log
// lines and Prometheus metrics.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ubxtrk/internal/metrics"
	"ubxtrk/internal/receiver"
)

// StatusSource returns the current receiver state, typically
// (*receiver.Service).Snapshot.
type StatusSource func() receiver.Snapshot

type StatusResponse struct {
	Service   string            `json:"service"`
	NowUTC    string            `json:"now_utc"`
	UptimeSec int64             `json:"uptime_sec"`
	Receiver  receiver.Snapshot `json:"receiver"`
}

// Handler routes /api/status, /api/logs and /metrics. logs may be nil.
func Handler(status StatusSource, logs *LogBuffer) http.Handler {
	started := time.Now()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		now := time.Now()
		resp := StatusResponse{
			Service:   "ubxtrk",
			NowUTC:    now.UTC().Format(time.RFC3339Nano),
			UptimeSec: int64(now.Sub(started).Seconds()),
		}
		if status != nil {
			resp.Receiver = status()
		}
		writeJSON(w, resp)
	})

	if logs != nil {
		mux.Handle("/api/logs", logs.Handler())
	}
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
