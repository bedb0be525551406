package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
func (s *Server) StartMetricsHTTP() {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return // metrics endpoint disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()
	sessions, rooms := s.router.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Helper for gauge/counter lines.
	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("gorelay_uptime_seconds", "Server uptime in seconds.", "gauge", uptime)

	write("gorelay_sessions_active", "Currently registered sessions.", "gauge", int64(sessions))
	write("gorelay_rooms_active", "Currently tracked rooms.", "gauge", int64(rooms))

	write("gorelay_connections_active", "Current open WebSocket connections.", "gauge",
		m.ActiveConnections.Load())
	write("gorelay_connections_total", "Lifetime WebSocket connections accepted.", "counter",
		m.TotalConnections.Load())
	write("gorelay_handshake_failures_total", "Connections closed before registration.", "counter",
		m.FailedHandshakes.Load())
	write("gorelay_disconnects_total", "Registered sessions torn down.", "counter",
		m.TotalDisconnects.Load())

	write("gorelay_room_messages_total", "Room broadcasts relayed.", "counter",
		m.RoomMessages.Load())
	write("gorelay_private_messages_total", "Private messages delivered.", "counter",
		m.PrivateMessages.Load())
	write("gorelay_typing_events_total", "Typing indicators relayed.", "counter",
		m.TypingEvents.Load())
	write("gorelay_dropped_frames_total", "Malformed frames and unknown actions.", "counter",
		m.DroppedFrames.Load())
	write("gorelay_delivery_failures_total", "Per-recipient sends that failed.", "counter",
		m.DeliveryFailures.Load())

	write("gorelay_rooms_created_total", "Rooms created on first join.", "counter",
		m.RoomsCreated.Load())
	write("gorelay_rooms_reaped_total", "Empty rooms deleted.", "counter",
		m.RoomsReaped.Load())
}
