package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime WebSocket connections accepted
	ActiveConnections atomic.Int64 // current open connections
	FailedHandshakes  atomic.Int64 // connections closed before registration
	TotalDisconnects  atomic.Int64 // registered sessions torn down

	// Traffic counters
	RoomMessages     atomic.Int64 // room broadcasts relayed
	PrivateMessages  atomic.Int64 // private messages delivered
	TypingEvents     atomic.Int64 // typing indicators relayed
	DroppedFrames    atomic.Int64 // malformed frames and unknown actions
	DeliveryFailures atomic.Int64 // per-recipient sends that failed

	// Room counters
	RoomsCreated atomic.Int64 // rooms created on first join
	RoomsReaped  atomic.Int64 // empty rooms deleted
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics as a serializable
// struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	FailedHandshakes  int64 `json:"failed_handshakes"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	RoomMessages     int64 `json:"room_messages"`
	PrivateMessages  int64 `json:"private_messages"`
	TypingEvents     int64 `json:"typing_events"`
	DroppedFrames    int64 `json:"dropped_frames"`
	DeliveryFailures int64 `json:"delivery_failures"`

	RoomsCreated int64 `json:"rooms_created"`
	RoomsReaped  int64 `json:"rooms_reaped"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		FailedHandshakes:  m.FailedHandshakes.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		RoomMessages:      m.RoomMessages.Load(),
		PrivateMessages:   m.PrivateMessages.Load(),
		TypingEvents:      m.TypingEvents.Load(),
		DroppedFrames:     m.DroppedFrames.Load(),
		DeliveryFailures:  m.DeliveryFailures.Load(),
		RoomsCreated:      m.RoomsCreated.Load(),
		RoomsReaped:       m.RoomsReaped.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"room_messages", s.RoomMessages,
		"private_messages", s.PrivateMessages,
		"delivery_failures", s.DeliveryFailures,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
