// Package server implements the GoRelay chat relay: the session registry,
// room directory, and message router at its core, and the WebSocket gateway
// around them.
package server

import (
	"context"

	"github.com/gorilla/websocket"
)

// Server wires the router to its WebSocket gateway and the HTTP surface.
type Server struct {
	cfg      Config
	router   *Router
	metrics  *Metrics
	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a Server instance and pins any rooms declared in the config.
func New(cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	metrics := NewMetrics()
	s := &Server{
		cfg:     cfg,
		router:  NewRouter(metrics),
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	for _, room := range cfg.Rooms {
		s.router.PinRoom(room)
	}
	return s
}

// Router returns the message router.
func (s *Server) Router() *Router {
	return s.router
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}
