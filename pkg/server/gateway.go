package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/avandyck/gorelay/pkg/model"
	"github.com/avandyck/gorelay/pkg/protocol"
)

// ServeWS upgrades the HTTP request to a WebSocket and runs the session
// lifecycle: handshake, command loop, disconnect.
func (s *Server) ServeWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "websocket endpoint only accepts GET", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "remote", req.RemoteAddr, "err", err)
		return
	}

	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	go s.handleConn(conn, req.RemoteAddr)
}

// handleConn owns one connection from handshake to teardown.
func (s *Server) handleConn(conn *websocket.Conn, remote string) {
	defer s.metrics.ActiveConnections.Add(-1)

	conn.SetReadLimit(s.cfg.MaxFrameSize)

	username, ok := s.handshake(conn, remote)
	if !ok {
		s.metrics.FailedHandshakes.Add(1)
		_ = conn.Close()
		return
	}

	c := newClient(uuid.NewString(), conn, s.cfg)
	if _, err := s.router.Register(c.id, username, c); err != nil {
		// Only reachable if the gateway ever hands out a duplicate ID.
		slog.Error("session registration failed", "remote", remote, "err", err)
		s.metrics.FailedHandshakes.Add(1)
		_ = conn.Close()
		return
	}
	go c.writePump()

	s.readLoop(c)
}

// handshake reads the first frame, which must be a registration envelope
// carrying a valid username. On failure the client gets one error envelope
// before the caller closes the connection.
func (s *Server) handshake(conn *websocket.Conn, remote string) (string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		slog.Debug("handshake read failed", "remote", remote, "err", err)
		return "", false
	}
	_ = conn.SetReadDeadline(time.Time{})

	reg, err := protocol.DecodeRegistration(frame)
	if err == nil {
		err = model.ValidateUsername(reg.Username)
	}
	if err != nil {
		slog.Warn("invalid handshake", "remote", remote, "err", err)
		s.writeDirect(conn, protocol.ErrorEvent("invalid handshake: first message must carry a valid username"))
		return "", false
	}
	return reg.Username, true
}

// readLoop processes inbound frames one at a time until the connection
// drops, then drives the disconnect transition. Strictly sequential per
// session: a command is handled to completion before the next is read.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.router.Disconnect(c.id)
		_ = c.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) &&
				!isExpectedCloseError(err) {
				slog.Warn("read error", "session", c.id, "err", err)
			}
			return
		}
		s.dispatch(c, frame)
	}
}

// dispatch decodes one command frame and invokes the matching router
// operation. A malformed frame or unknown action costs the sender an error
// envelope but never the connection.
func (s *Server) dispatch(c *client, frame []byte) {
	cmd, err := protocol.DecodeCommand(frame)
	if err != nil {
		slog.Warn("dropping malformed frame", "session", c.id, "err", err)
		s.metrics.DroppedFrames.Add(1)
		_ = c.Send(protocol.ErrorEvent("malformed command"))
		return
	}

	switch cmd.Action {
	case protocol.ActionJoinRoom:
		room := strings.TrimSpace(cmd.RoomName)
		if err := model.ValidateRoomName(room); err != nil {
			s.metrics.DroppedFrames.Add(1)
			_ = c.Send(protocol.ErrorEvent(err.Error()))
			return
		}
		s.router.JoinRoom(c.id, room)
	case protocol.ActionLeaveRoom:
		s.router.LeaveRoom(c.id)
	case protocol.ActionSendRoomMessage:
		s.router.RoomMessage(c.id, cmd.Message)
	case protocol.ActionSendPrivateMessage:
		s.router.PrivateMessage(c.id, cmd.Recipient, cmd.Message)
	case protocol.ActionTyping:
		s.router.Typing(c.id)
	default:
		s.metrics.DroppedFrames.Add(1)
		_ = c.Send(protocol.ErrorEvent("unknown action: " + cmd.Action))
	}
}

// writeDirect writes a single event on a connection that has no client
// yet (pre-registration error paths).
func (s *Server) writeDirect(conn *websocket.Conn, ev *protocol.ServerEvent) {
	data, err := ev.Encode()
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

// checkOrigin enforces the configured origin allow list. Requests without
// an Origin header (non-browser clients) are always accepted; an empty
// allow list disables the check.
func (s *Server) checkOrigin(req *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
