package server

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/avandyck/gorelay/pkg/model"
	"github.com/avandyck/gorelay/pkg/protocol"
)

// Sender delivers events to a single connected client. Implementations must
// not block: a send that cannot be accepted should fail immediately so one
// slow client cannot stall a fan-out.
type Sender interface {
	Send(ev *protocol.ServerEvent) error
	Close() error
}

// Router owns the session registry and the room directory and implements
// the chat operations on top of them. A single mutex guards both stores
// jointly; recipient sets are snapshotted under the lock and deliveries
// happen after it is released, so membership changes mid-broadcast never
// affect an in-flight fan-out.
type Router struct {
	mu       sync.Mutex
	registry *SessionRegistry
	rooms    *RoomDirectory
	senders  map[string]Sender // session ID -> outbound handle
	metrics  *Metrics
}

// NewRouter creates a router. A nil metrics instance is replaced with a
// fresh one so callers in tests can omit it.
func NewRouter(metrics *Metrics) *Router {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Router{
		registry: NewSessionRegistry(),
		rooms:    NewRoomDirectory(),
		senders:  make(map[string]Sender),
		metrics:  metrics,
	}
}

// delivery pairs an event with its recipient. Deliveries are queued while
// the router lock is held and sent after release, preserving per-recipient
// emission order.
type delivery struct {
	id string
	to Sender
	ev *protocol.ServerEvent
}

// deliver sends each queued event, isolating per-recipient failures: a
// recipient that cannot accept an event is disconnected, and the remaining
// deliveries proceed.
func (r *Router) deliver(queue []delivery) {
	for _, d := range queue {
		if d.to == nil {
			continue
		}
		if err := d.to.Send(d.ev); err != nil {
			slog.Warn("event delivery failed", "session", d.id, "event", d.ev.Type, "err", err)
			r.metrics.DeliveryFailures.Add(1)
			_ = d.to.Close()
		}
	}
}

// Register creates a session for a new connection with no current room.
// The username is fixed for the session's lifetime. Duplicate usernames are
// allowed; duplicate connection IDs are not.
func (r *Router) Register(id, username string, sender Sender) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, err := r.registry.Register(id, username)
	if err != nil {
		return nil, err
	}
	r.senders[id] = sender
	slog.Info("session registered", "session", id, "user", username)
	return sess, nil
}

// PinRoom creates a room that is retained while empty.
func (r *Router) PinRoom(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms.Pin(name)
}

// JoinRoom moves the session into the named room, leaving its current room
// first if it has one. The vacated room sees a departure notice and a
// refreshed user list; the joined room sees an arrival notice and its own
// refreshed list. The notice always precedes the list so clients read the
// membership text before the authoritative snapshot.
func (r *Router) JoinRoom(id, roomName string) {
	r.mu.Lock()
	sess := r.registry.Get(id)
	if sess == nil {
		r.mu.Unlock()
		return
	}

	if sess.Room == roomName {
		// Rejoining the current room just refreshes the caller's user list.
		queue := []delivery{{id, r.senders[id], protocol.UserList(roomName, r.usernamesLocked(roomName))}}
		r.mu.Unlock()
		r.deliver(queue)
		return
	}

	var queue []delivery
	if sess.InRoom() {
		queue = r.vacateLocked(sess)
	}

	if created := r.rooms.Join(roomName, id); created {
		r.metrics.RoomsCreated.Add(1)
	}
	sess.Room = roomName

	notice := protocol.SystemNotice(roomName, "[System] "+sess.Username+" has joined the room.")
	queue = append(queue, r.fanoutLocked(roomName, notice)...)
	queue = append(queue, r.fanoutLocked(roomName, protocol.UserList(roomName, r.usernamesLocked(roomName)))...)
	r.mu.Unlock()

	r.deliver(queue)
	slog.Debug("joined room", "session", id, "user", sess.Username, "room", roomName)
}

// LeaveRoom removes the session from its current room without joining
// another. No-op when the session is unknown or has no room.
func (r *Router) LeaveRoom(id string) {
	r.mu.Lock()
	sess := r.registry.Get(id)
	if sess == nil || !sess.InRoom() {
		r.mu.Unlock()
		return
	}
	queue := r.vacateLocked(sess)
	r.mu.Unlock()

	r.deliver(queue)
}

// RoomMessage broadcasts text to every member of the sender's current room,
// including the sender. A message sent before any join is silently dropped:
// clients race their first message against the join acknowledgement, so this
// is an expected condition rather than an error.
func (r *Router) RoomMessage(id, text string) {
	text = sanitizeText(strings.TrimSpace(text))
	if text == "" || len(text) > model.MaxMessageLength {
		return
	}

	r.mu.Lock()
	sess := r.registry.Get(id)
	if sess == nil || !sess.InRoom() {
		r.mu.Unlock()
		return
	}
	queue := r.fanoutLocked(sess.Room, protocol.RoomMessage(sess.Room, sess.Username, text))
	r.mu.Unlock()

	r.deliver(queue)
	r.metrics.RoomMessages.Add(1)
}

// PrivateMessage delivers text to the first connected session with the
// recipient username. When no such session exists, the sender alone
// receives an error envelope; nothing else is delivered.
func (r *Router) PrivateMessage(id, recipient, text string) {
	text = sanitizeText(strings.TrimSpace(text))
	if text == "" || len(text) > model.MaxMessageLength {
		return
	}

	r.mu.Lock()
	sess := r.registry.Get(id)
	if sess == nil {
		r.mu.Unlock()
		return
	}

	var queue []delivery
	target := r.registry.LookupByUsername(recipient)
	if target == nil {
		queue = append(queue, delivery{id, r.senders[id], protocol.ErrorEvent("User not found")})
	} else {
		queue = append(queue, delivery{target.ID, r.senders[target.ID], protocol.PrivateMessage(sess.Username, text)})
	}
	r.mu.Unlock()

	r.deliver(queue)
	if target != nil {
		r.metrics.PrivateMessages.Add(1)
	}
}

// Typing broadcasts a typing indicator to the sender's current room,
// including the sender. No-op when the session has no room.
func (r *Router) Typing(id string) {
	r.mu.Lock()
	sess := r.registry.Get(id)
	if sess == nil || !sess.InRoom() {
		r.mu.Unlock()
		return
	}
	queue := r.fanoutLocked(sess.Room, protocol.Typing(sess.Username))
	r.mu.Unlock()

	r.deliver(queue)
	r.metrics.TypingEvents.Add(1)
}

// Disconnect removes the session from the registry and, if it was in a
// room, from that room's member set, in one step. Idempotent: disconnect
// notifications race registration failures, so an unknown session is a
// silent no-op.
func (r *Router) Disconnect(id string) {
	r.mu.Lock()
	sess := r.registry.Unregister(id)
	delete(r.senders, id)
	if sess == nil {
		r.mu.Unlock()
		return
	}
	var queue []delivery
	if sess.InRoom() {
		queue = r.vacateLocked(sess)
	}
	r.mu.Unlock()

	r.deliver(queue)
	r.metrics.TotalDisconnects.Add(1)
	slog.Info("session disconnected", "session", id, "user", sess.Username)
}

// Stats returns the current session and room counts.
func (r *Router) Stats() (sessions, rooms int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Count(), r.rooms.Count()
}

// CloseAll closes every connected client's outbound handle. Used during
// shutdown; the resulting transport teardown drives the usual Disconnect
// path per session.
func (r *Router) CloseAll() {
	r.mu.Lock()
	senders := make([]Sender, 0, len(r.senders))
	for _, s := range r.senders {
		senders = append(senders, s)
	}
	r.mu.Unlock()

	for _, s := range senders {
		_ = s.Close()
	}
}

// vacateLocked removes the session from its current room and queues the
// departure notice plus the refreshed user list for the remaining members.
// Caller holds r.mu.
func (r *Router) vacateLocked(sess *model.Session) []delivery {
	room := sess.Room
	if reaped := r.rooms.Leave(room, sess.ID); reaped {
		r.metrics.RoomsReaped.Add(1)
	}
	sess.Room = ""

	notice := protocol.SystemNotice(room, "[System] "+sess.Username+" has left the room.")
	queue := r.fanoutLocked(room, notice)
	return append(queue, r.fanoutLocked(room, protocol.UserList(room, r.usernamesLocked(room)))...)
}

// fanoutLocked queues ev for every current member of the room. Caller
// holds r.mu.
func (r *Router) fanoutLocked(room string, ev *protocol.ServerEvent) []delivery {
	members := r.rooms.Members(room)
	queue := make([]delivery, 0, len(members))
	for _, sid := range members {
		queue = append(queue, delivery{sid, r.senders[sid], ev})
	}
	return queue
}

// usernamesLocked returns the usernames of a room's members in join order.
// Caller holds r.mu.
func (r *Router) usernamesLocked(room string) []string {
	members := r.rooms.Members(room)
	users := make([]string, 0, len(members))
	for _, sid := range members {
		if sess := r.registry.Get(sid); sess != nil {
			users = append(users, sess.Username)
		}
	}
	return users
}

// sanitizeText strips control characters (except newline, which is
// collapsed to a space) from user-supplied text to prevent terminal escape
// injection and null-byte tricks.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
