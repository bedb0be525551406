package server

import (
	"errors"

	"github.com/avandyck/gorelay/pkg/model"
)

var ErrDuplicateSession = errors.New("server: session already registered")

// SessionRegistry tracks connected sessions keyed by connection ID. It is
// the sole source of truth for who is connected.
//
// The registry is not safe for concurrent use on its own: the Router guards
// it and the RoomDirectory with one lock, so session state and room
// membership can never disagree, even transiently.
type SessionRegistry struct {
	sessions map[string]*model.Session
	order    []string // connection IDs in registration order
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*model.Session),
	}
}

// Register creates a session with no current room. Registering an ID that
// is already present fails with ErrDuplicateSession.
func (sr *SessionRegistry) Register(id, username string) (*model.Session, error) {
	if _, exists := sr.sessions[id]; exists {
		return nil, ErrDuplicateSession
	}
	sess := &model.Session{ID: id, Username: username}
	sr.sessions[id] = sess
	sr.order = append(sr.order, id)
	return sess, nil
}

// Unregister removes and returns the session, or nil if the ID is unknown
// (a disconnect can race a failed registration).
func (sr *SessionRegistry) Unregister(id string) *model.Session {
	sess, ok := sr.sessions[id]
	if !ok {
		return nil
	}
	delete(sr.sessions, id)
	for i, sid := range sr.order {
		if sid == id {
			sr.order = append(sr.order[:i], sr.order[i+1:]...)
			break
		}
	}
	return sess
}

// Get retrieves a session by connection ID, or nil if unknown.
func (sr *SessionRegistry) Get(id string) *model.Session {
	return sr.sessions[id]
}

// LookupByUsername returns the earliest-registered session with the given
// username, or nil. Usernames are not unique; first match wins.
func (sr *SessionRegistry) LookupByUsername(username string) *model.Session {
	for _, id := range sr.order {
		if sess := sr.sessions[id]; sess.Username == username {
			return sess
		}
	}
	return nil
}

// Count returns the number of connected sessions.
func (sr *SessionRegistry) Count() int {
	return len(sr.sessions)
}

// All returns every session in registration order.
func (sr *SessionRegistry) All() []*model.Session {
	result := make([]*model.Session, 0, len(sr.order))
	for _, id := range sr.order {
		result = append(result, sr.sessions[id])
	}
	return result
}
