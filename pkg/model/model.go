// Package model defines the core domain types for GoRelay.
package model

// Session represents one active client connection (in-memory only).
//
// The ID is the opaque connection handle assigned by the gateway at upgrade
// time. Username is set once at registration and never changes for the
// session's lifetime. Room is the name of the session's current room, or
// empty when the session has not joined one.
type Session struct {
	ID       string
	Username string
	Room     string
}

// InRoom reports whether the session currently belongs to a room.
func (s *Session) InRoom() bool {
	return s.Room != ""
}
