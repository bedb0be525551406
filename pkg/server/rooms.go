package server

// RoomDirectory maps room names to their member sessions. Members keep join
// order so user lists render deterministically.
//
// Like SessionRegistry, the directory relies on the Router's lock for
// concurrency safety.
type RoomDirectory struct {
	rooms map[string]*roomEntry
}

type roomEntry struct {
	members []string // session IDs in join order
	pinned  bool     // pinned rooms survive going empty
}

// NewRoomDirectory creates an empty directory.
func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{
		rooms: make(map[string]*roomEntry),
	}
}

// Pin ensures the room exists and marks it to be retained while empty.
// Used for rooms declared in the server configuration.
func (rd *RoomDirectory) Pin(name string) {
	entry, ok := rd.rooms[name]
	if !ok {
		entry = &roomEntry{}
		rd.rooms[name] = entry
	}
	entry.pinned = true
}

// Join adds the session to the room, creating the room on first use, and
// reports whether the room was created. The caller must have removed the
// session from any previous room first, so a session is never in two rooms.
func (rd *RoomDirectory) Join(name, sessionID string) (created bool) {
	entry, ok := rd.rooms[name]
	if !ok {
		entry = &roomEntry{}
		rd.rooms[name] = entry
		created = true
	}
	for _, sid := range entry.members {
		if sid == sessionID {
			return created
		}
	}
	entry.members = append(entry.members, sessionID)
	return created
}

// Leave removes the session from the room and reports whether the room was
// reaped. Unpinned rooms are deleted when their last member leaves.
func (rd *RoomDirectory) Leave(name, sessionID string) (reaped bool) {
	entry, ok := rd.rooms[name]
	if !ok {
		return false
	}
	for i, sid := range entry.members {
		if sid == sessionID {
			entry.members = append(entry.members[:i], entry.members[i+1:]...)
			break
		}
	}
	if len(entry.members) == 0 && !entry.pinned {
		delete(rd.rooms, name)
		return true
	}
	return false
}

// Members returns the member session IDs in join order; nil for an unknown
// room. The returned slice is a copy.
func (rd *RoomDirectory) Members(name string) []string {
	entry, ok := rd.rooms[name]
	if !ok {
		return nil
	}
	members := make([]string, len(entry.members))
	copy(members, entry.members)
	return members
}

// Exists reports whether the room is currently tracked.
func (rd *RoomDirectory) Exists(name string) bool {
	_, ok := rd.rooms[name]
	return ok
}

// Count returns the number of tracked rooms, including empty pinned ones.
func (rd *RoomDirectory) Count() int {
	return len(rd.rooms)
}
