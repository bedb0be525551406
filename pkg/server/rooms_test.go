package server

import (
	"reflect"
	"testing"
)

func TestRoomsJoinCreatesOnFirstUse(t *testing.T) {
	rd := NewRoomDirectory()

	if created := rd.Join("general", "c1"); !created {
		t.Fatalf("Join: first join must create the room")
	}
	if created := rd.Join("general", "c2"); created {
		t.Fatalf("Join: second join must not report creation")
	}
	if !rd.Exists("general") {
		t.Fatalf("Exists: expected general to exist")
	}
	if got := rd.Members("general"); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Fatalf("Members: want [c1 c2] got %v", got)
	}
}

func TestRoomsJoinIsIdempotentPerSession(t *testing.T) {
	rd := NewRoomDirectory()
	rd.Join("general", "c1")
	rd.Join("general", "c1")

	if got := rd.Members("general"); len(got) != 1 {
		t.Fatalf("Members: duplicate join must not duplicate membership, got %v", got)
	}
}

func TestRoomsLeaveReapsEmptyRoom(t *testing.T) {
	rd := NewRoomDirectory()
	rd.Join("general", "c1")
	rd.Join("general", "c2")

	if reaped := rd.Leave("general", "c1"); reaped {
		t.Fatalf("Leave: room still has a member, must not reap")
	}
	if reaped := rd.Leave("general", "c2"); !reaped {
		t.Fatalf("Leave: last member left, room must be reaped")
	}
	if rd.Exists("general") {
		t.Fatalf("Exists: reaped room must be gone")
	}
	if reaped := rd.Leave("general", "c2"); reaped {
		t.Fatalf("Leave: unknown room must report false")
	}
}

func TestRoomsPinnedRoomSurvivesEmpty(t *testing.T) {
	rd := NewRoomDirectory()
	rd.Pin("lobby")
	if !rd.Exists("lobby") {
		t.Fatalf("Pin: pinned room must exist immediately")
	}

	rd.Join("lobby", "c1")
	if reaped := rd.Leave("lobby", "c1"); reaped {
		t.Fatalf("Leave: pinned room must not be reaped")
	}
	if !rd.Exists("lobby") {
		t.Fatalf("Exists: pinned room must survive going empty")
	}
	if got := rd.Members("lobby"); len(got) != 0 {
		t.Fatalf("Members: want empty, got %v", got)
	}
}

func TestRoomsMembersReturnsCopy(t *testing.T) {
	rd := NewRoomDirectory()
	rd.Join("general", "c1")

	got := rd.Members("general")
	got[0] = "mutated"
	if rd.Members("general")[0] != "c1" {
		t.Fatalf("Members: returned slice must be a copy")
	}
	if rd.Members("unknown") != nil {
		t.Fatalf("Members: unknown room must return nil")
	}
}

func TestRoomsCount(t *testing.T) {
	rd := NewRoomDirectory()
	rd.Pin("lobby")
	rd.Join("general", "c1")
	if rd.Count() != 2 {
		t.Fatalf("Count: want 2 got %d", rd.Count())
	}
	rd.Leave("general", "c1")
	if rd.Count() != 1 {
		t.Fatalf("Count: want 1 after reap, got %d", rd.Count())
	}
}
