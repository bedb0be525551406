package server

import (
	"testing"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	sr := NewSessionRegistry()

	sess, err := sr.Register("c1", "alice")
	if err != nil {
		t.Fatalf("Register: unexpected error: %v", err)
	}
	if sess.ID != "c1" || sess.Username != "alice" {
		t.Fatalf("Register: unexpected session %+v", sess)
	}
	if sess.InRoom() {
		t.Fatalf("Register: new session must have no room")
	}

	if got := sr.Get("c1"); got != sess {
		t.Fatalf("Get: expected the registered session, got %+v", got)
	}
	if got := sr.Get("nope"); got != nil {
		t.Fatalf("Get: expected nil for unknown ID, got %+v", got)
	}
	if sr.Count() != 1 {
		t.Fatalf("Count: want 1 got %d", sr.Count())
	}
}

func TestRegistryDuplicateSession(t *testing.T) {
	sr := NewSessionRegistry()

	if _, err := sr.Register("c1", "alice"); err != nil {
		t.Fatalf("Register: unexpected error: %v", err)
	}
	if _, err := sr.Register("c1", "bob"); err != ErrDuplicateSession {
		t.Fatalf("Register: want ErrDuplicateSession got %v", err)
	}
	if sr.Count() != 1 {
		t.Fatalf("Count: duplicate registration must not add an entry")
	}
}

func TestRegistryUnregister(t *testing.T) {
	sr := NewSessionRegistry()

	if _, err := sr.Register("c1", "alice"); err != nil {
		t.Fatalf("Register: unexpected error: %v", err)
	}

	sess := sr.Unregister("c1")
	if sess == nil || sess.Username != "alice" {
		t.Fatalf("Unregister: expected alice's session, got %+v", sess)
	}
	if sr.Get("c1") != nil {
		t.Fatalf("Unregister: session still present")
	}
	if sr.Unregister("c1") != nil {
		t.Fatalf("Unregister: second call must return nil")
	}
	if sr.Unregister("never-registered") != nil {
		t.Fatalf("Unregister: unknown ID must return nil")
	}
}

func TestRegistryLookupByUsernameFirstMatch(t *testing.T) {
	sr := NewSessionRegistry()

	first, _ := sr.Register("c1", "dave")
	if _, err := sr.Register("c2", "dave"); err != nil {
		t.Fatalf("Register: unexpected error: %v", err)
	}

	if got := sr.LookupByUsername("dave"); got != first {
		t.Fatalf("LookupByUsername: want earliest registration, got %+v", got)
	}
	if got := sr.LookupByUsername("carol"); got != nil {
		t.Fatalf("LookupByUsername: want nil for unknown username, got %+v", got)
	}

	// After the first leaves, the later registration becomes the match.
	sr.Unregister("c1")
	got := sr.LookupByUsername("dave")
	if got == nil || got.ID != "c2" {
		t.Fatalf("LookupByUsername: want c2 after unregister, got %+v", got)
	}
}

func TestRegistryAllPreservesOrder(t *testing.T) {
	sr := NewSessionRegistry()
	for _, id := range []string{"c1", "c2", "c3"} {
		if _, err := sr.Register(id, "user-"+id); err != nil {
			t.Fatalf("Register %s: %v", id, err)
		}
	}
	sr.Unregister("c2")

	all := sr.All()
	if len(all) != 2 || all[0].ID != "c1" || all[1].ID != "c3" {
		t.Fatalf("All: want [c1 c3] in order, got %+v", all)
	}
}
