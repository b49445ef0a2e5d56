package memory

import (
	"testing"

	"trivia-legends/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	store.Put("s1", app.NewGame("s1", nil, nil, nil))
	game, ok := store.Get("s1")
	if !ok || game.ID() != "s1" {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}
