package service

import (
	"testing"
	"time"

	"github.com/ravicodry/dastaavej/config"
)

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := NewSessionStore(&config.SessionConfig{MaxSessions: 100, TTLHours: 1})

	session := store.Create()
	if session.ID == "" {
		t.Fatal("Expected session id")
	}
	if session.State != StateAwaitingStage {
		t.Errorf("Expected new session to await stage selection, got %s", session.State)
	}

	retrieved := store.Get(session.ID)
	if retrieved == nil {
		t.Fatal("Expected to retrieve session")
	}
	if retrieved.ID != session.ID {
		t.Errorf("Expected id %s, got %s", session.ID, retrieved.ID)
	}

	if store.Get("non-existent") != nil {
		t.Error("Expected nil for unknown session")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(&config.SessionConfig{MaxSessions: 100, TTLHours: 1})

	session := store.Create()
	store.mu.Lock()
	store.sessions[session.ID].UpdatedAt = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	if store.Get(session.ID) != nil {
		t.Error("Expected expired session to be unreachable")
	}
}

func TestSessionStoreGetReturnsCopy(t *testing.T) {
	store := NewSessionStore(&config.SessionConfig{MaxSessions: 100, TTLHours: 1})
	id := store.Create().ID

	first := store.Get(id)
	first.Agreed = true
	first.State = StateLocked

	// Uncommitted mutations never leak into the store
	second := store.Get(id)
	if second.Agreed || second.State != StateAwaitingStage {
		t.Errorf("Expected pristine session without Save, got agreed=%v state=%s", second.Agreed, second.State)
	}

	store.Save(first)
	third := store.Get(id)
	if !third.Agreed || third.State != StateLocked {
		t.Errorf("Expected saved mutations to be visible, got agreed=%v state=%s", third.Agreed, third.State)
	}
}

func TestSessionStoreEviction(t *testing.T) {
	store := NewSessionStore(&config.SessionConfig{MaxSessions: 3, TTLHours: 1})

	oldest := store.Create()
	for i := 0; i < 3; i++ {
		time.Sleep(time.Millisecond)
		store.Create()
	}

	if store.Count() != 3 {
		t.Errorf("Expected 3 sessions after eviction, got %d", store.Count())
	}
	if store.Get(oldest.ID) != nil {
		t.Error("Expected oldest session to be evicted")
	}
}
