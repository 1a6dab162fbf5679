package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ravicodry/dastaavej/config"
	"github.com/ravicodry/dastaavej/model"
)

// FlowState is one position in the analysis flow state machine.
type FlowState string

const (
	StateAwaitingStage  FlowState = "awaiting_stage"
	StateAwaitingUpload FlowState = "awaiting_upload"
	StateAnalyzing      FlowState = "analyzing"
	StateLocked         FlowState = "locked"
	StateUnlocked       FlowState = "unlocked"
)

// Session holds all transient per-visitor state. Nothing here is persisted;
// a new session starts over, including the paywall.
type Session struct {
	ID        string
	Agreed    bool
	Stage     model.Stage
	State     FlowState
	Result    *model.AnalysisResult
	IsPaid    bool
	Receipt   *Receipt
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore is an in-memory store for visitor sessions. Sessions move in
// and out by value: Get hands back a private copy and Save commits one, so
// concurrent requests on the same session never share session memory.
type SessionStore struct {
	sessions    map[string]*Session
	mu          sync.RWMutex
	maxSessions int
	ttl         time.Duration
}

func NewSessionStore(cfg *config.SessionConfig) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		maxSessions: cfg.MaxSessions,
		ttl:         time.Duration(cfg.TTLHours) * time.Hour,
	}
}

// Create starts a fresh session awaiting stage selection.
func (s *SessionStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		State:     StateAwaitingStage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored := *session
	s.sessions[session.ID] = &stored

	s.cleanupIfNeeded()

	return session
}

// Get returns a copy of the session with the given id, or nil if absent or
// expired. The caller mutates the copy freely and commits it with Save.
func (s *SessionStore) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.sessions[id]
	if session == nil {
		return nil
	}
	if s.ttl > 0 && time.Since(session.UpdatedAt) > s.ttl {
		return nil
	}
	cp := *session
	return &cp
}

// Save commits the session and bumps its update time. The store keeps its
// own copy; the caller's session stays private to the caller.
func (s *SessionStore) Save(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now()
	stored := *session
	s.sessions[stored.ID] = &stored
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// cleanupIfNeeded removes the oldest sessions once the store exceeds
// maxSessions. Must be called with the lock held.
func (s *SessionStore) cleanupIfNeeded() {
	if s.maxSessions <= 0 {
		return
	}
	if len(s.sessions) <= s.maxSessions {
		return
	}

	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.Before(sessions[j].UpdatedAt)
	})

	removeCount := len(sessions) - s.maxSessions
	for i := 0; i < removeCount; i++ {
		slog.Info("evicting stale session",
			"session_id", sessions[i].ID,
			"updated_at", sessions[i].UpdatedAt,
		)
		delete(s.sessions, sessions[i].ID)
	}
}
