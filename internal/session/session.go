// Package session owns the orchestrator's in-memory session store: bounded
// chat history keyed by session id, with per-session serialization so two
// concurrent history writes against the same session never race: each
// append runs under that session's mutex. A chat turn's user and assistant
// appends are separate locked calls, so the turns of two concurrent chats
// on one session may interleave in its history.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a history turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session's history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a single conversation's bounded history, guarded by its own
// mutex so the store can serialize access per session id without blocking
// unrelated sessions.
type Session struct {
	ID      string
	mu      sync.Mutex
	history []Turn
	maxLen  int
}

// newSession creates a Session bounded to 2*maxHistoryLength turns.
func newSession(id string, maxHistoryLength int) *Session {
	return &Session{
		ID:     id,
		maxLen: 2 * maxHistoryLength,
	}
}

// append adds a turn to the session's history, evicting the oldest turn
// if the bound is exceeded. Call with the session locked via Store.With.
func (s *Session) append(role Role, content string) {
	s.history = append(s.history, Turn{Role: role, Content: content, Timestamp: time.Now().UTC()})
	if len(s.history) > s.maxLen {
		s.history = s.history[len(s.history)-s.maxLen:]
	}
}

// History returns a copy of the session's current turns.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// clear empties a session's history in place.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Store is the Orchestrator's process-singleton session map. Every
// mutating operation on one session id is serialized by that session's own
// mutex; unrelated sessions proceed in parallel.
type Store struct {
	mu               sync.RWMutex
	sessions         map[string]*Session
	maxHistoryLength int
}

// NewStore creates an empty Store bounding history to 2*maxHistoryLength
// turns per session.
func NewStore(maxHistoryLength int) *Store {
	return &Store{
		sessions:         make(map[string]*Session),
		maxHistoryLength: maxHistoryLength,
	}
}

// Create allocates a fresh session with a new UUID and returns its id.
func (st *Store) Create() string {
	id := uuid.New().String()
	st.getOrCreate(id)
	return id
}

func (st *Store) getOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		s = newSession(id, st.maxHistoryLength)
		st.sessions[id] = s
	}
	return s
}

// With resolves (creating if absent) the session for id, locks it for the
// duration of fn, and runs fn against it. This is the serialization point:
// two calls to With for the same id never run concurrently.
func (st *Store) With(id string, fn func(s *Session)) {
	s := st.getOrCreate(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// AppendUser appends a user turn to the given session.
func (st *Store) AppendUser(id, content string) {
	st.With(id, func(s *Session) { s.append(RoleUser, content) })
}

// AppendAssistant appends an assistant turn to the given session.
func (st *Store) AppendAssistant(id, content string) {
	st.With(id, func(s *Session) { s.append(RoleAssistant, content) })
}

// History returns a copy of the session's turns, or nil if the session
// does not exist.
func (st *Store) History(id string) ([]Turn, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.History(), true
}

// Delete clears a session's history in place, leaving the id itself valid.
// A no-op session record is intentionally kept rather than removed from
// the map so a subsequent History call returns an empty history instead of
// "not found" — matching a delete-then-read round-trip against a
// conversation whose id a client may still hold.
func (st *Store) Delete(id string) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return
	}
	s.clear()
}

// Exists reports whether a session id is present in the store.
func (st *Store) Exists(id string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.sessions[id]
	return ok
}
