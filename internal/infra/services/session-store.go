package services

import (
	"sync"

	"voice-connector/internal/domain/entities"
)

// SessionStore keeps the in-memory session records for ongoing calls.
// Calls are handled on independent goroutines, so the map access is
// serialized; the records themselves belong to their owning relay.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*entities.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*entities.Session)}
}

// GetOrCreate returns the session for callSid, creating it on first
// contact. The caller identity starts as "Unknown" until the start
// frame supplies it.
func (st *SessionStore) GetOrCreate(callSid string) *entities.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if session, ok := st.sessions[callSid]; ok {
		return session
	}

	session := &entities.Session{
		CallSid:      callSid,
		CallerNumber: "Unknown",
	}
	st.sessions[callSid] = session
	return session
}

func (st *SessionStore) Delete(callSid string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, callSid)
}

// Len reports how many calls are currently live.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
