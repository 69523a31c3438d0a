// internal/state/memory.go
package state

import (
	"context"
	"sync"
	"time"

	"github.com/user/overseer/internal/types"
)

// MemoryStore keeps sessions and their event logs entirely in memory.
// It implements both types.SessionStore and types.EventStore and is safe
// for concurrent use; watchers read it while the runtime appends to it.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[types.SessionKey]*types.Session
	events   map[types.SessionID][]*types.Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[types.SessionKey]*types.Session),
		events:   make(map[types.SessionID][]*types.Event),
	}
}

// Create registers a session for the (app, user, session) triple. If one
// already exists for the triple, it is returned unchanged.
func (m *MemoryStore) Create(_ context.Context, app, user, session string) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := types.NewSessionKey(app, user, session)
	if existing, ok := m.sessions[key]; ok {
		return existing, nil
	}

	now := time.Now()
	sess := &types.Session{
		ID:        types.NewSessionID(),
		App:       app,
		UserID:    user,
		Name:      session,
		State:     make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[key] = sess
	return sess, nil
}

// Get returns the session for the triple, or types.ErrSessionNotFound.
func (m *MemoryStore) Get(_ context.Context, app, user, session string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sess, ok := m.sessions[types.NewSessionKey(app, user, session)]; ok {
		return sess, nil
	}
	return nil, types.ErrSessionNotFound
}

// Delete removes the session and its event log.
func (m *MemoryStore) Delete(_ context.Context, app, user, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := types.NewSessionKey(app, user, session)
	sess, ok := m.sessions[key]
	if !ok {
		return types.ErrSessionNotFound
	}
	delete(m.sessions, key)
	delete(m.events, sess.ID)
	return nil
}

// List returns all sessions.
func (m *MemoryStore) List(_ context.Context) ([]*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*types.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Append adds an event to the session's log with an auto-incremented
// sequence number, starting at 1.
func (m *MemoryStore) Append(_ context.Context, event *types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.events[event.SessionID]
	event.Seq = int64(len(log)) + 1
	m.events[event.SessionID] = append(log, event)
	return nil
}

// Since returns all events with Seq > after, in append order.
func (m *MemoryStore) Since(_ context.Context, sessionID types.SessionID, after int64) ([]*types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := m.events[sessionID]
	out := make([]*types.Event, 0, len(log))
	for _, event := range log {
		if event.Seq > after {
			out = append(out, event)
		}
	}
	return out, nil
}

// Tail returns the last N events for the given session.
func (m *MemoryStore) Tail(_ context.Context, sessionID types.SessionID, limit int) ([]*types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := m.events[sessionID]
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]*types.Event, len(log))
	copy(out, log)
	return out, nil
}

// Count returns the number of events for the given session.
func (m *MemoryStore) Count(_ context.Context, sessionID types.SessionID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.events[sessionID])), nil
}
