package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/arcade/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Initializer builds the initial state of a session for a requested game type
type Initializer interface {
	NewSession(requested string, playerID int64) *engine.Session
}

// entry guards one live session. mu serializes every read-modify-write
// on the record; removed is set once the entry has left the map.
type entry struct {
	mu      sync.Mutex
	session *engine.Session
	removed bool
}

// Manager handles game session lifecycle
type Manager struct {
	sessions map[int64]*entry
	init     Initializer
	lastID   atomic.Int64
	now      func() time.Time
	mu       sync.RWMutex
}

// Option customizes a session manager
type Option func(*Manager)

// WithClock sets the time source for every timestamp the manager writes
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a new session manager
func NewManager(init Initializer, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[int64]*entry),
		init:     init,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now reads the manager's clock
func (m *Manager) Now() time.Time {
	return m.now()
}

// Create allocates a fresh id and inserts a new session built by the initializer
func (m *Manager) Create(gameType string, playerID int64) *engine.Session {
	sess := m.init.NewSession(gameType, playerID)
	sess.ID = m.lastID.Add(1)
	now := m.now()
	sess.CreatedAt = now
	sess.LastUpdated = now
	sess.Version = 1

	m.mu.Lock()
	m.sessions[sess.ID] = &entry{session: sess}
	m.mu.Unlock()

	slog.Debug("session created", "game_id", sess.ID, "game_type", sess.GameType, "player_id", playerID)
	return sess.Clone()
}

// Restore inserts a session under its existing id. The id allocator is
// advanced past the restored id so it is never handed out again.
func (m *Manager) Restore(sess *engine.Session) (*engine.Session, error) {
	if sess == nil || sess.ID <= 0 {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sess.ID]; exists {
		return nil, ErrSessionAlreadyExists
	}

	for {
		last := m.lastID.Load()
		if last >= sess.ID || m.lastID.CompareAndSwap(last, sess.ID) {
			break
		}
	}

	stored := sess.Clone()
	if stored.LastUpdated.IsZero() {
		stored.LastUpdated = m.now()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.LastUpdated
	}
	stored.Version = max(stored.Version, 1)
	m.sessions[stored.ID] = &entry{session: stored}

	return stored.Clone(), nil
}

// lookup returns the entry for id without locking it
func (m *Manager) lookup(id int64) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	return e, ok
}

// Get returns a snapshot of a session
func (m *Manager) Get(id int64) (*engine.Session, error) {
	e, ok := m.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

// Update runs fn against a working copy of the session while holding the
// session's lock. The copy is committed only when fn returns nil, bumping
// Version; the committed state is returned as a snapshot.
func (m *Manager) Update(id int64, fn func(*engine.Session) error) (*engine.Session, error) {
	e, ok := m.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrSessionNotFound
	}

	working := e.session.Clone()
	if err := fn(working); err != nil {
		return e.session.Clone(), err
	}
	working.Version = e.session.Version + 1
	e.session = working

	return working.Clone(), nil
}

// Remove deletes a session. The removed record is marked GameOver and
// returned so holders of stale copies can observe the termination.
func (m *Manager) Remove(id int64) (*engine.Session, bool) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true
	e.session.Status = engine.StatusGameOver
	e.session.LastUpdated = m.now()
	e.session.Version++

	slog.Debug("session removed", "game_id", id)
	return e.session.Clone(), true
}

// List returns snapshots of all live sessions ordered by id
func (m *Manager) List() []*engine.Session {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	result := make([]*engine.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			result = append(result, e.session.Clone())
		}
		e.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions removes sessions that have not been updated within maxAge
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		e.mu.Lock()
		if e.session.LastUpdated.Before(cutoff) {
			delete(m.sessions, id)
			e.removed = true
			e.session.Status = engine.StatusGameOver
			e.session.Version++
			removed++
		}
		e.mu.Unlock()
	}

	return removed
}
