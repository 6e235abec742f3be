// internal/store/memory.go
//
// In-memory implementation of the session Store interface. Holds finished
// solve sessions for retrieval by ID, primarily for service mode where a
// client posts a puzzle and later fetches the transcript.
//
// Characteristics:
//   - Stores *Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; durable history lives in
//     the history package.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/goatherd/internal/solver"
)

// Session is one solve run held for later retrieval: its dimensions, the
// full round transcript, and timing.
type Session struct {
	ID        string
	Digits    int
	Length    int
	Threads   int
	Rounds    []solver.Round
	ElapsedMs int
	CreatedAt time.Time
}

// Store defines the persistence interface for solve sessions.
// Implementations may be backed by memory (this package), Redis, SQL, etc.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	// Returns an error if the session is not found.
	Get(ctx context.Context, id string) (*Session, error)
}

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

// Save adds or updates the session in the map.
func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get looks up a session by ID.
func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}
