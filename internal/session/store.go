package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session IDs
var ErrNotFound = errors.New("session not found")

// Store keeps the in-memory sessions of a running dashboard
type Store struct {
	source   string
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewStore creates a store whose sessions load source on creation
func NewStore(source string) *Store {
	return &Store{
		source:   source,
		sessions: make(map[string]*Session),
	}
}

// Source returns the default dataset path
func (st *Store) Source() string {
	return st.source
}

// Create starts a session and tries to load the default source.
// The session is kept even when loading fails; it then awaits an upload.
func (st *Store) Create() *Session {
	s := newSession(uuid.New().String())
	_ = s.Load(st.source)

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()

	return s
}

// Get returns a session by ID
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a session
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(st.sessions, id)
	return nil
}

// List returns all sessions, oldest first
func (st *Store) List() []Info {
	st.mu.RLock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.RUnlock()

	infos := make([]Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt < infos[j].CreatedAt
	})
	return infos
}

// Close drops all sessions
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions = make(map[string]*Session)
}
