// Package store keeps the live sheet sessions. Everything is in memory by
// design: a session dies with the process and a reload starts from empty.
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/omrsim/omrsim/internal/sheet"
)

// ErrSessionNotFound is returned for unknown or already-deleted sessions.
var ErrSessionNotFound = errors.New("session not found")

// Store is a uuid-keyed registry of sheet sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sheet.Session
}

// New returns an empty registry.
func New() *Store {
	return &Store{sessions: map[string]*sheet.Session{}}
}

// Create registers a fresh empty session and returns it.
func (s *Store) Create() *sheet.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := sheet.New(uuid.NewString())
	s.sessions[sess.ID()] = sess
	return sess
}

// Get looks up a session by ID.
func (s *Store) Get(id string) (*sheet.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session from the registry.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len reports how many sessions are live.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
