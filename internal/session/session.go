// Package session is the authentication boundary: it exposes who the current
// user is and a change stream the state managers key their lifecycle off.
// Credential handling itself belongs to the hosted auth provider.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// User is the authenticated identity the core operates on behalf of.
type User struct {
	ID       uuid.UUID
	Email    string
	Metadata map[string]string
}

// Session reports the current user and notifies on session changes. A nil
// user means no authenticated session.
type Session interface {
	CurrentUser() *User
	// OnChange registers fn to be called on every session transition,
	// including sign-out (fn receives nil). The returned cancel func
	// unregisters it.
	OnChange(fn func(*User)) (cancel func())
}

// MemorySession is an in-process Session driven by SetUser. It backs both
// tests and embedding hosts that receive auth state from elsewhere.
type MemorySession struct {
	mu        sync.Mutex
	user      *User
	nextID    int
	listeners map[int]func(*User)
}

func NewMemorySession() *MemorySession {
	return &MemorySession{
		listeners: make(map[int]func(*User)),
	}
}

// CurrentUser returns the current user, or nil when signed out.
func (s *MemorySession) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SetUser transitions the session and notifies all listeners. Passing nil
// signs the session out.
func (s *MemorySession) SetUser(u *User) {
	s.mu.Lock()
	s.user = u
	fns := make([]func(*User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func (s *MemorySession) OnChange(fn func(*User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}
