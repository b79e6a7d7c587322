package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watchdeck/watchdeck/internal/errors"
)

// Role determines which operations a session may perform
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Session identifies an authenticated user behind an opaque token
type Session struct {
	UserID    string
	Email     string
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the session may perform admin operations
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// SessionStore maps opaque tokens to active sessions
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionStore creates a session store with the given session lifetime.
// A zero ttl means sessions never expire.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a session and returns its opaque token
func (s *SessionStore) Create(userID, email string, role Role) string {
	now := time.Now().UTC()
	session := &Session{
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		session.ExpiresAt = now.Add(s.ttl)
	}

	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()
	return token
}

// Lookup resolves a token to its session, rejecting unknown and
// expired tokens
func (s *SessionStore) Lookup(token string) (*Session, error) {
	if token == "" {
		return nil, errors.New(errors.CodeUnauthorized, "missing session token")
	}

	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.CodeUnauthorized, "invalid session token")
	}

	if !session.ExpiresAt.IsZero() && time.Now().UTC().After(session.ExpiresAt) {
		s.Revoke(token)
		return nil, errors.New(errors.CodeUnauthorized, "session expired")
	}
	return session, nil
}

// Revoke removes a session
func (s *SessionStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
