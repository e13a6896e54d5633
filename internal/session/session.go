// Package session keeps track of who is signed in on this device.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labs/fleamarket/internal/models"
)

type Session struct {
	UserID     uuid.UUID       `json:"userId"`
	Token      string          `json:"token"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Role       models.UserRole `json:"role"`
	SignedInAt time.Time       `json:"signedInAt"`
}

// Store persists the session between runs. Load returns nil when nobody is
// signed in; Save(nil) forgets the session.
type Store interface {
	Load() (*Session, error)
	Save(*Session) error
}

// Manager owns the current session. Start loads it from the store and Stop
// writes it back; SignIn and SignOut persist immediately.
type Manager struct {
	store Store

	mu      sync.RWMutex
	current *Session
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) Start() error {
	s, err := m.store.Load()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) Stop() error {
	m.mu.RLock()
	s := m.current
	m.mu.RUnlock()
	return m.store.Save(s)
}

// Current returns a copy of the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

func (m *Manager) SignIn(s Session) error {
	if s.SignedInAt.IsZero() {
		s.SignedInAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return m.store.Save(&s)
}

func (m *Manager) SignOut() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return m.store.Save(nil)
}

// Token is the bearer credential of the signed in user, or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}
