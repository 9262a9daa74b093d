package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory is a Repository kept in process memory, used when no database is configured.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (m *InMemory) CreateUser(_ context.Context, email, passwordHash string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	m.byID[u.ID] = u
	m.byEmail[email] = u.ID

	return clone(u), nil
}

func (m *InMemory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}

	return clone(m.byID[id]), nil
}

func (m *InMemory) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	return clone(u), nil
}

func (m *InMemory) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}

	u.PasswordHash = passwordHash

	return nil
}

func clone(u *User) *User {
	c := *u
	return &c
}
