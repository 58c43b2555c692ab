package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"userhub.org/internal/ids"
	"userhub.org/internal/permission"
)

// Memory implements Store with in-process concurrency safety. It backs
// tests and local development; production runs the Postgres store.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]User
	byEmail map[string]string
	order   []string
	anyEver bool // bootstrap slot: set once, never cleared
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (m *Memory) Create(ctx context.Context, u *User, requested permission.Flags) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := m.byEmail[email]; exists {
		return ErrConflict
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	first := !m.anyEver
	m.anyEver = true
	u.Flags = permission.Initial(first, requested)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	m.users[u.ID] = *u
	m.byEmail[email] = u.ID
	m.order = append(m.order, u.ID)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetByEmail(ctx context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) List(ctx context.Context, limit, offset int) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(m.order) {
		return nil, nil
	}
	end := len(m.order)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]User, 0, end-offset)
	for _, id := range m.order[offset:end] {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *Memory) Update(ctx context.Context, id string, upd StoreUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *Memory) SetFlags(ctx context.Context, id string, flags permission.Flags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Flags = flags
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.byEmail, strings.ToLower(u.Email))
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}
