package store

import (
	"context"
	"sync"
	"time"

	"weeklychef/internal/catalog"
)

// Memory is an in-process Store used by tests and local runs without Postgres.
// It does not enforce foreign keys.
type Memory struct {
	mu     sync.RWMutex
	rows   map[catalog.Family]map[int64]map[string]any
	nextID map[catalog.Family]int64
	users  map[int64]User
	lastID int64
	clock  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		rows:   make(map[catalog.Family]map[int64]map[string]any),
		nextID: make(map[catalog.Family]int64),
		users:  make(map[int64]User),
		clock:  time.Now,
	}
}

func (m *Memory) GetUserStaffFlag(_ context.Context, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return false, ErrNotFound
	}
	return u.IsStaff, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *Memory) CreateUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return User{}, ErrUsernameTaken
		}
	}
	m.lastID++
	u.ID = m.lastID
	u.CreatedAt = m.clock().UTC()
	m.users[u.ID] = u
	return u, nil
}

// SetStaff flips a user's staff flag.
func (m *Memory) SetStaff(userID int64, staff bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsStaff = staff
	m.users[userID] = u
	return nil
}

func (m *Memory) GetByID(_ context.Context, family catalog.Family, id int64) (catalog.Row, error) {
	if _, err := catalog.Lookup(family); err != nil {
		return catalog.Row{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	vals, ok := m.rows[family][id]
	if !ok {
		return catalog.Row{}, ErrNotFound
	}
	return catalog.Row{Family: family, ID: id, Values: copyValues(vals)}, nil
}

func (m *Memory) Insert(_ context.Context, family catalog.Family, values map[string]any) (catalog.Row, error) {
	if _, err := catalog.Lookup(family); err != nil {
		return catalog.Row{}, err
	}
	if len(values) == 0 {
		return catalog.Row{}, ErrInvalidValue
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID[family]++
	id := m.nextID[family]
	if m.rows[family] == nil {
		m.rows[family] = make(map[int64]map[string]any)
	}
	m.rows[family][id] = copyValues(values)
	return catalog.Row{Family: family, ID: id, Values: copyValues(values)}, nil
}

func (m *Memory) Update(_ context.Context, family catalog.Family, id int64, values map[string]any) (catalog.Row, error) {
	if _, err := catalog.Lookup(family); err != nil {
		return catalog.Row{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[family][id]
	if !ok {
		return catalog.Row{}, ErrNotFound
	}
	for k, v := range values {
		cur[k] = v
	}
	return catalog.Row{Family: family, ID: id, Values: copyValues(cur)}, nil
}

func (m *Memory) Delete(_ context.Context, family catalog.Family, id int64) error {
	if _, err := catalog.Lookup(family); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[family][id]; !ok {
		return ErrNotFound
	}
	delete(m.rows[family], id)
	return nil
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
