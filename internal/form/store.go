package form

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrDraftNotFound    = errors.New("draft not found")
	ErrDraftExists      = errors.New("draft already exists")
	ErrConcurrentUpdate = errors.New("draft changed concurrently, retries exhausted")
)

// StateStore persists drafts. Update is the only way to change a stored
// draft: fn sees the current state and its changes are written atomically.
// An error from fn aborts the update and leaves the draft untouched.
type StateStore interface {
	Create(ctx context.Context, s State) error
	Load(ctx context.Context, id string) (State, error)
	Update(ctx context.Context, id string, fn func(*State) error) (State, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, owner string) ([]string, error)
	DeleteByOwner(ctx context.Context, owner string) (int, error)
}

// MemoryStore keeps drafts in process memory. fn runs under the store lock,
// which serializes every update.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]State)}
}

func (m *MemoryStore) Create(ctx context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[s.ID]; ok {
		return ErrDraftExists
	}
	s.UpdatedAt = time.Now().UTC()
	m.drafts[s.ID] = cloneState(s)
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.drafts[id]
	if !ok {
		return State{}, ErrDraftNotFound
	}
	return cloneState(s), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.drafts[id]
	if !ok {
		return State{}, ErrDraftNotFound
	}

	next := cloneState(current)
	if err := fn(&next); err != nil {
		return State{}, err
	}
	next.UpdatedAt = time.Now().UTC()
	m.drafts[id] = next
	return cloneState(next), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(m.drafts, id)
	return nil
}

func (m *MemoryStore) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.drafts {
		if s.OwnerUID == owner {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemoryStore) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.drafts {
		if s.OwnerUID == owner {
			delete(m.drafts, id)
			n++
		}
	}
	return n, nil
}

func cloneState(s State) State {
	s.Images = append([]Image{}, s.Images...)
	return s
}
