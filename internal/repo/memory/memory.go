package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/oncallpager/internal/domain"
)

// Store keeps alert status in process memory. Useful for tests and for
// previewing a run without touching the status file.
type Store struct {
	mu     sync.RWMutex
	status domain.StatusMap
	saves  int
}

func New() *Store {
	return &Store{status: make(domain.StatusMap)}
}

// Seed replaces the stored state as-is.
func (m *Store) Seed(s domain.StatusMap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s.Clone()
}

func (m *Store) Load(ctx context.Context) (domain.StatusMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status.Clone()
	out.Age()
	return out, nil
}

func (m *Store) Save(ctx context.Context, s domain.StatusMap, suppress bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if suppress {
		m.status = make(domain.StatusMap)
		return nil
	}
	m.status = s.Clone()
	return nil
}

func (m *Store) Peek(ctx context.Context) (domain.StatusMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Clone(), nil
}

// Saves reports how many times Save was called.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
