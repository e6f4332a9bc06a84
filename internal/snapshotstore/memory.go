package snapshotstore

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*checkers.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*checkers.Snapshot)}
}

func (m *MemoryStore) Load(_ context.Context, gameID string) (*checkers.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snaps[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSnapshot(s), nil
}

func (m *MemoryStore) Save(_ context.Context, snap *checkers.Snapshot) error {
	if err := validID(snap.GameID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.GameID] = cloneSnapshot(snap)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, gameID)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.snaps))
	for id := range m.snaps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
