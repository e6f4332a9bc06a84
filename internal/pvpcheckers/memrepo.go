package pvpcheckers

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/checkers-kakao-bot/internal/domain"
)

// MemoryRepository is the archive used when no database is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	games  map[string]*domain.CheckersGame
	byUser map[string][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		games:  make(map[string]*domain.CheckersGame),
		byUser: make(map[string][]string),
	}
}

func (m *MemoryRepository) SaveResult(ctx context.Context, g *Game, method string) error {
	if g == nil {
		return nil
	}
	rec := BuildRecord(g, method)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[rec.GameID]; !exists {
		for _, u := range []string{rec.WhiteID, rec.BlackID} {
			if u != "" {
				m.byUser[u] = append(m.byUser[u], rec.GameID)
			}
		}
	}
	m.games[rec.GameID] = rec
	return nil
}

func (m *MemoryRepository) RecentGames(ctx context.Context, userID string, limit int) ([]*domain.CheckersGame, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.CheckersGame, 0, len(m.byUser[userID]))
	for _, id := range m.byUser[userID] {
		c := *m.games[id]
		c.Moves = append([]string(nil), c.Moves...)
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) PlayerRecord(ctx context.Context, userID string) (*domain.PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec := &domain.PlayerRecord{UserID: userID}
	for _, id := range m.byUser[userID] {
		rec.Games++
		switch m.games[id].ResultFor(userID) {
		case "win":
			rec.Wins++
		case "loss":
			rec.Losses++
		}
	}
	return rec, nil
}
