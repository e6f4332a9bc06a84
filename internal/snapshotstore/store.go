// Package snapshotstore persists rule engine snapshots and keeps the live sessions of a process.
package snapshotstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
)

var (
	ErrNotFound  = errors.New("snapshot not found")
	ErrInvalidID = errors.New("invalid game id")
)

// Store loads and saves snapshots keyed by game id.
type Store interface {
	Load(ctx context.Context, gameID string) (*checkers.Snapshot, error)
	Save(ctx context.Context, snap *checkers.Snapshot) error
	Delete(ctx context.Context, gameID string) error
	List(ctx context.Context) ([]string, error)
}

// validID accepts ids made of letters, digits, '-', '_' and '.', without a leading dot.
func validID(id string) error {
	if id == "" || len(id) > 128 || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return nil
}

func cloneSnapshot(s *checkers.Snapshot) *checkers.Snapshot {
	cp := *s
	cp.Board = make([][]string, len(s.Board))
	for i, row := range s.Board {
		cp.Board[i] = append([]string(nil), row...)
	}
	cp.Moves = append([]string(nil), s.Moves...)
	return &cp
}
