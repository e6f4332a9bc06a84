package snapshotstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
	"github.com/park285/checkers-kakao-bot/internal/obslog"
)

var (
	ErrUnknownGame = errors.New("game is not started")
	ErrSeatsTaken  = errors.New("both sides are already assigned")
)

// Registry owns the sessions that a process is playing, keyed by game id. Each game has its
// own lock; the store is re-read before a move and written after every accepted one.
type Registry struct {
	store Store
	opts  []checkers.Option

	mu    sync.Mutex
	games map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	sess *checkers.Session
}

func NewRegistry(store Store, opts ...checkers.Option) *Registry {
	return &Registry{store: store, opts: opts, games: make(map[string]*entry)}
}

// Start registers gameID, loading it from the store or creating and saving a fresh game.
// created reports whether a new game was written.
func (r *Registry) Start(ctx context.Context, gameID string) (snap checkers.Snapshot, created bool, err error) {
	gameID = strings.TrimSpace(gameID)
	if err := validID(gameID); err != nil {
		return checkers.Snapshot{}, false, err
	}
	e := r.entry(gameID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		sess, fresh, err := r.open(ctx, gameID)
		if err != nil {
			r.drop(gameID, e)
			return checkers.Snapshot{}, false, err
		}
		e.sess, created = sess, fresh
		obslog.L().Info("checkers_local_start", zap.String("game_id", gameID), zap.Bool("created", created))
	}
	return e.sess.Snapshot(), created, nil
}

func (r *Registry) open(ctx context.Context, gameID string) (*checkers.Session, bool, error) {
	stored, err := r.store.Load(ctx, gameID)
	switch {
	case err == nil:
		sess, rerr := checkers.FromSnapshot(*stored, r.opts...)
		if rerr != nil {
			return nil, false, rerr
		}
		return sess, false, nil
	case errors.Is(err, ErrNotFound):
		sess := checkers.NewSession(gameID, r.opts...)
		snap := sess.Snapshot()
		if err := r.store.Save(ctx, &snap); err != nil {
			return nil, false, err
		}
		return sess, true, nil
	default:
		return nil, false, err
	}
}

// Join assigns the first free side of a started game.
func (r *Registry) Join(ctx context.Context, gameID string) (checkers.Side, error) {
	var side checkers.Side
	err := r.with(gameID, func(e *entry) error {
		if err := r.refreshLocked(ctx, gameID, e); err != nil {
			return err
		}
		switch {
		case e.sess.AssignPlayer(checkers.White):
			side = checkers.White
		case e.sess.AssignPlayer(checkers.Black):
			side = checkers.Black
		default:
			return ErrSeatsTaken
		}
		snap := e.sess.Snapshot()
		if err := r.store.Save(ctx, &snap); err != nil {
			e.sess.ReleasePlayer(side)
			return err
		}
		return nil
	})
	return side, err
}

// Play applies from->to to gameID. Rule errors are the engine's sentinels; a failed save
// rolls the session back so memory never runs ahead of the store.
func (r *Registry) Play(ctx context.Context, gameID, from, to string) (checkers.MoveResult, error) {
	src, err := checkers.ParseSquare(from)
	if err != nil {
		return checkers.MoveResult{}, err
	}
	dst, err := checkers.ParseSquare(to)
	if err != nil {
		return checkers.MoveResult{}, err
	}

	var res checkers.MoveResult
	err = r.with(gameID, func(e *entry) error {
		if err := r.refreshLocked(ctx, gameID, e); err != nil {
			return err
		}
		before := e.sess.Snapshot()
		mr, err := e.sess.MakeMove(src, dst)
		if err != nil {
			return err
		}
		after := e.sess.Snapshot()
		if err := r.store.Save(ctx, &after); err != nil {
			if rerr := e.sess.Restore(before); rerr != nil {
				obslog.L().Error("checkers_local_rollback_failed", zap.String("game_id", gameID), zap.Error(rerr))
			}
			return fmt.Errorf("save move: %w", err)
		}
		res = mr
		return nil
	})
	if err != nil {
		return checkers.MoveResult{}, err
	}
	obslog.L().Info("checkers_local_move",
		zap.String("game_id", gameID),
		zap.String("move", res.Move.String()),
		zap.String("state", res.State.String()),
	)
	return res, nil
}

// Resign ends gameID in favour of side's opponent.
func (r *Registry) Resign(ctx context.Context, gameID string, side checkers.Side) (checkers.Snapshot, error) {
	var snap checkers.Snapshot
	err := r.with(gameID, func(e *entry) error {
		if err := r.refreshLocked(ctx, gameID, e); err != nil {
			return err
		}
		before := e.sess.Snapshot()
		if err := e.sess.Resign(side); err != nil {
			return err
		}
		snap = e.sess.Snapshot()
		if err := r.store.Save(ctx, &snap); err != nil {
			if rerr := e.sess.Restore(before); rerr != nil {
				obslog.L().Error("checkers_local_rollback_failed", zap.String("game_id", gameID), zap.Error(rerr))
			}
			return fmt.Errorf("save resignation: %w", err)
		}
		return nil
	})
	if err != nil {
		return checkers.Snapshot{}, err
	}
	return snap, nil
}

// Refresh re-reads gameID from the store.
func (r *Registry) Refresh(ctx context.Context, gameID string) (checkers.Snapshot, error) {
	var snap checkers.Snapshot
	err := r.with(gameID, func(e *entry) error {
		if err := r.refreshLocked(ctx, gameID, e); err != nil {
			return err
		}
		snap = e.sess.Snapshot()
		return nil
	})
	return snap, err
}

// LegalMoves lists the moves available to the side to move.
func (r *Registry) LegalMoves(gameID string) ([]checkers.Move, error) {
	var moves []checkers.Move
	err := r.with(gameID, func(e *entry) error {
		moves = e.sess.LegalMoves()
		return nil
	})
	return moves, err
}

// Get returns the in-memory state of gameID without touching the store.
func (r *Registry) Get(gameID string) (checkers.Snapshot, bool) {
	var snap checkers.Snapshot
	err := r.with(gameID, func(e *entry) error {
		snap = e.sess.Snapshot()
		return nil
	})
	return snap, err == nil
}

// Games lists started game ids.
func (r *Registry) Games() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.games))
	for id, e := range r.games {
		if e.sess != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// refreshLocked replaces the session with the stored copy. A missing document keeps memory.
func (r *Registry) refreshLocked(ctx context.Context, gameID string, e *entry) error {
	stored, err := r.store.Load(ctx, gameID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh %s: %w", gameID, err)
	}
	return e.sess.Restore(*stored)
}

func (r *Registry) with(gameID string, fn func(e *entry) error) error {
	r.mu.Lock()
	e, ok := r.games[strings.TrimSpace(gameID)]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	return fn(e)
}

func (r *Registry) entry(gameID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[gameID]
	if !ok {
		e = &entry{}
		r.games[gameID] = e
	}
	return e
}

func (r *Registry) drop(gameID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.games[gameID] == e && e.sess == nil {
		delete(r.games, gameID)
	}
}
