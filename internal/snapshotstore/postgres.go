package snapshotstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
)

// PostgresStore keeps snapshots in the checkers_snapshots table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (p *PostgresStore) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

const schemaSnapshots = `
CREATE TABLE IF NOT EXISTS checkers_snapshots (
    game_id        TEXT PRIMARY KEY,
    board          JSONB NOT NULL,
    turn           TEXT NOT NULL,
    white_assigned BOOLEAN NOT NULL DEFAULT FALSE,
    black_assigned BOOLEAN NOT NULL DEFAULT FALSE,
    move_count     INTEGER NOT NULL DEFAULT 0,
    game_state     TEXT NOT NULL,
    moves          TEXT[] NOT NULL DEFAULT '{}',
    chain          TEXT NOT NULL DEFAULT '',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schemaSnapshots)
	return err
}

func (p *PostgresStore) Load(ctx context.Context, gameID string) (*checkers.Snapshot, error) {
	if err := validID(gameID); err != nil {
		return nil, err
	}
	var (
		snap  checkers.Snapshot
		board []byte
		moves pq.StringArray
	)
	row := p.db.QueryRowContext(ctx, `
SELECT game_id, board, turn, white_assigned, black_assigned, move_count, game_state, moves, chain
FROM checkers_snapshots WHERE game_id = $1`, gameID)
	err := row.Scan(&snap.GameID, &board, &snap.Turn, &snap.WhiteAssigned, &snap.BlackAssigned,
		&snap.MoveCount, &snap.GameState, &moves, &snap.Chain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", gameID, err)
	}
	if err := json.Unmarshal(board, &snap.Board); err != nil {
		return nil, fmt.Errorf("decode board %s: %w", gameID, err)
	}
	if len(moves) > 0 {
		snap.Moves = []string(moves)
	}
	return &snap, nil
}

func (p *PostgresStore) Save(ctx context.Context, snap *checkers.Snapshot) error {
	if err := validID(snap.GameID); err != nil {
		return err
	}
	board, err := json.Marshal(snap.Board)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO checkers_snapshots (game_id, board, turn, white_assigned, black_assigned, move_count, game_state, moves, chain, updated_at)
VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8, $9, NOW())
ON CONFLICT (game_id) DO UPDATE SET
    board = EXCLUDED.board,
    turn = EXCLUDED.turn,
    white_assigned = EXCLUDED.white_assigned,
    black_assigned = EXCLUDED.black_assigned,
    move_count = EXCLUDED.move_count,
    game_state = EXCLUDED.game_state,
    moves = EXCLUDED.moves,
    chain = EXCLUDED.chain,
    updated_at = NOW()`,
		snap.GameID, string(board), snap.Turn, snap.WhiteAssigned, snap.BlackAssigned,
		snap.MoveCount, snap.GameState, pq.Array(nonNil(snap.Moves)), snap.Chain)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.GameID, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, gameID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM checkers_snapshots WHERE game_id = $1`, gameID)
	return err
}

func (p *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT game_id FROM checkers_snapshots ORDER BY game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
