package pvpcheckers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
	"github.com/park285/checkers-kakao-bot/internal/domain"
)

// ResultRepository archives finished games.
type ResultRepository interface {
	SaveResult(ctx context.Context, g *Game, method string) error
	RecentGames(ctx context.Context, userID string, limit int) ([]*domain.CheckersGame, error)
	PlayerRecord(ctx context.Context, userID string) (*domain.PlayerRecord, error)
}

// Repository is the postgres archive.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an open handle.
func NewRepositoryWithDB(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

const schemaGames = `
CREATE TABLE IF NOT EXISTS checkers_games (
	game_id       TEXT PRIMARY KEY,
	white_id      TEXT NOT NULL,
	white_name    TEXT NOT NULL,
	black_id      TEXT NOT NULL,
	black_name    TEXT NOT NULL,
	origin_room   TEXT NOT NULL DEFAULT '',
	resolve_room  TEXT NOT NULL DEFAULT '',
	result        TEXT NOT NULL,
	result_method TEXT NOT NULL,
	moves         JSONB NOT NULL DEFAULT '[]'::jsonb,
	pdn           TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS checkers_games_white_idx ON checkers_games (white_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS checkers_games_black_idx ON checkers_games (black_id, ended_at DESC);`

// EnsureSchema creates the archive table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaGames); err != nil {
		return fmt.Errorf("ensure checkers_games: %w", err)
	}
	return nil
}

// SaveResult upserts the final result of g.
func (r *Repository) SaveResult(ctx context.Context, g *Game, method string) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	rec := BuildRecord(g, method)
	movesRaw, err := json.Marshal(rec.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}

	const q = `INSERT INTO checkers_games (
		game_id, white_id, white_name, black_id, black_name,
		origin_room, resolve_room, result, result_method, moves, pdn,
		started_at, ended_at, duration_ms
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb,$11,$12,$13,$14
	) ON CONFLICT (game_id) DO UPDATE SET
		result=EXCLUDED.result,
		result_method=EXCLUDED.result_method,
		moves=EXCLUDED.moves,
		pdn=EXCLUDED.pdn,
		ended_at=EXCLUDED.ended_at,
		duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		rec.GameID,
		rec.WhiteID, rec.WhiteName,
		rec.BlackID, rec.BlackName,
		rec.OriginRoom, rec.ResolveRoom,
		rec.Result, rec.ResultMethod, string(movesRaw), rec.PDN,
		rec.StartedAt, rec.EndedAt, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("upsert checkers game: %w", err)
	}
	return nil
}

func (r *Repository) RecentGames(ctx context.Context, userID string, limit int) ([]*domain.CheckersGame, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT game_id, white_id, white_name, black_id, black_name, origin_room, resolve_room,
			result, result_method, moves, pdn, started_at, ended_at, duration_ms
		FROM checkers_games
		WHERE white_id = $1 OR black_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select checkers games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.CheckersGame, 0, limit)
	for rows.Next() {
		var (
			g          domain.CheckersGame
			movesJSON  []byte
			durationMS int64
		)
		if err := rows.Scan(&g.GameID, &g.WhiteID, &g.WhiteName, &g.BlackID, &g.BlackName,
			&g.OriginRoom, &g.ResolveRoom, &g.Result, &g.ResultMethod, &movesJSON, &g.PDN,
			&g.StartedAt, &g.EndedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan checkers game: %w", err)
		}
		if len(movesJSON) > 0 {
			if err := json.Unmarshal(movesJSON, &g.Moves); err != nil {
				return nil, fmt.Errorf("unmarshal moves: %w", err)
			}
		}
		g.Duration = time.Duration(durationMS) * time.Millisecond
		games = append(games, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkers games: %w", err)
	}
	return games, nil
}

func (r *Repository) PlayerRecord(ctx context.Context, userID string) (*domain.PlayerRecord, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE (result = 'white' AND white_id = $1) OR (result = 'black' AND black_id = $1)),
			COUNT(*) FILTER (WHERE (result = 'white' AND black_id = $1) OR (result = 'black' AND white_id = $1))
		FROM checkers_games
		WHERE white_id = $1 OR black_id = $1`
	rec := &domain.PlayerRecord{UserID: userID}
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&rec.Games, &rec.Wins, &rec.Losses); err != nil {
		return nil, fmt.Errorf("select player record: %w", err)
	}
	return rec, nil
}

// BuildRecord converts a finished game into its archive form.
func BuildRecord(g *Game, method string) *domain.CheckersGame {
	ended := g.UpdatedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	duration := ended.Sub(g.CreatedAt)
	if duration < 0 {
		duration = 0
	}
	rec := &domain.CheckersGame{
		GameID:       g.ID,
		WhiteID:      g.WhiteID,
		WhiteName:    g.WhiteName,
		BlackID:      g.BlackID,
		BlackName:    g.BlackName,
		OriginRoom:   g.OriginRoom,
		ResolveRoom:  g.ResolveRoom,
		Result:       strings.TrimSpace(g.Outcome),
		ResultMethod: strings.TrimSpace(method),
		Moves:        append([]string(nil), g.Snapshot.Moves...),
		StartedAt:    g.CreatedAt,
		EndedAt:      ended,
		Duration:     duration,
	}
	rec.PDN = buildPDN(rec)
	return rec
}

func mapResultToPDN(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	default:
		return "*"
	}
}

// buildPDN renders the archive as portable draughts notation with a tag header.
func buildPDN(rec *domain.CheckersGame) string {
	var b strings.Builder
	result := mapResultToPDN(rec.Result)
	fmt.Fprintf(&b, "[Event \"KakaoPvP\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", rec.EndedAt.Year(), int(rec.EndedAt.Month()), rec.EndedAt.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizeTag(rec.WhiteName))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizeTag(rec.BlackName))
	if rec.ResultMethod != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizeTag(strings.ToLower(rec.ResultMethod)))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", result)

	moves := make([]checkers.Move, 0, len(rec.Moves))
	for _, raw := range rec.Moves {
		mv, err := checkers.ParseMove(raw)
		if err != nil {
			continue
		}
		moves = append(moves, mv)
	}
	if body := checkers.FormatPDN(moves); body != "" {
		b.WriteString(body)
		b.WriteByte(' ')
	}
	b.WriteString(result)
	return b.String()
}

func sanitizeTag(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
