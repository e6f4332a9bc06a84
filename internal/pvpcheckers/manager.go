package pvpcheckers

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
	"github.com/park285/checkers-kakao-bot/internal/domain"
	"github.com/park285/checkers-kakao-bot/internal/obslog"
	svccheckers "github.com/park285/checkers-kakao-bot/internal/service/checkers"
)

const defaultGameTTL = 24 * time.Hour

type Manager struct {
	rdb           *redis.Client
	ownsClient    bool
	renderer      svccheckers.BoardRenderer
	repo          ResultRepository
	ttl           time.Duration
	chainCaptures bool
	now           func() time.Time
}

type Option func(*Manager)

// WithGameTTL sets the expiry of game records and participant indexes.
func WithGameTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithChainCaptures makes new games use the multi-jump extension.
func WithChainCaptures(on bool) Option {
	return func(m *Manager) { m.chainCaptures = on }
}

func WithRenderer(r svccheckers.BoardRenderer) Option {
	return func(m *Manager) {
		if r != nil {
			m.renderer = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager dials REDIS_URL and verifies the connection.
func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for PvP manager")
	}
	ropts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	m := NewManagerWithClient(rdb, opts...)
	m.ownsClient = true
	return m, nil
}

// NewManagerWithClient shares an existing client. Close leaves it open.
func NewManagerWithClient(rdb *redis.Client, opts ...Option) *Manager {
	m := &Manager{
		rdb:      rdb,
		renderer: svccheckers.NewPNGRenderer(),
		ttl:      defaultGameTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil || !m.ownsClient {
		return nil
	}
	return m.rdb.Close()
}

// Redis exposes the client for components sharing the connection.
func (m *Manager) Redis() *redis.Client {
	if m == nil {
		return nil
	}
	return m.rdb
}

// AttachRepository wires the archive used for finished games.
func (m *Manager) AttachRepository(r ResultRepository) {
	if m != nil {
		m.repo = r
	}
}

// CreateGameFromChallenge starts a game between two users. sideChoice is the challenger's
// preference: white, black or anything else for a coin flip.
func (m *Manager) CreateGameFromChallenge(ctx context.Context, originRoom, resolveRoom, challengerID, challengerName, targetID, targetName, sideChoice string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	challengerID, targetID = strings.TrimSpace(challengerID), strings.TrimSpace(targetID)
	if challengerID == "" || targetID == "" || challengerID == targetID {
		return nil, ErrInvalidParticipants
	}

	whiteID, whiteName := challengerID, challengerName
	blackID, blackName := targetID, targetName
	swap := false
	if side, ok := checkers.ParseSide(sideChoice); ok {
		swap = side == checkers.Black
	} else if n, err := rand.Int(rand.Reader, big.NewInt(2)); err == nil && n.Int64() == 0 {
		swap = true
	}
	if swap {
		whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
	}

	id := uuid.NewString()
	var sopts []checkers.Option
	if m.chainCaptures {
		sopts = append(sopts, checkers.WithChainCaptures())
	}
	sess := checkers.NewSession(id, sopts...)
	sess.AssignPlayer(checkers.White)
	sess.AssignPlayer(checkers.Black)

	now := m.now()
	g := &Game{
		ID:            id,
		Snapshot:      sess.Snapshot(),
		ChainCaptures: m.chainCaptures,
		Status:        StatusActive,
		WhiteID:       whiteID,
		WhiteName:     displayName(whiteName, whiteID),
		BlackID:       blackID,
		BlackName:     displayName(blackName, blackID),
		OriginRoom:    strings.TrimSpace(originRoom),
		ResolveRoom:   strings.TrimSpace(resolveRoom),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.save(ctx, g); err != nil {
		return nil, err
	}
	if err := m.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		return nil, err
	}
	obslog.L().Info("checkers_game_create",
		zap.String("game_id", g.ID),
		zap.String("origin_room", g.OriginRoom),
		zap.String("resolve_room", g.ResolveRoom),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
		zap.Bool("chain_captures", g.ChainCaptures),
	)
	return g, nil
}

// GetActiveGameByUser returns the most recently updated active game for a user, or nil.
func (m *Manager) GetActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
	return m.latestActive(ctx, userID, "")
}

// GetActiveGameByUserInRoom restricts the lookup to games bound to room.
func (m *Manager) GetActiveGameByUserInRoom(ctx context.Context, userID, room string) (*Game, error) {
	if strings.TrimSpace(room) == "" {
		return nil, nil
	}
	return m.latestActive(ctx, userID, room)
}

func (m *Manager) latestActive(ctx context.Context, userID, room string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*Game
	for _, id := range ids {
		g, gerr := m.get(ctx, id)
		if gerr != nil || g == nil || !g.Active() {
			continue
		}
		if room != "" && !g.InRoom(room) {
			continue
		}
		list = append(list, g)
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

// LoadGame returns the game by ID, or nil when it does not exist.
func (m *Manager) LoadGame(ctx context.Context, id string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	return m.get(ctx, id)
}

// PlayMove applies from->to for the user's active game.
// Rule violations come back as the engine's sentinel errors.
func (m *Manager) PlayMove(ctx context.Context, userID, from, to string) (*Game, checkers.MoveResult, error) {
	g, err := m.GetActiveGameByUser(ctx, userID)
	if err != nil {
		return nil, checkers.MoveResult{}, err
	}
	if g == nil {
		return nil, checkers.MoveResult{}, ErrNoActiveGame
	}
	return m.applyMove(ctx, g.ID, userID, "", from, to)
}

// PlayMoveByRoom is PlayMove limited to the user's game in room, so a user playing in
// several rooms never moves in the wrong one.
func (m *Manager) PlayMoveByRoom(ctx context.Context, userID, room, from, to string) (*Game, checkers.MoveResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(room) == "" {
		return nil, checkers.MoveResult{}, ErrInvalidParticipants
	}
	g, err := m.GetActiveGameByUserInRoom(ctx, userID, room)
	if err != nil {
		return nil, checkers.MoveResult{}, err
	}
	if g == nil {
		return nil, checkers.MoveResult{}, ErrNoActiveGame
	}
	return m.applyMove(ctx, g.ID, userID, room, from, to)
}

func (m *Manager) applyMove(ctx context.Context, id, userID, room, from, to string) (*Game, checkers.MoveResult, error) {
	var res checkers.MoveResult
	fromSq, err := checkers.ParseSquare(from)
	if err != nil {
		return nil, res, err
	}
	toSq, err := checkers.ParseSquare(to)
	if err != nil {
		return nil, res, err
	}

	var out *Game
	key := gameKey(id)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := loadTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if !cur.Active() {
			return checkers.ErrGameOver
		}
		if room != "" && !cur.InRoom(room) {
			return ErrGameNotInRoom
		}
		side, ok := cur.SideOf(userID)
		if !ok {
			return ErrNotParticipant
		}
		if cur.Turn() != side {
			return ErrNotYourTurn
		}

		sess, err := cur.Session()
		if err != nil {
			return fmt.Errorf("rebuild session %s: %w", cur.ID, err)
		}
		r, err := sess.MakeMove(fromSq, toSq)
		if err != nil {
			return err
		}

		cur.Snapshot = sess.Snapshot()
		cur.LastMove = r.Move.String()
		cur.UpdatedAt = m.now()
		if winner, done := r.State.Winner(); done {
			cur.finish(StatusFinished, winner)
		}
		if err := m.writeTx(ctx, tx, cur); err != nil {
			return err
		}
		out, res = cur, r
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, res, ErrConcurrentUpdate
		}
		return nil, res, err
	}

	obslog.L().Info("checkers_move",
		zap.String("game_id", out.ID),
		zap.String("user_id", strings.TrimSpace(userID)),
		zap.String("room_id", strings.TrimSpace(room)),
		zap.String("move", out.LastMove),
		zap.String("turn", res.Turn.String()),
		zap.Int("move_count", res.MoveCount),
		zap.Bool("chain_pending", res.ChainPending),
		zap.String("status", string(out.Status)),
	)
	if out.Status == StatusFinished {
		_ = m.persistIfFinal(ctx, out, MethodCapture)
	}
	return out, res, nil
}

// Resign ends the user's active game in the opponent's favour.
func (m *Manager) Resign(ctx context.Context, userID string) (*Game, error) {
	g, err := m.GetActiveGameByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}
	return m.resign(ctx, g.ID, userID, "")
}

// ResignByRoom resigns exactly the game bound to room.
func (m *Manager) ResignByRoom(ctx context.Context, userID, room string) (*Game, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(room) == "" {
		return nil, ErrInvalidParticipants
	}
	g, err := m.GetActiveGameByUserInRoom(ctx, userID, room)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}
	return m.resign(ctx, g.ID, userID, room)
}

func (m *Manager) resign(ctx context.Context, id, userID, room string) (*Game, error) {
	var out *Game
	key := gameKey(id)
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := loadTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if !cur.Active() {
			return checkers.ErrGameOver
		}
		if room != "" && !cur.InRoom(room) {
			return ErrGameNotInRoom
		}
		side, ok := cur.SideOf(userID)
		if !ok {
			return ErrNotParticipant
		}
		sess, err := cur.Session()
		if err != nil {
			return fmt.Errorf("rebuild session %s: %w", cur.ID, err)
		}
		if err := sess.Resign(side); err != nil {
			return err
		}
		cur.Snapshot = sess.Snapshot()
		cur.UpdatedAt = m.now()
		cur.finish(StatusResigned, side.Opponent())
		if err := m.writeTx(ctx, tx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}
	obslog.L().Info("checkers_resign",
		zap.String("game_id", out.ID),
		zap.String("resigner", strings.TrimSpace(userID)),
		zap.String("room_id", strings.TrimSpace(room)),
		zap.String("winner", out.Winner),
	)
	_ = m.persistIfFinal(ctx, out, MethodResignation)
	return out, nil
}

// LegalMoves lists the moves available to the side to move in the user's active game.
// When room is non-empty only the game bound to that room is considered.
func (m *Manager) LegalMoves(ctx context.Context, userID, room string) (*Game, []checkers.Move, error) {
	var (
		g   *Game
		err error
	)
	if strings.TrimSpace(room) != "" {
		g, err = m.GetActiveGameByUserInRoom(ctx, userID, room)
	} else {
		g, err = m.GetActiveGameByUser(ctx, userID)
	}
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrNoActiveGame
	}
	sess, err := g.Session()
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild session %s: %w", g.ID, err)
	}
	return g, sess.LegalMoves(), nil
}

func displayName(name, id string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return id
}

func loadTx(ctx context.Context, tx *redis.Tx, key string) (*Game, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &g, nil
}

func (m *Manager) writeTx(ctx context.Context, tx *redis.Tx, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(g.ID), raw, m.ttl)
		return nil
	})
	return err
}

func (m *Manager) save(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	return m.rdb.Set(ctx, gameKey(g.ID), raw, m.ttl).Err()
}

func (m *Manager) get(ctx context.Context, id string) (*Game, error) {
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &g, nil
}

func (m *Manager) indexParticipants(ctx context.Context, id string, users ...string) error {
	pipe := m.rdb.TxPipeline()
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		key := idxUserKey(u)
		pipe.SAdd(ctx, key, id)
		// 인덱스 TTL은 게임 TTL과 동일
		pipe.Expire(ctx, key, m.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func gameKey(id string) string        { return "checkers:game:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "checkers:index:user:" + strings.TrimSpace(userID) }

// persistIfFinal archives a finished game when a repository is attached.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game, method string) error {
	if m == nil || m.repo == nil || g == nil || g.Active() {
		return nil
	}
	if err := m.repo.SaveResult(ctx, g, method); err != nil {
		obslog.L().Error("checkers_result_persist_error", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.Error(err))
		return err
	}
	obslog.L().Info("checkers_result_persist", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.String("method", method))
	return nil
}

// RecentGames returns the user's archived games, newest first. Without a repository it is empty.
func (m *Manager) RecentGames(ctx context.Context, userID string, limit int) ([]*domain.CheckersGame, error) {
	if m == nil || m.repo == nil {
		return nil, nil
	}
	return m.repo.RecentGames(ctx, userID, limit)
}

// PlayerRecord returns the user's archived win/loss tally. Without a repository it is nil.
func (m *Manager) PlayerRecord(ctx context.Context, userID string) (*domain.PlayerRecord, error) {
	if m == nil || m.repo == nil {
		return nil, nil
	}
	return m.repo.PlayerRecord(ctx, userID)
}
