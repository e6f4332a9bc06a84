package pvpcheckers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/checkers-kakao-bot/internal/checkers"
)

func newTestManager(t *testing.T, opts ...Option) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	m, err := NewManager(fmt.Sprintf("redis://%s/0", mr.Addr()), opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

// riggedGame stores an active game whose board holds only pieces.
func riggedGame(t *testing.T, m *Manager, turn checkers.Side, pieces map[string]string) *Game {
	t.Helper()
	rows := make([][]string, checkers.BoardDim)
	for r := range rows {
		rows[r] = make([]string, checkers.BoardDim)
		for c := range rows[r] {
			rows[r][c] = "-"
		}
	}
	for coord, sym := range pieces {
		sq := checkers.MustSquare(coord)
		rows[sq.Row][sq.Col] = sym
	}
	now := time.Now()
	g := &Game{
		ID:       "rigged",
		Snapshot: checkers.Snapshot{
			GameID:        "rigged",
			Board:         rows,
			Turn:          turn.String(),
			WhiteAssigned: true,
			BlackAssigned: true,
			GameState:     "IN_PROGRESS",
		},
		Status:      StatusActive,
		WhiteID:     "w",
		WhiteName:   "White",
		BlackID:     "b",
		BlackName:   "Black",
		OriginRoom:  "room",
		ResolveRoom: "room",
		CreatedAt:   now.Add(-time.Minute),
		UpdatedAt:   now,
	}
	ctx := context.Background()
	if err := m.save(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		t.Fatalf("index: %v", err)
	}
	return g
}

func TestCreateGameAssignsSides(t *testing.T) {
	m, mr := newTestManager(t, WithGameTTL(time.Hour))
	ctx := context.Background()

	g, err := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "Alice", "u2", "Bob", "black")
	if err != nil {
		t.Fatalf("CreateGameFromChallenge: %v", err)
	}
	if g.WhiteID != "u2" || g.BlackID != "u1" || g.WhiteName != "Bob" {
		t.Fatalf("challenger asked for black: %+v", g)
	}
	if !g.Snapshot.WhiteAssigned || !g.Snapshot.BlackAssigned || g.Snapshot.Turn != "white" {
		t.Fatalf("unexpected snapshot %+v", g.Snapshot)
	}
	if ttl := mr.TTL(gameKey(g.ID)); ttl != time.Hour {
		t.Fatalf("game ttl = %v", ttl)
	}

	random, err := m.CreateGameFromChallenge(ctx, "roomB", "roomB", "u3", "", "u4", "", "random")
	if err != nil {
		t.Fatalf("random sides: %v", err)
	}
	if random.WhiteName == "" || (random.WhiteID != "u3" && random.WhiteID != "u4") {
		t.Fatalf("names must default to ids: %+v", random)
	}

	if _, err := m.CreateGameFromChallenge(ctx, "r", "r", "u1", "a", "u1", "a", "white"); !errors.Is(err, ErrInvalidParticipants) {
		t.Fatalf("self challenge: %v", err)
	}
}

func TestPlayMoveTurnsAndRuleErrors(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g, err := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "u1", "u2", "u2", "white")
	if err != nil {
		t.Fatalf("CreateGameFromChallenge: %v", err)
	}

	if _, _, err := m.PlayMove(ctx, "u2", "b6", "a5"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("black before white: %v", err)
	}
	if _, _, err := m.PlayMove(ctx, "u1", "z9", "b4"); !errors.Is(err, checkers.ErrInvalidSquare) {
		t.Fatalf("bad square: %v", err)
	}
	if _, _, err := m.PlayMove(ctx, "u1", "a3", "a4"); !errors.Is(err, checkers.ErrIllegalDestination) {
		t.Fatalf("illegal destination: %v", err)
	}
	if _, _, err := m.PlayMove(ctx, "u1", "b6", "a5"); !errors.Is(err, checkers.ErrWrongTurn) {
		t.Fatalf("moving an opposing piece: %v", err)
	}
	if _, _, err := m.PlayMove(ctx, "nobody", "a3", "b4"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("outsider: %v", err)
	}

	g1, res, err := m.PlayMove(ctx, "u1", "a3", "b4")
	if err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	if res.Turn != checkers.Black || res.MoveCount != 1 || g1.LastMove != "a3-b4" {
		t.Fatalf("unexpected result %+v / %q", res, g1.LastMove)
	}

	stored, err := m.LoadGame(ctx, g.ID)
	if err != nil || stored == nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if stored.Turn() != checkers.Black || len(stored.Snapshot.Moves) != 1 {
		t.Fatalf("move not persisted: %+v", stored.Snapshot)
	}

	if _, _, err := m.PlayMove(ctx, "u2", "b6", "a5"); err != nil {
		t.Fatalf("black reply: %v", err)
	}
}

func TestPlayMoveByRoomScopesGame(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if _, err := m.CreateGameFromChallenge(ctx, "roomA", "roomB", "u1", "u1", "u2", "u2", "white"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := m.PlayMoveByRoom(ctx, "u1", "roomC", "a3", "b4"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("other room: %v", err)
	}
	if _, _, err := m.PlayMoveByRoom(ctx, "u1", "roomB", "a3", "b4"); err != nil {
		t.Fatalf("resolve room: %v", err)
	}
	if g, _ := m.GetActiveGameByUserInRoom(ctx, "u2", "roomA"); g == nil {
		t.Fatalf("origin room lookup failed")
	}
	if g, _ := m.GetActiveGameByUserInRoom(ctx, "u2", ""); g != nil {
		t.Fatalf("empty room must not match")
	}
}

func TestCaptureFinishesAndArchives(t *testing.T) {
	m, _ := newTestManager(t)
	repo := NewMemoryRepository()
	m.AttachRepository(repo)
	ctx := context.Background()
	riggedGame(t, m, checkers.White, map[string]string{"c3": "w", "d4": "b"})

	if _, _, err := m.PlayMove(ctx, "w", "c3", "b4"); !errors.Is(err, checkers.ErrCaptureMandatory) {
		t.Fatalf("expected mandatory capture, got %v", err)
	}
	g, res, err := m.PlayMove(ctx, "w", "c3", "e5")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !res.Finished() || g.Status != StatusFinished || g.Winner != "w" || g.Outcome != "white" {
		t.Fatalf("game not finished: %+v", g)
	}
	if active, _ := m.GetActiveGameByUser(ctx, "b"); active != nil {
		t.Fatalf("finished game still active")
	}

	games, err := m.RecentGames(ctx, "b", 5)
	if err != nil || len(games) != 1 {
		t.Fatalf("RecentGames: %v (%d)", err, len(games))
	}
	if games[0].ResultMethod != MethodCapture || games[0].ResultFor("b") != "loss" {
		t.Fatalf("unexpected archive %+v", games[0])
	}
	rec, _ := m.PlayerRecord(ctx, "w")
	if rec == nil || rec.Wins != 1 || rec.Games != 1 {
		t.Fatalf("player record %+v", rec)
	}
}

func TestResign(t *testing.T) {
	m, _ := newTestManager(t)
	repo := NewMemoryRepository()
	m.AttachRepository(repo)
	ctx := context.Background()
	g, err := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "u1", "u2", "u2", "white")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.ResignByRoom(ctx, "u2", "elsewhere"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("resign in other room: %v", err)
	}
	out, err := m.Resign(ctx, "u2")
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if out.Status != StatusResigned || out.Winner != "u1" || out.Snapshot.GameState != "WHITE_WIN" {
		t.Fatalf("unexpected resign result %+v", out)
	}
	if _, _, err := m.PlayMove(ctx, "u1", "a3", "b4"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("move after resign: %v", err)
	}
	games, _ := repo.RecentGames(ctx, "u1", 10)
	if len(games) != 1 || games[0].GameID != g.ID || games[0].ResultMethod != MethodResignation {
		t.Fatalf("resignation not archived: %+v", games)
	}
}

func TestLegalMovesAndChainOption(t *testing.T) {
	m, _ := newTestManager(t, WithChainCaptures(true))
	ctx := context.Background()
	g, err := m.CreateGameFromChallenge(ctx, "roomA", "roomA", "u1", "u1", "u2", "u2", "white")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !g.ChainCaptures {
		t.Fatalf("chain option not recorded")
	}
	_, moves, err := m.LegalMoves(ctx, "u2", "roomA")
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	if len(moves) != 7 {
		t.Fatalf("expected 7 opening moves, got %d", len(moves))
	}
	if _, _, err := m.LegalMoves(ctx, "nobody", ""); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("outsider: %v", err)
	}
}

func TestChainCaptureKeepsTurnAcrossRequests(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g := riggedGame(t, m, checkers.White, map[string]string{"a3": "w", "b4": "b", "d6": "b", "h8": "b"})
	g.ChainCaptures = true
	if err := m.save(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, res, err := m.PlayMove(ctx, "w", "a3", "c5")
	if err != nil {
		t.Fatalf("first jump: %v", err)
	}
	if !res.ChainPending || res.Turn != checkers.White {
		t.Fatalf("expected pending chain, got %+v", res)
	}
	if _, _, err := m.PlayMove(ctx, "b", "h8", "g7"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("black during chain: %v", err)
	}
	done, res, err := m.PlayMove(ctx, "w", "c5", "e7")
	if err != nil {
		t.Fatalf("second jump: %v", err)
	}
	if res.ChainPending || res.Turn != checkers.Black || done.Snapshot.Chain != "" {
		t.Fatalf("chain should be complete: %+v", res)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 || opts.TLSConfig != nil {
		t.Fatalf("unexpected options %+v", opts)
	}
	tlsOpts, err := ParseRedisURL("rediss://cache:6379")
	if err != nil || tlsOpts.TLSConfig == nil {
		t.Fatalf("rediss must enable tls: %v", err)
	}
	for _, raw := range []string{"http://x", "redis://host/abc", "redis://"} {
		if _, err := ParseRedisURL(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	if _, err := NewManager(""); err == nil {
		t.Fatalf("empty url must fail")
	}
}
