package pvpchan

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/checkers-kakao-bot/internal/pvpcheckers"
)

func newTestManagers(t *testing.T) (*Manager, *pvpcheckers.Manager) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	games := pvpcheckers.NewManagerWithClient(rdb)
	return NewManager(rdb, games), games
}

func TestMakeJoinStartsGame(t *testing.T) {
	m, games := newTestManagers(t)
	ctx := context.Background()

	mr, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if mr.Code == "" {
		t.Fatalf("expected non-empty code")
	}

	jr, err := m.Join(ctx, "roomB", mr.Code, "u2", "u2")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !jr.Started || jr.Meta.GameID == "" {
		t.Fatalf("expected game to start on second join: started=%v game=%q", jr.Started, jr.Meta.GameID)
	}

	g, err := games.GetActiveGameByUser(ctx, "u1")
	if err != nil || g == nil {
		t.Fatalf("GetActiveGameByUser: %v", err)
	}
	if g.ID != jr.Meta.GameID {
		t.Fatalf("gameID mismatch: %q vs %q", g.ID, jr.Meta.GameID)
	}
	if g.OriginRoom != "roomA" || g.ResolveRoom != "roomB" {
		t.Fatalf("rooms = %q/%q", g.OriginRoom, g.ResolveRoom)
	}

	rooms, err := m.Rooms(ctx, mr.Code)
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0] != "roomA" || rooms[1] != "roomB" {
		t.Fatalf("expected [roomA roomB], got %v", rooms)
	}

	list, err := m.ListLobby(ctx)
	if err != nil {
		t.Fatalf("ListLobby: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("started channel still listed: %v", list)
	}
}

func TestCreatorSideIsHonoured(t *testing.T) {
	m, _ := newTestManagers(t)
	ctx := context.Background()

	mr, err := m.Make(ctx, "roomA", "u1", "Alice", SideBlack)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	jr, err := m.Join(ctx, "roomA", mr.Code, "u2", "Bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if jr.Meta.BlackID != "u1" || jr.Meta.WhiteID != "u2" {
		t.Fatalf("white=%q black=%q", jr.Meta.WhiteID, jr.Meta.BlackID)
	}
}

func TestThirdJoinRejected(t *testing.T) {
	m, _ := newTestManagers(t)
	ctx := context.Background()

	mr, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := m.Join(ctx, "roomB", mr.Code, "u2", "u2"); err != nil {
		t.Fatalf("Join#1: %v", err)
	}
	if _, err := m.Join(ctx, "roomC", mr.Code, "u3", "u3"); !errors.Is(err, ErrFull) {
		t.Fatalf("third join err = %v, want ErrFull", err)
	}
}

func TestJoinErrors(t *testing.T) {
	m, _ := newTestManagers(t)
	ctx := context.Background()

	if _, err := m.Join(ctx, "roomA", "CH-NOPE00", "u2", "u2"); !errors.Is(err, ErrChannelGone) {
		t.Fatalf("unknown code err = %v", err)
	}
	if _, err := m.Join(ctx, "", "CH-NOPE00", "u2", "u2"); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("empty room err = %v", err)
	}

	mr, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := m.Join(ctx, "roomA", mr.Code, "u1", "u1"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("creator join err = %v", err)
	}
}

func TestRoomsByUserAndGame(t *testing.T) {
	m, games := newTestManagers(t)
	ctx := context.Background()

	mr, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	jr, err := m.Join(ctx, "roomB", mr.Code, "u2", "u2")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !jr.Started {
		t.Fatalf("game not started")
	}

	g, err := games.GetActiveGameByUser(ctx, "u2")
	if err != nil || g == nil {
		t.Fatalf("GetActiveGameByUser: %v", err)
	}
	rooms, err := m.RoomsByUserAndGame(ctx, "u2", g.ID)
	if err != nil {
		t.Fatalf("RoomsByUserAndGame: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d (%v)", len(rooms), rooms)
	}
	if rooms, _ := m.RoomsByUserAndGame(ctx, "u2", "other"); rooms != nil {
		t.Fatalf("unrelated game rooms = %v", rooms)
	}
}

func TestMarkFinished(t *testing.T) {
	m, _ := newTestManagers(t)
	ctx := context.Background()

	mr, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	jr, err := m.Join(ctx, "roomB", mr.Code, "u2", "u2")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	rooms, err := m.MarkFinished(ctx, "u1", jr.GameID)
	if err != nil {
		t.Fatalf("MarkFinished: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("rooms = %v", rooms)
	}
	meta, err := m.store.LoadMeta(ctx, mr.Code)
	if err != nil || meta == nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.State != StateFinished {
		t.Fatalf("state = %s", meta.State)
	}
}

func TestJoinUsesProvidedUserName(t *testing.T) {
	m, games := newTestManagers(t)
	ctx := context.Background()

	mr, err := m.Make(ctx, "roomA", "u1", "Alice", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	jr, err := m.Join(ctx, "roomB", mr.Code, "u2", "Bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !jr.Started {
		t.Fatalf("game not started")
	}

	g, err := games.GetActiveGameByUser(ctx, "u2")
	if err != nil || g == nil {
		t.Fatalf("GetActiveGameByUser: %v", err)
	}
	foundAlice, foundBob := false, false
	for _, n := range []string{g.WhiteName, g.BlackName} {
		if n == "Alice" {
			foundAlice = true
		}
		if n == "Bob" {
			foundBob = true
		}
	}
	if !foundAlice || !foundBob {
		t.Fatalf("expected names Alice and Bob in game participants, got: %v vs %v", g.WhiteName, g.BlackName)
	}
}

func TestMakeBlockedIfActiveGameInSameRoom(t *testing.T) {
	m, games := newTestManagers(t)
	ctx := context.Background()

	if _, err := games.CreateGameFromChallenge(ctx, "roomA", "roomB", "u1", "u1", "u2", "u2", "random"); err != nil {
		t.Fatalf("CreateGameFromChallenge: %v", err)
	}
	if _, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom); !errors.Is(err, ErrPlayerBusyInRoom) {
		t.Fatalf("Make err = %v, want ErrPlayerBusyInRoom", err)
	}
	// 다른 방에서는 허용
	if _, err := m.Make(ctx, "roomC", "u1", "u1", SideRandom); err != nil {
		t.Fatalf("Make in other room: %v", err)
	}
}

func TestJoinBlockedIfUserActiveInSameRoom(t *testing.T) {
	m, games := newTestManagers(t)
	ctx := context.Background()

	if _, err := games.CreateGameFromChallenge(ctx, "roomX", "roomB", "x1", "x1", "u2", "u2", "random"); err != nil {
		t.Fatalf("CreateGameFromChallenge: %v", err)
	}
	mr, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := m.Join(ctx, "roomB", mr.Code, "u2", "u2"); !errors.Is(err, ErrPlayerBusyInRoom) {
		t.Fatalf("Join err = %v, want ErrPlayerBusyInRoom", err)
	}
	// rejected joiner must not occupy the seat
	if _, err := m.Join(ctx, "roomC", mr.Code, "u3", "u3"); err != nil {
		t.Fatalf("Join by free user: %v", err)
	}
}

func TestMakeRestrictedDuplicateCreator(t *testing.T) {
	m, _ := newTestManagers(t)
	ctx := context.Background()

	if _, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom); err != nil {
		t.Fatalf("first Make: %v", err)
	}
	if _, err := m.Make(ctx, "roomB", "u1", "u1", SideRandom); !errors.Is(err, ErrCreatorHasLobby) {
		t.Fatalf("second Make err = %v, want ErrCreatorHasLobby", err)
	}
}

func TestCancelFreesCreatorSlot(t *testing.T) {
	m, _ := newTestManagers(t)
	ctx := context.Background()

	if _, err := m.Cancel(ctx, "u1"); !errors.Is(err, ErrNoLobby) {
		t.Fatalf("Cancel without lobby err = %v", err)
	}
	first, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	meta, err := m.Cancel(ctx, "u1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if meta.State != StateAborted || meta.ID != first.Code {
		t.Fatalf("cancelled meta = %+v", meta)
	}
	if _, err := m.Join(ctx, "roomB", first.Code, "u2", "u2"); !errors.Is(err, ErrChannelActive) {
		t.Fatalf("join aborted err = %v", err)
	}
	if _, err := m.Make(ctx, "roomA", "u1", "u1", SideRandom); err != nil {
		t.Fatalf("Make after cancel: %v", err)
	}
}

func TestListLobbyOrdersByCreation(t *testing.T) {
	m, _ := newTestManagers(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	a, err := m.Make(ctx, "roomA", "u1", "Alice", SideRandom)
	if err != nil {
		t.Fatalf("Make a: %v", err)
	}
	b, err := m.Make(ctx, "roomB", "u2", "Bob", SideWhite)
	if err != nil {
		t.Fatalf("Make b: %v", err)
	}
	list, err := m.ListLobby(ctx)
	if err != nil {
		t.Fatalf("ListLobby: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d", len(list))
	}
	if list[0].ID != a.Code || list[1].ID != b.Code {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
}

func TestParseSideChoice(t *testing.T) {
	cases := map[string]SideChoice{
		"white": SideWhite,
		" B ":   SideBlack,
		"흑":     SideBlack,
		"":      SideRandom,
		"any":   SideRandom,
	}
	for in, want := range cases {
		if got := ParseSideChoice(in); got != want {
			t.Fatalf("ParseSideChoice(%q) = %s, want %s", in, got, want)
		}
	}
}
